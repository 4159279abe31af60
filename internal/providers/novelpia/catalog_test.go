package novelpia

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/brogergvhs/novelpiad/internal/providers"
)

const pageSize = 20

func pageIDs(page int) []int {
	ids := make([]int, pageSize)
	for i := range ids {
		ids[i] = 1000 + page*pageSize + i
	}
	return ids
}

func assertDense(t *testing.T, chs []providers.Chapter) {
	t.Helper()
	for i, c := range chs {
		if c.Number != i+1 {
			t.Fatalf("chapter %d has number %d", i, c.Number)
		}
	}
}

func TestBuildUniquePages(t *testing.T) {
	const pages = 4
	src := &fakeSource{pages: func(page int) (string, error) {
		if page >= pages {
			return "<ul></ul>", nil
		}
		return listPage(pageIDs(page)...), nil
	}}

	cat, err := NewCatalogBuilder(src, testLog).Build(context.Background(), "1")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if len(cat.Chapters) != pages*pageSize {
		t.Fatalf("expected %d chapters, got %d", pages*pageSize, len(cat.Chapters))
	}
	assertDense(t, cat.Chapters)

	if !cat.Complete {
		t.Error("catalog should be complete")
	}
	if cat.Chapters[0].ID != "1000" || cat.Chapters[0].Title != "Episode 1000" {
		t.Errorf("first chapter = %+v", cat.Chapters[0])
	}
}

func TestBuildStopsOnRepeatedLastPage(t *testing.T) {
	src := &fakeSource{pages: func(page int) (string, error) {
		if page > 1 {
			page = 1
		}
		return listPage(pageIDs(page)...), nil
	}}

	cat, err := NewCatalogBuilder(src, testLog).Build(context.Background(), "1")
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	// pages 0 and 1 are new, 2..4 are the three duplicates
	if got := len(src.listCalls); got != 2+MaxDuplicatePages {
		t.Errorf("expected %d page requests, got %d", 2+MaxDuplicatePages, got)
	}
	if len(cat.Chapters) != 2*pageSize {
		t.Errorf("expected %d chapters, got %d", 2*pageSize, len(cat.Chapters))
	}
	assertDense(t, cat.Chapters)
}

func TestBuildDuplicateCounterResets(t *testing.T) {
	// new, dup, dup, new, dup, dup, dup
	script := [][]int{{1, 2}, {1}, {2}, {3}, {3}, {1, 3}, {2}}
	src := &fakeSource{pages: func(page int) (string, error) {
		if page >= len(script) {
			t.Fatalf("requested page %d past the end of the script", page)
		}
		return listPage(script[page]...), nil
	}}

	cat, err := NewCatalogBuilder(src, testLog).Build(context.Background(), "1")
	if err != nil {
		t.Fatal(err)
	}

	if len(src.listCalls) != len(script) {
		t.Errorf("expected %d requests, got %d", len(script), len(src.listCalls))
	}
	if len(cat.Chapters) != 3 || cat.Chapters[2].ID != "3" || cat.Chapters[2].Number != 3 {
		t.Errorf("unexpected catalog %+v", cat.Chapters)
	}
}

func TestBuildEmptyFirstPage(t *testing.T) {
	src := &fakeSource{pages: func(int) (string, error) { return "", nil }}

	cat, err := NewCatalogBuilder(src, testLog).Build(context.Background(), "1")
	if err != nil {
		t.Fatal(err)
	}
	if len(cat.Chapters) != 0 || len(src.listCalls) != 1 || !cat.Complete {
		t.Errorf("empty feed: chapters=%d calls=%d complete=%t", len(cat.Chapters), len(src.listCalls), cat.Complete)
	}
}

func TestBuildNetworkErrorReturnsPartial(t *testing.T) {
	src := &fakeSource{pages: func(page int) (string, error) {
		if page == 2 {
			return "", providers.NewError(providers.KindNetwork, fmt.Sprintf("chapter list page %d", page), errors.New("HTTP 502 Bad Gateway"))
		}
		return listPage(pageIDs(page)...), nil
	}}

	cat, err := NewCatalogBuilder(src, testLog).Build(context.Background(), "1")
	if !errors.Is(err, providers.ErrNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	if cat.Complete {
		t.Error("partial catalog must not be marked complete")
	}
	if len(cat.Chapters) != 2*pageSize {
		t.Errorf("expected %d chapters before the failure, got %d", 2*pageSize, len(cat.Chapters))
	}
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := &fakeSource{pages: func(page int) (string, error) {
		cancel()
		return listPage(pageIDs(page)...), nil
	}}

	cat, err := NewCatalogBuilder(src, testLog).Build(ctx, "1")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if cat.Complete || len(cat.Chapters) != pageSize {
		t.Errorf("cancelled catalog: complete=%t chapters=%d", cat.Complete, len(cat.Chapters))
	}
}

func TestBuildPageLimit(t *testing.T) {
	src := &fakeSource{pages: func(page int) (string, error) {
		return listPage(pageIDs(page)...), nil
	}}

	b := NewCatalogBuilder(src, testLog)
	b.MaxPages = 2

	cat, err := b.Build(context.Background(), "1")
	if !errors.Is(err, ErrPageLimit) {
		t.Fatalf("expected ErrPageLimit, got %v", err)
	}
	if len(src.listCalls) != 2 || len(cat.Chapters) != 2*pageSize {
		t.Errorf("calls=%d chapters=%d", len(src.listCalls), len(cat.Chapters))
	}
}

func TestParseListPageUnescapesTitles(t *testing.T) {
	body := `<b><i id="bookmark_55"></i>  Tom &amp; Jerry &lt;1&gt; </b>` +
		`<b><i id="bookmark_55"></i>again</b>` +
		`<b><i id="bookmark_56"></i>&quot;Next&quot;</b>`
	src := &fakeSource{pages: func(page int) (string, error) {
		if page == 0 {
			return body, nil
		}
		return "", nil
	}}

	cat, err := NewCatalogBuilder(src, testLog).Build(context.Background(), "1")
	if err != nil {
		t.Fatal(err)
	}

	if len(cat.Chapters) != 2 {
		t.Fatalf("expected 2 chapters, got %+v", cat.Chapters)
	}
	if cat.Chapters[0].Title != "Tom & Jerry <1>" {
		t.Errorf("title = %q", cat.Chapters[0].Title)
	}
	if cat.Chapters[1].Title != `"Next"` || cat.Chapters[1].Number != 2 {
		t.Errorf("second = %+v", cat.Chapters[1])
	}
}
