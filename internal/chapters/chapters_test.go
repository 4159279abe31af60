package chapters

import (
	"testing"

	"github.com/brogergvhs/novelpiad/internal/providers"
)

func sample(n int) []Chapter {
	all := make([]providers.Chapter, n)
	for i := range all {
		all[i] = providers.Chapter{ID: string(rune('a' + i)), Title: "t", Number: i + 1}
	}
	return Wrap(all)
}

func TestSanitize(t *testing.T) {
	got := Sanitize(`a\b/c*d?e:f"g<h>i|j k`)
	if got != "abcdefghij k" {
		t.Errorf("Sanitize = %q", got)
	}
}

func TestFileNames(t *testing.T) {
	c := Chapter{providers.Chapter{ID: "1", Title: "Prologue: Start?", Number: 7}}

	if got := c.FileName(); got != "0007_Prologue Start.txt" {
		t.Errorf("FileName = %q", got)
	}
	if got := c.ErrorFileName(); got != "ERROR_0007_Prologue Start.txt" {
		t.Errorf("ErrorFileName = %q", got)
	}
	if got := c.Header(); got != "Chapter 7: Prologue: Start?" {
		t.Errorf("Header = %q", got)
	}
	if got := c.CoverFileName(); got != "chapter_7_cover.jpg" {
		t.Errorf("CoverFileName = %q", got)
	}
}

func TestFilter(t *testing.T) {
	all := sample(10)

	got, err := Filter(all, "", "", "")
	if err != nil || len(got) != 10 {
		t.Fatalf("no selector should return all, got %d (%v)", len(got), err)
	}

	got, err = Filter(all, "4", "", "")
	if err != nil || len(got) != 1 || got[0].Number != 4 {
		t.Fatalf("single chapter: %v %v", got, err)
	}

	if _, err := Filter(all, "42", "", ""); err == nil {
		t.Error("missing chapter should fail")
	}

	got, err = Filter(all, "", "3-5", "")
	if err != nil || len(got) != 3 || got[0].Number != 3 || got[2].Number != 5 {
		t.Fatalf("range: %v %v", got, err)
	}

	if _, err := Filter(all, "", "5-3", ""); err == nil {
		t.Error("reversed range should fail")
	}

	got, err = Filter(all, "", "", "9, 2,2,99")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 || got[0].Number != 9 || got[1].Number != 2 {
		t.Errorf("list should keep caller order and drop unknown/duplicates, got %v", got)
	}

	if _, err := Filter(all, "", "", "1,x"); err == nil {
		t.Error("non-numeric list entry should fail")
	}
}
