package novelpia

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/brogergvhs/novelpiad/internal/providers"
	"github.com/brogergvhs/novelpiad/internal/ui"
)

var testLog = ui.NewNopLogger()

func listPage(ids ...int) string {
	var b strings.Builder
	b.WriteString(`<ul class="episode-list">`)
	for _, id := range ids {
		fmt.Fprintf(&b, `<li><b><i class="icon-bookmark" id="bookmark_%d"></i>Episode %d</b></li>`, id, id)
	}
	b.WriteString(`</ul>`)
	return b.String()
}

// fakeSource serves canned responses keyed by page, chapter id or url.
type fakeSource struct {
	mu sync.Mutex

	pages    func(page int) (string, error)
	payloads map[string]*providers.Payload
	errs     map[string]error
	images   map[string][]byte

	listCalls  []int
	imageCalls []string
}

func (f *fakeSource) FetchChapterListPage(_ context.Context, _ string, page int) (string, error) {
	f.mu.Lock()
	f.listCalls = append(f.listCalls, page)
	f.mu.Unlock()
	return f.pages(page)
}

func (f *fakeSource) FetchChapterPayload(_ context.Context, id string) (*providers.Payload, error) {
	if err, ok := f.errs[id]; ok {
		return nil, err
	}
	p, ok := f.payloads[id]
	if !ok {
		return nil, providers.NewError(providers.KindNetwork, "chapter "+id, fmt.Errorf("HTTP 404 Not Found"))
	}
	return p, nil
}

func (f *fakeSource) FetchImage(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	f.imageCalls = append(f.imageCalls, url)
	f.mu.Unlock()

	data, ok := f.images[url]
	if !ok {
		return nil, providers.NewError(providers.KindNetwork, "image "+url, fmt.Errorf("HTTP 404 Not Found"))
	}
	return data, nil
}

type memorySink struct {
	saved map[string][]byte
	err   error
}

func (m *memorySink) SaveImage(name string, data []byte) error {
	if m.err != nil {
		return m.err
	}
	if m.saved == nil {
		m.saved = map[string][]byte{}
	}
	m.saved[name] = data
	return nil
}

func payload(texts ...string) *providers.Payload {
	p := &providers.Payload{}
	for _, t := range texts {
		p.Items = append(p.Items, providers.PayloadItem{Text: t})
	}
	return p
}
