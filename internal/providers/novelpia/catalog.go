package novelpia

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/brogergvhs/novelpiad/internal/providers"
)

// MaxDuplicatePages is how many pages in a row may bring no new chapter
// ids before pagination stops. The list endpoint repeats its last page
// instead of returning an empty one for some novels.
const MaxDuplicatePages = 3

var ErrPageLimit = errors.New("page limit reached")

var reBookmark = regexp.MustCompile(`id="bookmark_(\d+)"></i>(.+?)</b>`)

type Catalog struct {
	Chapters []providers.Chapter
	Pages    int
	// Complete is false when pagination was cut short by an error.
	Complete bool
}

type CatalogBuilder struct {
	src providers.Source
	log Logger

	// MaxPages caps the number of list pages requested; 0 means no cap.
	MaxPages int
}

func NewCatalogBuilder(src providers.Source, log Logger) *CatalogBuilder {
	return &CatalogBuilder{src: src, log: log}
}

type listEntry struct {
	id    string
	title string
}

func parseListPage(body string) []listEntry {
	matches := reBookmark.FindAllStringSubmatch(body, -1)
	out := make([]listEntry, 0, len(matches))
	for _, m := range matches {
		out = append(out, listEntry{id: m[1], title: m[2]})
	}
	return out
}

// Build walks the episode list from page 0. It stops on an empty page or
// after MaxDuplicatePages consecutive pages without new ids. On a fetch
// error or cancellation the chapters found so far are returned together
// with the error and Complete set to false.
func (b *CatalogBuilder) Build(ctx context.Context, novelID string) (Catalog, error) {
	var cat Catalog
	seen := map[string]bool{}
	duplicatePages := 0

	for page := 0; ; page++ {
		if err := ctx.Err(); err != nil {
			return cat, fmt.Errorf("catalog stopped before page %d: %w", page, err)
		}
		if b.MaxPages > 0 && page >= b.MaxPages {
			return cat, fmt.Errorf("catalog stopped after %d pages: %w", page, ErrPageLimit)
		}

		b.log.Debugf("Requesting chapter list page %d", page)
		body, err := b.src.FetchChapterListPage(ctx, novelID, page)
		if err != nil {
			b.log.Errorf("Error fetching chapter list: %v", err)
			return cat, err
		}
		cat.Pages++

		entries := parseListPage(body)
		b.log.Debugf("Found %d chapter matches on page %d", len(entries), page)

		if len(entries) == 0 {
			b.log.Infof("No more chapters found on page %d", page)
			break
		}

		added := 0
		for _, e := range entries {
			if seen[e.id] {
				continue
			}
			seen[e.id] = true

			ch := providers.Chapter{
				ID:     e.id,
				Title:  html.UnescapeString(strings.TrimSpace(e.title)),
				Number: len(cat.Chapters) + 1,
			}
			cat.Chapters = append(cat.Chapters, ch)
			added++
			b.log.Debugf("Added chapter %d (id %s): %s", ch.Number, ch.ID, ch.Title)
		}

		if added == 0 {
			duplicatePages++
			b.log.Warnf("No new chapters on page %d (%d consecutive duplicate pages)", page, duplicatePages)
		} else {
			duplicatePages = 0
		}

		if duplicatePages >= MaxDuplicatePages {
			b.log.Infof("Reached %d consecutive duplicate pages, ending chapter list", MaxDuplicatePages)
			break
		}
	}

	cat.Complete = true
	b.log.Infof("Total unique chapters found: %d", len(cat.Chapters))

	return cat, nil
}
