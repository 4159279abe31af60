package novelpia

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/brogergvhs/novelpiad/internal/chapters"
	"github.com/brogergvhs/novelpiad/internal/providers"
)

// CoverSelector matches inline cover images in viewer text.
const CoverSelector = "img.cover-img"

// The viewer encodes paragraph breaks as two non-breaking spaces and soft
// line breaks as one. Depending on escaping they arrive either as the
// entity or as the decoded rune.
var nbspMarkers = []string{"&nbsp;", "\u00a0"}

var reBlankRun = regexp.MustCompile(`\n{3,}`)

type ImageSink interface {
	SaveImage(name string, data []byte) error
}

type Reconstructor struct {
	src    providers.Source
	images ImageSink
	base   *url.URL
	log    Logger
}

func NewReconstructor(src providers.Source, images ImageSink, base *url.URL, log Logger) *Reconstructor {
	return &Reconstructor{src: src, images: images, base: base, log: log}
}

// Document is the rebuilt text of one chapter, header included.
type Document struct {
	Chapter providers.Chapter
	Text    string
	Images  []string
}

// Outcome is the result of processing one chapter: either a Document or a
// chapter-scoped failure of a given kind.
type Outcome struct {
	Chapter providers.Chapter
	Doc     *Document
	Kind    providers.ErrorKind
	Err     error
}

func (o Outcome) OK() bool {
	return o.Err == nil && o.Doc != nil
}

// Content returns the text to persist: the document on success, otherwise
// the chapter header followed by an error note.
func (o Outcome) Content() string {
	if o.OK() {
		return o.Doc.Text
	}
	header := chapters.Chapter{Chapter: o.Chapter}.Header()

	// *providers.Error already names its kind
	var pe *providers.Error
	if errors.As(o.Err, &pe) {
		return fmt.Sprintf("%s\n\nError: %v\n", header, o.Err)
	}
	return fmt.Sprintf("%s\n\nError: %s: %v\n", header, o.Kind, o.Err)
}

func failed(ch providers.Chapter, err error) Outcome {
	return Outcome{Chapter: ch, Kind: providers.KindOf(err), Err: err}
}

// Reconstruct fetches and rebuilds one chapter. Fetch failures, malformed
// payloads and empty bodies come back as a failed Outcome; the returned
// error is reserved for image persistence failures.
func (r *Reconstructor) Reconstruct(ctx context.Context, ch providers.Chapter) (Outcome, error) {
	payload, err := r.src.FetchChapterPayload(ctx, ch.ID)
	if err != nil {
		return failed(ch, err), nil
	}

	body, images, err := r.Body(ctx, ch, payload)
	if err != nil {
		return Outcome{}, err
	}

	if strings.TrimSpace(body) == "" {
		return failed(ch, providers.NewError(providers.KindEmpty, "chapter "+ch.ID, fmt.Errorf("%d content items produced no text", len(payload.Items)))), nil
	}

	return Outcome{
		Chapter: ch,
		Doc: &Document{
			Chapter: ch,
			Text:    chapters.Chapter{Chapter: ch}.Header() + "\n\n" + body,
			Images:  images,
		},
	}, nil
}

// Body turns payload items into normalized chapter text without the header
// and stores any cover image it meets.
func (r *Reconstructor) Body(ctx context.Context, ch providers.Chapter, p *providers.Payload) (string, []string, error) {
	var (
		lines  []string
		images []string
	)

	for _, item := range p.Items {
		for _, frag := range strings.Split(ExpandMarkers(item.Text), "\n") {
			doc, err := goquery.NewDocumentFromReader(strings.NewReader(frag))
			if err != nil {
				r.log.Warnf("Skipping unparsable fragment in chapter %d: %v", ch.Number, err)
				continue
			}

			var saveErr error
			doc.Find(CoverSelector).EachWithBreak(func(_ int, img *goquery.Selection) bool {
				name, err := r.saveCover(ctx, ch, img)
				if err != nil {
					saveErr = err
					return false
				}
				if name != "" {
					images = append(images, name)
					lines = append(lines, fmt.Sprintf("[Cover Image: %s]\n", name))
				}
				return true
			})
			if saveErr != nil {
				return "", images, saveErr
			}

			if text := strings.TrimSpace(doc.Text()); text != "" {
				lines = append(lines, text+"\n")
			}
		}
	}

	return CollapseBlankLines(strings.Join(lines, "\n")), images, nil
}

// saveCover downloads one cover image. Download problems are logged and the
// placeholder name is still returned; only a failed write is an error.
func (r *Reconstructor) saveCover(ctx context.Context, ch providers.Chapter, img *goquery.Selection) (string, error) {
	src := strings.TrimSpace(img.AttrOr("src", ""))
	if src == "" {
		r.log.Warnf("Cover image without src in chapter %d", ch.Number)
		return "", nil
	}

	name := chapters.CoverFileName(ch.Number)
	imageURL := r.resolve(src)

	data, err := r.src.FetchImage(ctx, imageURL)
	if err != nil {
		r.log.Errorf("Error downloading image %s: %v", name, err)
		return name, nil
	}

	if err := r.images.SaveImage(name, data); err != nil {
		return name, err
	}

	r.log.Infof("Saved image %s", name)
	return name, nil
}

func (r *Reconstructor) resolve(src string) string {
	u, err := url.Parse(src)
	if err != nil {
		return src
	}
	if u.IsAbs() || r.base == nil {
		return u.String()
	}
	return r.base.ResolveReference(u).String()
}

// ExpandMarkers decodes entities in s and maps non-breaking-space markers
// to line structure: a double marker becomes a paragraph break, a single
// one a line break. Double markers are replaced first.
func ExpandMarkers(s string) string {
	s = html.UnescapeString(s)

	for _, m := range nbspMarkers {
		s = strings.ReplaceAll(s, m+m, "\n\n")
	}
	for _, m := range nbspMarkers {
		s = strings.ReplaceAll(s, m, "\n")
	}

	return s
}

// CollapseBlankLines squeezes runs of three or more newlines down to two.
func CollapseBlankLines(s string) string {
	return reBlankRun.ReplaceAllString(s, "\n\n")
}
