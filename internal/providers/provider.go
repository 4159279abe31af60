package providers

import "context"

// Chapter describes one entry of a novel's chapter catalog. Number is the
// 1-based position in discovery order and is assigned only by the catalog
// builder.
type Chapter struct {
	ID     string
	Title  string
	Number int
}

// PayloadItem is one content block of a chapter viewer response. Text holds
// escaped HTML with the site's whitespace encoding.
type PayloadItem struct {
	Text string `json:"text"`
}

// Payload is the decoded per-chapter viewer response.
type Payload struct {
	Items []PayloadItem
}

// Source is the network side of a novel site: the paginated chapter list,
// per-chapter content and image downloads. Implementations must return
// *Error values so callers can tell network failures from malformed data.
type Source interface {
	FetchChapterListPage(ctx context.Context, novelID string, page int) (string, error)
	FetchChapterPayload(ctx context.Context, chapterID string) (*Payload, error)
	FetchImage(ctx context.Context, url string) ([]byte, error)
}
