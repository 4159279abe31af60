package novelpia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/h2non/filetype"

	"github.com/brogergvhs/novelpiad/internal/providers"
)

const DefaultBaseURL = "https://novelpia.com"

// Logger is the logging surface used across this package.
type Logger interface {
	Debugf(string, ...any)
	Infof(string, ...any)
	Warnf(string, ...any)
	Errorf(string, ...any)
}

type ClientOptions struct {
	BaseURL    string
	HTTPClient *http.Client
	Retries    int
	RetryWait  time.Duration
	Log        Logger
}

// Client implements providers.Source against the Novelpia endpoints.
type Client struct {
	base *url.URL
	rc   *resty.Client
	log  Logger
}

var _ providers.Source = (*Client)(nil)

func NewClient(opts ClientOptions) (*Client, error) {
	raw := opts.BaseURL
	if raw == "" {
		raw = DefaultBaseURL
	}

	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", raw)
	}

	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}

	wait := opts.RetryWait
	if wait <= 0 {
		wait = 2 * time.Second
	}

	rc := resty.NewWithClient(hc)
	rc.SetLogger(restyLogger{opts.Log})
	rc.SetRetryCount(max(0, opts.Retries)).
		SetRetryWaitTime(wait).
		SetRetryMaxWaitTime(10 * wait).
		SetRetryAfter(func(_ *resty.Client, resp *resty.Response) (time.Duration, error) {
			if resp != nil && resp.StatusCode() == http.StatusTooManyRequests {
				if ra := resp.Header().Get("Retry-After"); ra != "" {
					if secs, err := strconv.Atoi(ra); err == nil {
						return time.Duration(secs) * time.Second, nil
					}
					if t, err := http.ParseTime(ra); err == nil {
						return time.Until(t), nil
					}
				}
			}
			return wait, nil
		}).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	return &Client{base: base, rc: rc, log: opts.Log}, nil
}

func (c *Client) BaseURL() *url.URL {
	u := *c.base
	return &u
}

func (c *Client) endpoint(path string) string {
	return c.base.String() + path
}

func (c *Client) FetchChapterListPage(ctx context.Context, novelID string, page int) (string, error) {
	op := fmt.Sprintf("chapter list page %d", page)

	resp, err := c.rc.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"novel_no": novelID,
			"sort":     "DOWN",
			"page":     strconv.Itoa(page),
		}).
		Post(c.endpoint("/proc/episode_list"))
	if err := checkResponse(op, resp, err); err != nil {
		return "", err
	}

	return resp.String(), nil
}

type viewerData struct {
	S *[]providers.PayloadItem `json:"s"`
}

func (c *Client) FetchChapterPayload(ctx context.Context, chapterID string) (*providers.Payload, error) {
	op := "chapter " + chapterID

	resp, err := c.rc.R().
		SetContext(ctx).
		Get(c.endpoint("/proc/viewer_data/" + url.PathEscape(chapterID)))
	if err := checkResponse(op, resp, err); err != nil {
		return nil, err
	}

	return decodePayload(op, resp.Body())
}

func decodePayload(op string, body []byte) (*providers.Payload, error) {
	var data viewerData
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, providers.NewError(providers.KindMalformed, op, fmt.Errorf("%w (body: %s)", err, preview(body)))
	}
	if data.S == nil {
		return nil, providers.NewError(providers.KindMalformed, op, fmt.Errorf("no content list in response (body: %s)", preview(body)))
	}

	return &providers.Payload{Items: *data.S}, nil
}

func (c *Client) FetchImage(ctx context.Context, imageURL string) ([]byte, error) {
	op := "image " + imageURL

	resp, err := c.rc.R().
		SetContext(ctx).
		SetHeader("Referer", c.base.String()).
		SetHeader("Accept", "image/avif,image/webp,image/apng,image/*,*/*;q=0.8").
		Get(imageURL)
	if err := checkResponse(op, resp, err); err != nil {
		return nil, err
	}

	body := resp.Body()
	if !filetype.IsImage(body) {
		return nil, providers.NewError(providers.KindMalformed, op,
			fmt.Errorf("body is not an image (%d bytes, content-type %q)", len(body), resp.Header().Get("Content-Type")))
	}

	return body, nil
}

func checkResponse(op string, resp *resty.Response, err error) error {
	if err != nil {
		return providers.NewError(providers.KindNetwork, op, err)
	}
	if !resp.IsSuccess() {
		return providers.NewError(providers.KindNetwork, op, fmt.Errorf("HTTP %s", resp.Status()))
	}
	return nil
}

func preview(b []byte) string {
	const n = 200
	s := string(b)
	if len(s) > n {
		s = s[:n] + "..."
	}
	return strconv.Quote(s)
}

// restyLogger routes resty's own messages to debug output.
type restyLogger struct {
	log Logger
}

func (l restyLogger) Errorf(format string, v ...any) { l.debugf("resty error: "+format, v...) }
func (l restyLogger) Warnf(format string, v ...any)  { l.debugf("resty warn: "+format, v...) }
func (l restyLogger) Debugf(format string, v ...any) { l.debugf(format, v...) }

func (l restyLogger) debugf(format string, v ...any) {
	if l.log != nil {
		l.log.Debugf(format, v...)
	}
}
