package util

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHuman(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{5 << 20, "5.00 MB"},
		{3 << 30, "3.00 GB"},
	}

	for _, tt := range tests {
		if got := Human(tt.in); got != tt.want {
			t.Errorf("Human(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCookieHeaderSorted(t *testing.T) {
	got := CookieHeader(map[string]string{"b": "2", "LOGINKEY": "abc", "a": "1"})
	want := "LOGINKEY=abc; a=1; b=2"
	if got != want {
		t.Errorf("CookieHeader = %q, want %q", got, want)
	}

	if CookieHeader(nil) != "" {
		t.Error("empty cookie set should render an empty header")
	}
}

func TestHTTPClientInjectsHeaders(t *testing.T) {
	var gotCookie, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCookie = r.Header.Get("Cookie")
		gotUA = r.Header.Get("User-Agent")
	}))
	defer srv.Close()

	client := NewHTTPClient(HTTPClientOptions{
		Timeout:   5 * time.Second,
		UserAgent: "novelpiad-test",
		Cookies:   map[string]string{"LOGINKEY": "secret"},
	})

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	resp.Body.Close()

	if gotCookie != "LOGINKEY=secret" {
		t.Errorf("Cookie header = %q", gotCookie)
	}
	if gotUA != "novelpiad-test" {
		t.Errorf("User-Agent = %q", gotUA)
	}
}

func TestPickUserAgent(t *testing.T) {
	if PickUserAgent("custom") != "custom" {
		t.Error("override should win")
	}
	if PickUserAgent("") == "" {
		t.Error("default user agent should not be empty")
	}
}
