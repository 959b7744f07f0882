// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package scrape

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/edu-engine/internal/httputil"
	"github.com/pdiddy/edu-engine/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = time.Millisecond
}

func testCfg() types.ScrapeConfig {
	return types.ScrapeConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   10 * time.Second,
			UserAgent: "test/0.1",
		},
		MaxChars: 1000,
	}
}

const samplePage = `<!DOCTYPE html>
<html>
<head>
  <title>Photosynthesis - Overview</title>
  <style>body { color: red; }</style>
  <script>var tracked = true;</script>
</head>
<body>
  <h1>Photosynthesis</h1>
  <!-- navigation -->
  <p>Plants convert light   energy
  into chemical energy.</p>
  <noscript>Enable JavaScript.</noscript>
</body>
</html>`

func TestExtractText(t *testing.T) {
	title, text := ExtractText(samplePage)

	if title != "Photosynthesis - Overview" {
		t.Errorf("title = %q, want %q", title, "Photosynthesis - Overview")
	}
	want := "Photosynthesis Plants convert light energy into chemical energy."
	if text != want {
		t.Errorf("text = %q, want %q", text, want)
	}
}

func TestExtractTextSkipsInvisible(t *testing.T) {
	_, text := ExtractText(samplePage)

	for _, hidden := range []string{"tracked", "color: red", "Enable JavaScript", "navigation"} {
		if strings.Contains(text, hidden) {
			t.Errorf("text contains invisible content %q", hidden)
		}
	}
}

func TestScrape(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(samplePage))
	}))
	defer ts.Close()

	page, err := Scrape(context.Background(), ts.Client(), ts.URL, testCfg())
	if err != nil {
		t.Fatalf("Scrape() error = %v", err)
	}

	if page.Title != "Photosynthesis - Overview" {
		t.Errorf("Title = %q", page.Title)
	}
	if page.Truncated {
		t.Error("Truncated = true for short page")
	}
	if page.FetchedAt.IsZero() {
		t.Error("FetchedAt is zero")
	}
	if !strings.HasPrefix(gotUA, "Mozilla/5.0") {
		t.Errorf("User-Agent = %q, want a browser agent", gotUA)
	}
}

func TestScrapeTruncates(t *testing.T) {
	long := "<html><body><p>" + strings.Repeat("word ", 500) + "</p></body></html>"
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(long))
	}))
	defer ts.Close()

	cfg := testCfg()
	cfg.MaxChars = 100

	page, err := Scrape(context.Background(), ts.Client(), ts.URL, cfg)
	if err != nil {
		t.Fatalf("Scrape() error = %v", err)
	}
	if !page.Truncated {
		t.Error("Truncated = false, want true")
	}
	if got := len([]rune(page.Content)); got != 100 {
		t.Errorf("len(Content) = %d, want 100", got)
	}
}

func TestScrapeRejectsBadURLs(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"ftp scheme", "ftp://example.com/file"},
		{"file scheme", "file:///etc/passwd"},
		{"missing host", "https://"},
		{"relative path", "/just/a/path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Scrape(context.Background(), http.DefaultClient, tt.url, testCfg())
			if !errors.Is(err, ErrBadURL) {
				t.Errorf("Scrape(%q) returned %v, want ErrBadURL", tt.url, err)
			}
		})
	}
}

func TestScrapeReportsHTTPErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer ts.Close()

	_, err := Scrape(context.Background(), ts.Client(), ts.URL, testCfg())
	if err == nil {
		t.Fatal("Scrape() succeeded on HTTP 410")
	}
	if !strings.Contains(err.Error(), "410") {
		t.Errorf("error = %v, want status code in message", err)
	}
}

func TestScrapeRetriesRateLimit(t *testing.T) {
	var calls int
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(samplePage))
	}))
	defer ts.Close()

	page, err := Scrape(context.Background(), ts.Client(), ts.URL, testCfg())
	if err != nil {
		t.Fatalf("Scrape() error = %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if page.Content == "" {
		t.Error("Content is empty after retry")
	}
}
