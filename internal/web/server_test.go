package web_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"contentsummarizer/internal/domain"
	"contentsummarizer/internal/pipeline"
	"contentsummarizer/internal/telemetry"
	"contentsummarizer/internal/web"
)

type stubLoader struct {
	docs []domain.Document
	err  error
}

func (s *stubLoader) Load(context.Context, string, domain.ContentType) ([]domain.Document, error) {
	return s.docs, s.err
}

type stubSummarizer struct {
	calls   int
	summary string
}

func (s *stubSummarizer) Summarize(_ context.Context, docs []domain.Document, wordCount int) (domain.SummaryResult, error) {
	s.calls++
	return domain.SummaryResult{
		Summary:         s.summary,
		DocumentCount:   len(docs),
		WordCountTarget: wordCount,
	}, nil
}

func newTestServer(t *testing.T, l pipeline.Loader, s pipeline.Summarizer) *httptest.Server {
	t.Helper()

	p := pipeline.New(pipeline.Config{}, l, s, nil, slog.Default())

	srv, err := web.New(p, telemetry.New(), "llama-3.1-8b-instant", slog.Default())
	if err != nil {
		t.Fatalf("web.New() error: %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()

	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func postURL(t *testing.T, ts *httptest.Server, rawURL string) (int, string) {
	t.Helper()

	resp, err := http.PostForm(ts.URL+"/summarize", url.Values{"url": {rawURL}})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	return resp.StatusCode, readBody(t, resp)
}

func TestIndexRendersForm(t *testing.T) {
	ts := newTestServer(t, &stubLoader{}, &stubSummarizer{})

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %d", resp.StatusCode)
	}
	for _, want := range []string{`name="url"`, "🚀 Generate AI Summary", "🎯 How It Works"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in page", want)
		}
	}
	if strings.Contains(body, "status-error") {
		t.Fatalf("expected no banners on first load")
	}
}

func TestSummarizeRejectsInvalidURL(t *testing.T) {
	s := &stubSummarizer{}
	ts := newTestServer(t, &stubLoader{}, s)

	code, body := postURL(t, ts, "not a url")

	if code != http.StatusOK {
		t.Fatalf("unexpected status: %d", code)
	}
	if !strings.Contains(body, "❌ Invalid URL format") {
		t.Fatalf("expected format banner, got %s", body)
	}
	if strings.Contains(body, "🔧 Troubleshooting Tips") {
		t.Fatalf("expected no tips for a validation error")
	}
	if s.calls != 0 {
		t.Fatalf("expected no summarizer calls")
	}
}

func TestSummarizeEmptyContentShowsTips(t *testing.T) {
	s := &stubSummarizer{}
	ts := newTestServer(t, &stubLoader{}, s)

	_, body := postURL(t, ts, "https://example.com/blank")

	for _, want := range []string{
		"📥 Loading 🌐 Website Article Content...",
		"❌ No content was extracted from the URL.",
		"🔧 Troubleshooting Tips",
		"📹 For YouTube: Ensure video has captions",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in page", want)
		}
	}
	if s.calls != 0 {
		t.Fatalf("expected no summarizer calls")
	}
}

func TestSummarizeUnexpectedErrorHidesCause(t *testing.T) {
	ts := newTestServer(t, &stubLoader{err: errors.New("db password leaked")}, &stubSummarizer{})

	_, body := postURL(t, ts, "https://example.com")

	if !strings.Contains(body, "❌ An unexpected error occurred while processing your request") {
		t.Fatalf("expected unexpected-error banner")
	}
	if strings.Contains(body, "db password leaked") {
		t.Fatalf("cause leaked into page")
	}
}

func TestSummarizeSuccessEscapesSummary(t *testing.T) {
	l := &stubLoader{docs: []domain.Document{{Text: "Body"}}}
	s := &stubSummarizer{summary: "First <script>alert(1)</script> point.\n\nSecond point."}
	ts := newTestServer(t, l, s)

	_, body := postURL(t, ts, "https://example.com/article")

	if strings.Contains(body, "<script>alert(1)</script>") {
		t.Fatalf("summary was rendered unescaped")
	}
	for _, want := range []string{
		"✅ Summary Generated Successfully!",
		"&lt;script&gt;",
		"<p>Second point.</p>",
		"Content Type",
		"Website",
		"Documents",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in page", want)
		}
	}
}

func TestHealthzAndMetrics(t *testing.T) {
	ts := newTestServer(t, &stubLoader{}, &stubSummarizer{})

	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("get healthz: %v", err)
	}
	if body := readBody(t, resp); strings.TrimSpace(body) != `{"status":"ok"}` {
		t.Fatalf("unexpected healthz body: %q", body)
	}

	resp, err = http.Get(ts.URL + "/metrics")
	if err != nil {
		t.Fatalf("get metrics: %v", err)
	}
	if body := readBody(t, resp); !strings.Contains(body, "summarizer_http_requests_total") {
		t.Fatalf("expected HTTP metrics in scrape")
	}
}

func TestStaticStylesheet(t *testing.T) {
	ts := newTestServer(t, &stubLoader{}, &stubSummarizer{})

	resp, err := http.Get(ts.URL + "/static/style.css")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	body := readBody(t, resp)

	if resp.StatusCode != http.StatusOK || !strings.Contains(body, ".summary-card") {
		t.Fatalf("unexpected stylesheet response: %d", resp.StatusCode)
	}
}
