package summarizer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"contentsummarizer/internal/domain"
)

type stubCompleter struct {
	calls   int
	prompts []string
	models  []string
	out     string
	err     error
}

func (s *stubCompleter) Complete(_ context.Context, model, prompt string) (string, error) {
	s.calls++
	s.models = append(s.models, model)
	s.prompts = append(s.prompts, prompt)
	return s.out, s.err
}

func newTestService(t *testing.T, cfg Config, c completer) *Service {
	t.Helper()

	if cfg.APIKey == "" {
		cfg.APIKey = "test-key"
	}

	s, err := New(cfg, slog.Default(), withCompleter(c))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return s
}

func docs(texts ...string) []domain.Document {
	out := make([]domain.Document, 0, len(texts))
	for _, text := range texts {
		out = append(out, domain.Document{Text: text})
	}
	return out
}

func TestNewRequiresAPIKey(t *testing.T) {
	for _, key := range []string{"", "   "} {
		if _, err := New(Config{APIKey: key}, slog.Default()); !errors.Is(err, ErrMissingAPIKey) {
			t.Fatalf("New(%q) error = %v, want ErrMissingAPIKey", key, err)
		}
	}
}

func TestSummarizeSuccess(t *testing.T) {
	stub := &stubCompleter{out: "A short summary."}
	s := newTestService(t, Config{}, stub)

	res, err := s.Summarize(context.Background(), docs("first part", "second part"), 150)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if stub.calls != 1 {
		t.Fatalf("expected 1 provider call, got %d", stub.calls)
	}
	if res.Summary != "A short summary." || res.DocumentCount != 2 ||
		res.Model != DefaultModel || res.WordCountTarget != 150 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if stub.models[0] != DefaultModel {
		t.Fatalf("unexpected model: %q", stub.models[0])
	}

	prompt := stub.prompts[0]
	for _, part := range []string{"approximately 150 words", "Content: first part\n\nsecond part\n\nSummary:"} {
		if !strings.Contains(prompt, part) {
			t.Fatalf("expected %q in prompt %q", part, prompt)
		}
	}
}

func TestSummarizeDefaultWordCount(t *testing.T) {
	cases := []struct {
		name      string
		cfgCount  int
		arg       int
		wantCount int
	}{
		{"zero uses built-in default", 0, 0, DefaultWordCount},
		{"negative uses configured default", 120, -5, 120},
		{"explicit count wins", 120, 80, 80},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubCompleter{out: "ok"}
			s := newTestService(t, Config{DefaultWordCount: tc.cfgCount}, stub)

			res, err := s.Summarize(context.Background(), docs("text"), tc.arg)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.WordCountTarget != tc.wantCount {
				t.Fatalf("WordCountTarget = %d, want %d", res.WordCountTarget, tc.wantCount)
			}
		})
	}
}

func TestSummarizeRejectsBeforeProviderCall(t *testing.T) {
	cases := []struct {
		name    string
		docs    []domain.Document
		wantErr error
	}{
		{"no documents", nil, ErrNoDocuments},
		{"too large", docs(strings.Repeat("é", 11)), ErrContentTooLarge},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			stub := &stubCompleter{out: "unused"}
			s := newTestService(t, Config{MaxContentChars: 10}, stub)

			_, err := s.Summarize(context.Background(), tc.docs, 0)

			var sumErr *Error
			if !errors.As(err, &sumErr) {
				t.Fatalf("expected *Error, got %v", err)
			}
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("expected %v, got %v", tc.wantErr, err)
			}
			if stub.calls != 0 {
				t.Fatalf("expected no provider calls, got %d", stub.calls)
			}
		})
	}
}

func TestSummarizeAtContentLimit(t *testing.T) {
	stub := &stubCompleter{out: "ok"}
	s := newTestService(t, Config{MaxContentChars: 10}, stub)

	if _, err := s.Summarize(context.Background(), docs(strings.Repeat("é", 10)), 0); err != nil {
		t.Fatalf("expected content at the limit to pass, got %v", err)
	}
}

func TestSummarizeProviderError(t *testing.T) {
	providerErr := errors.New("rate limit exceeded")
	stub := &stubCompleter{err: providerErr}
	s := newTestService(t, Config{}, stub)

	_, err := s.Summarize(context.Background(), docs("text"), 0)

	var sumErr *Error
	if !errors.As(err, &sumErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !errors.Is(err, providerErr) || err.Error() != "rate limit exceeded" {
		t.Fatalf("expected provider message to be kept, got %v", err)
	}
}

func TestSummarizeBreakerOpens(t *testing.T) {
	stub := &stubCompleter{err: errors.New("bad gateway")}
	s := newTestService(t, Config{}, stub)

	for range breakerMinRequests {
		_, _ = s.Summarize(context.Background(), docs("text"), 0)
	}

	_, err := s.Summarize(context.Background(), docs("text"), 0)
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if stub.calls != breakerMinRequests {
		t.Fatalf("expected %d provider calls, got %d", breakerMinRequests, stub.calls)
	}
}

func TestSummarizeCancelledRequestsKeepBreakerClosed(t *testing.T) {
	stub := &stubCompleter{err: context.Canceled}
	s := newTestService(t, Config{}, stub)

	for range breakerMinRequests + 2 {
		_, _ = s.Summarize(context.Background(), docs("text"), 0)
	}

	if stub.calls != breakerMinRequests+2 {
		t.Fatalf("expected every request to reach the provider, got %d calls", stub.calls)
	}
}

func TestBuildPrompt(t *testing.T) {
	got := BuildPrompt("Body {word_count}", 42)

	if !strings.HasPrefix(got, "Provide a comprehensive and well-structured summary of the following content in approximately 42 words.") {
		t.Fatalf("unexpected prompt head: %q", got)
	}
	if !strings.HasSuffix(got, "\n\nContent: Body {word_count}\n\nSummary:") {
		t.Fatalf("expected text to be inserted verbatim, got %q", got)
	}
}

func TestGroqCompleterAgainstFakeEndpoint(t *testing.T) {
	var gotPath, gotAuth, gotModel, gotPrompt string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		var body struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotModel = body.Model
		if len(body.Messages) == 1 {
			gotPrompt = body.Messages[0].Content
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "llama-3.1-8b-instant",
			"choices": [{
				"index": 0,
				"finish_reason": "stop",
				"message": {"role": "assistant", "content": "  Summary from Groq.  "}
			}]
		}`))
	}))
	defer srv.Close()

	s, err := New(Config{APIKey: "gsk_test", BaseURL: srv.URL + "/openai/v1"}, slog.Default())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	res, err := s.Summarize(context.Background(), docs("Article body."), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if res.Summary != "Summary from Groq." {
		t.Fatalf("unexpected summary: %q", res.Summary)
	}
	if gotPath != "/openai/v1/chat/completions" {
		t.Fatalf("unexpected path: %q", gotPath)
	}
	if gotAuth != "Bearer gsk_test" {
		t.Fatalf("unexpected authorization: %q", gotAuth)
	}
	if gotModel != DefaultModel {
		t.Fatalf("unexpected model: %q", gotModel)
	}
	if !strings.Contains(gotPrompt, "Content: Article body.") {
		t.Fatalf("unexpected prompt: %q", gotPrompt)
	}
}

func TestGroqCompleterProviderFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid API Key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	s, err := New(Config{APIKey: "bad", BaseURL: srv.URL}, slog.Default())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	_, err = s.Summarize(context.Background(), docs("text"), 0)

	var sumErr *Error
	if !errors.As(err, &sumErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected status in error, got %q", err.Error())
	}
}
