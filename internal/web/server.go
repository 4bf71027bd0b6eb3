package web

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"

	"contentsummarizer/internal/classifier"
	"contentsummarizer/internal/domain"
	"contentsummarizer/internal/pipeline"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const maxFormBytes = 16 * 1024

// Runner is the part of the pipeline the web surface drives.
type Runner interface {
	RunObserved(ctx context.Context, rawURL string, observe pipeline.Observer) (domain.Outcome, error)
}

// Instrumentation wraps handlers with request metrics and serves the scrape endpoint.
type Instrumentation interface {
	Middleware(next http.Handler) http.Handler
	Handler() http.Handler
}

type Server struct {
	runner  Runner
	metrics Instrumentation
	model   string
	tmpl    *template.Template
	log     *slog.Logger
}

type pageData struct {
	URL       string
	Model     string
	Statuses  []pipeline.Status
	Outcome   *domain.Outcome
	ShowTips  bool
	TipsTitle string
	Tips      []pipeline.TipSection
}

func New(runner Runner, metrics Instrumentation, model string, log *slog.Logger) (*Server, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"paragraphs": paragraphs,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	return &Server{
		runner:  runner,
		metrics: metrics,
		model:   model,
		tmpl:    tmpl,
		log:     log,
	}, nil
}

func (s *Server) Handler() http.Handler {
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err) // embed layout is fixed at build time
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.index)
	mux.HandleFunc("POST /summarize", s.summarize)
	mux.HandleFunc("GET /healthz", s.healthz)
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(static)))

	if s.metrics == nil {
		return mux
	}

	mux.Handle("GET /metrics", s.metrics.Handler())
	return s.metrics.Middleware(mux)
}

func (s *Server) index(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, s.newPage(""))
}

func (s *Server) summarize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		s.log.WarnContext(r.Context(), "Failed to parse form",
			"error", err)

		page := s.newPage("")
		page.Statuses = []pipeline.Status{{Level: pipeline.LevelError, Text: "❌ Invalid request"}}
		s.render(w, r, http.StatusBadRequest, page)
		return
	}

	rawURL := r.PostFormValue("url")
	page := s.newPage(strings.TrimSpace(rawURL))

	outcome, err := s.runner.RunObserved(r.Context(), rawURL, func(st pipeline.Status) {
		page.Statuses = append(page.Statuses, st)
	})
	if err != nil {
		s.logFailure(r.Context(), rawURL, err)

		status := pipeline.UserMessage(err)
		page.Statuses = append(page.Statuses, status)
		page.ShowTips = status.ShowTips
		s.render(w, r, http.StatusOK, page)
		return
	}

	page.Outcome = &outcome
	s.render(w, r, http.StatusOK, page)
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) newPage(rawURL string) *pageData {
	return &pageData{
		URL:       rawURL,
		Model:     s.model,
		TipsTitle: pipeline.TipsTitle,
		Tips:      pipeline.Tips,
	}
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, page *pageData) {
	var buf bytes.Buffer
	if err := s.tmpl.ExecuteTemplate(&buf, "index.html", page); err != nil {
		s.log.ErrorContext(r.Context(), "Failed to render page",
			"error", err)

		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		s.log.WarnContext(r.Context(), "Failed to write page",
			"error", err)
	}
}

func (s *Server) logFailure(ctx context.Context, rawURL string, err error) {
	var validationErr *classifier.ValidationError
	if errors.As(err, &validationErr) {
		s.log.InfoContext(ctx, "URL is rejected",
			"reason", validationErr.Reason)
		return
	}

	s.log.ErrorContext(ctx, "Failed to summarize URL",
		"error", err,
		"url", rawURL)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// paragraphs splits summary text on blank lines for rendering.
func paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
