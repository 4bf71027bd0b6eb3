package summarizer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"contentsummarizer/internal/domain"

	"github.com/openai/openai-go/v3/option"
	"github.com/sony/gobreaker/v2"
)

const (
	DefaultModel           = "llama-3.1-8b-instant"
	DefaultWordCount       = 300
	DefaultMaxContentChars = 120_000

	documentSeparator = "\n\n"

	promptTemplate = "Provide a comprehensive and well-structured summary of the following content " +
		"in approximately {word_count} words. Focus on the main points, key insights, and important " +
		"details. Structure your response with clear paragraphs and maintain the most crucial " +
		"information while making it concise and readable.\n\nContent: {text}\n\nSummary:"

	breakerMinRequests  = 5
	breakerFailureRatio = 0.6
	breakerOpenTimeout  = 30 * time.Second
	breakerHalfOpenMax  = 1
)

var (
	ErrNoDocuments     = errors.New("no documents to summarize")
	ErrContentTooLarge = errors.New("content is too large to summarize")
	ErrUnavailable     = errors.New("summarization provider is temporarily unavailable")
	ErrMissingAPIKey   = errors.New("API key is required")
)

// Error is returned for every failed summarization.
type Error struct {
	Err error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// completer performs a single prompt round trip against the provider.
type completer interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

type Config struct {
	APIKey           string
	Model            string
	BaseURL          string
	DefaultWordCount int
	MaxContentChars  int
}

type Service struct {
	cfg       Config
	completer completer
	breaker   *gobreaker.CircuitBreaker[string]
	log       *slog.Logger

	requestOptions []option.RequestOption
}

type Option func(*Service)

// WithRequestOptions passes extra options to the provider client.
func WithRequestOptions(opts ...option.RequestOption) Option {
	return func(s *Service) {
		s.requestOptions = append(s.requestOptions, opts...)
	}
}

func withCompleter(c completer) Option {
	return func(s *Service) {
		s.completer = c
	}
}

func New(cfg Config, log *slog.Logger, opts ...Option) (*Service, error) {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.DefaultWordCount <= 0 {
		cfg.DefaultWordCount = DefaultWordCount
	}
	if cfg.MaxContentChars <= 0 {
		cfg.MaxContentChars = DefaultMaxContentChars
	}

	s := &Service{cfg: cfg, log: log}

	for _, opt := range opts {
		opt(s)
	}

	if s.completer == nil {
		s.completer = newGroqCompleter(cfg.APIKey, cfg.BaseURL, s.requestOptions...)
	}

	s.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "summarizer",
		MaxRequests: breakerHalfOpenMax,
		Timeout:     breakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < breakerMinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= breakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			// Cancelled or timed out requests say nothing about provider health.
			return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("Circuit breaker state is changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String())
		},
	})

	return s, nil
}

func (s *Service) Model() string {
	return s.cfg.Model
}

// Summarize sends the joined document texts to the provider in one request.
// wordCount <= 0 selects the configured default.
func (s *Service) Summarize(
	ctx context.Context,
	docs []domain.Document,
	wordCount int,
) (domain.SummaryResult, error) {
	if len(docs) == 0 {
		return domain.SummaryResult{}, &Error{Err: ErrNoDocuments}
	}
	if wordCount <= 0 {
		wordCount = s.cfg.DefaultWordCount
	}

	text := JoinDocuments(docs)
	if n := utf8.RuneCountInString(text); n > s.cfg.MaxContentChars {
		return domain.SummaryResult{}, &Error{
			Err: fmt.Errorf("%w: %d characters (limit %d)", ErrContentTooLarge, n, s.cfg.MaxContentChars),
		}
	}

	start := time.Now()

	summary, err := s.breaker.Execute(func() (string, error) {
		return s.completer.Complete(ctx, s.cfg.Model, BuildPrompt(text, wordCount))
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return domain.SummaryResult{}, &Error{Err: fmt.Errorf("%w: %w", ErrUnavailable, err)}
		}

		s.log.ErrorContext(ctx, "Failed to summarize content",
			"error", err,
			"model", s.cfg.Model,
			"textLen", len(text))

		return domain.SummaryResult{}, &Error{Err: err}
	}

	s.log.InfoContext(ctx, "Content is summarized",
		"model", s.cfg.Model,
		"documentCount", len(docs),
		"wordCount", wordCount,
		"durationMs", time.Since(start).Milliseconds())

	return domain.SummaryResult{
		Summary:         summary,
		DocumentCount:   len(docs),
		Model:           s.cfg.Model,
		WordCountTarget: wordCount,
	}, nil
}

// JoinDocuments concatenates document texts the way they are placed in the prompt.
func JoinDocuments(docs []domain.Document) string {
	texts := make([]string, 0, len(docs))
	for _, doc := range docs {
		texts = append(texts, doc.Text)
	}
	return strings.Join(texts, documentSeparator)
}

func BuildPrompt(text string, wordCount int) string {
	return strings.NewReplacer(
		"{word_count}", strconv.Itoa(wordCount),
		"{text}", text,
	).Replace(promptTemplate)
}
