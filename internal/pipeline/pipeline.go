package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"contentsummarizer/internal/classifier"
	"contentsummarizer/internal/domain"
	"contentsummarizer/internal/loader"
	"contentsummarizer/internal/summarizer"
	"contentsummarizer/internal/telemetry"
	"contentsummarizer/internal/textstats"
)

const (
	DefaultTimeout = 30 * time.Second

	summaryPreviewRunes = 120
)

// ErrEmptyContent means the page loaded fine but held no usable text.
var ErrEmptyContent = errors.New("no content was extracted from the URL")

type Loader interface {
	Load(ctx context.Context, rawURL string, contentType domain.ContentType) ([]domain.Document, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, docs []domain.Document, wordCount int) (domain.SummaryResult, error)
}

// Recorder receives per-run measurements. *telemetry.Metrics implements it.
type Recorder interface {
	RecordRun(contentType domain.ContentType, outcome string)
	ObserveStage(stage string, contentType domain.ContentType, d time.Duration)
}

// Observer is called with each progress status of a run, in order.
type Observer func(Status)

type Config struct {
	WordCount int
	Timeout   time.Duration
}

type Pipeline struct {
	cfg        Config
	loader     Loader
	summarizer Summarizer
	recorder   Recorder
	log        *slog.Logger
}

func New(
	cfg Config,
	l Loader,
	s Summarizer,
	recorder Recorder,
	log *slog.Logger,
) *Pipeline {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Pipeline{
		cfg:        cfg,
		loader:     l,
		summarizer: s,
		recorder:   recorder,
		log:        log,
	}
}

// Run classifies, loads and summarizes rawURL.
func (p *Pipeline) Run(ctx context.Context, rawURL string) (domain.Outcome, error) {
	return p.RunObserved(ctx, rawURL, nil)
}

// RunObserved is Run with progress statuses reported to observe.
func (p *Pipeline) RunObserved(
	ctx context.Context,
	rawURL string,
	observe Observer,
) (domain.Outcome, error) {
	if observe == nil {
		observe = func(Status) {}
	}

	start := time.Now()

	rawURL = strings.TrimSpace(rawURL)

	contentType, err := classifier.Classify(rawURL)
	if err != nil {
		p.record("", telemetry.OutcomeValidation)
		return domain.Outcome{}, fmt.Errorf("classify URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.Timeout)
	defer cancel()

	observe(LoadingStatus(contentType))

	loadStart := time.Now()
	docs, err := p.loader.Load(ctx, rawURL, contentType)
	p.observeStage(telemetry.StageLoad, contentType, time.Since(loadStart))
	if err != nil {
		p.record(contentType, loadOutcome(err))
		return domain.Outcome{}, fmt.Errorf("load content: %w", err)
	}

	if !loader.HasContent(docs) {
		p.record(contentType, telemetry.OutcomeEmpty)
		p.log.WarnContext(ctx, "No content is extracted",
			"url", rawURL,
			"contentType", contentType,
			"documentCount", len(docs))

		return domain.Outcome{}, ErrEmptyContent
	}

	observe(AnalyzingStatus())

	summarizeStart := time.Now()
	result, err := p.summarizer.Summarize(ctx, docs, p.cfg.WordCount)
	p.observeStage(telemetry.StageSummarize, contentType, time.Since(summarizeStart))
	if err != nil {
		p.record(contentType, summarizeOutcome(err))
		return domain.Outcome{}, fmt.Errorf("summarize content: %w", err)
	}

	observe(SuccessStatus())
	p.record(contentType, telemetry.OutcomeSuccess)

	metrics := textstats.Calculate(result.Summary)

	outcome := domain.Outcome{
		URL:         rawURL,
		ContentType: contentType,
		Result:      result,
		Metrics:     metrics,
		Cards:       displayCards(result, contentType, metrics),
		Elapsed:     time.Since(start),
	}

	p.log.InfoContext(ctx, "Pipeline is completed",
		"url", rawURL,
		"contentType", contentType,
		"documentCount", result.DocumentCount,
		"summaryWords", metrics.Words,
		"summaryPreview", textstats.Truncate(result.Summary, summaryPreviewRunes),
		"elapsedMs", outcome.Elapsed.Milliseconds())

	return outcome, nil
}

// loadOutcome and summarizeOutcome count errors of unknown kinds as unexpected.
func loadOutcome(err error) string {
	var loadErr *loader.LoadError
	if errors.As(err, &loadErr) {
		return telemetry.OutcomeLoad
	}
	return telemetry.OutcomeUnexpected
}

func summarizeOutcome(err error) string {
	var summarizeErr *summarizer.Error
	if errors.As(err, &summarizeErr) {
		return telemetry.OutcomeSummarize
	}
	return telemetry.OutcomeUnexpected
}

func (p *Pipeline) record(contentType domain.ContentType, outcome string) {
	if p.recorder != nil {
		p.recorder.RecordRun(contentType, outcome)
	}
}

func (p *Pipeline) observeStage(stage string, contentType domain.ContentType, d time.Duration) {
	if p.recorder != nil {
		p.recorder.ObserveStage(stage, contentType, d)
	}
}

// displayCards lays out documents, content type, words and characters.
func displayCards(
	result domain.SummaryResult,
	contentType domain.ContentType,
	metrics domain.TextMetrics,
) []domain.MetricCard {
	typeIcon := "🌐"
	if contentType == domain.ContentTypeYouTube {
		typeIcon = "🎥"
	}

	stats := textstats.Cards(metrics)

	return []domain.MetricCard{
		{Icon: "📄", Value: strconv.Itoa(result.DocumentCount), Label: "Documents", Color: stats[0].Color},
		{Icon: typeIcon, Value: contentType.Short(), Label: "Content Type", Color: stats[0].Color},
		stats[0],
		stats[1],
	}
}
