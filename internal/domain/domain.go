package domain

import (
	"errors"
	"maps"
	"strings"
	"time"
)

type ContentType string

const (
	ContentTypeYouTube ContentType = "youtube"
	ContentTypeWebsite ContentType = "website"
)

// Display returns the label shown to users for the content type.
func (t ContentType) Display() string {
	switch t {
	case ContentTypeYouTube:
		return "🎥 YouTube Video"
	case ContentTypeWebsite:
		return "🌐 Website Article"
	default:
		return "🔗 Unknown Content"
	}
}

// Short returns the one-word label used on metric cards.
func (t ContentType) Short() string {
	if t == ContentTypeYouTube {
		return "YouTube"
	}
	return "Website"
}

var ErrEmptyDocument = errors.New("document text is empty")

// Document is a single unit of extracted text.
type Document struct {
	Text     string
	Metadata map[string]string
}

// NewDocument rejects blank text so every Document carries usable content.
func NewDocument(text string, metadata map[string]string) (Document, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Document{}, ErrEmptyDocument
	}

	doc := Document{Text: text}
	if len(metadata) > 0 {
		doc.Metadata = make(map[string]string, len(metadata))
		for k, v := range maps.All(metadata) {
			if v = strings.TrimSpace(v); v != "" {
				doc.Metadata[k] = v
			}
		}
	}

	return doc, nil
}

// Title returns the document title metadata, if present.
func (d Document) Title() string {
	return d.Metadata["title"]
}

type SummaryResult struct {
	Summary         string
	DocumentCount   int
	Model           string
	WordCountTarget int
}

type TextMetrics struct {
	Words              int
	Characters         int
	CharactersNoSpaces int
	Sentences          int
	Paragraphs         int
}

type MetricCard struct {
	Icon  string
	Value string
	Label string
	Color string
}

// Outcome is everything a surface needs to render a successful request.
type Outcome struct {
	URL         string
	ContentType ContentType
	Result      SummaryResult
	Metrics     TextMetrics
	Cards       []MetricCard
	Elapsed     time.Duration
}
