package pipeline

import (
	"errors"

	"contentsummarizer/internal/classifier"
	"contentsummarizer/internal/domain"
	"contentsummarizer/internal/loader"
	"contentsummarizer/internal/summarizer"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Status is a single banner shown to the user.
type Status struct {
	Level    Level
	Text     string
	ShowTips bool
}

const (
	emptyContentText = "❌ No content was extracted from the URL. " +
		"Please check if the URL contains accessible text content."
	processingErrorPrefix = "❌ An error occurred while processing your request: "
	unexpectedErrorText   = "❌ An unexpected error occurred while processing your request"
)

// TipSection is a titled group of troubleshooting hints.
type TipSection struct {
	Title string
	Items []string
}

const TipsTitle = "🔧 Troubleshooting Tips"

var Tips = []TipSection{
	{
		Title: "Common Solutions:",
		Items: []string{
			"🔄 Refresh and try again",
			"🌐 Check your internet connection",
			"🔗 Verify the URL is correct and accessible",
			"📹 For YouTube: Ensure video has captions",
			"🏠 For websites: Some may block automated access",
		},
	},
	{
		Title: "Still having issues?",
		Items: []string{
			"Try a different URL",
			"Contact support if problem persists",
		},
	},
}

func LoadingStatus(contentType domain.ContentType) Status {
	return Status{Level: LevelInfo, Text: "📥 Loading " + contentType.Display() + " Content..."}
}

func AnalyzingStatus() Status {
	return Status{Level: LevelInfo, Text: "🧠 AI is analyzing and generating your summary..."}
}

func SuccessStatus() Status {
	return Status{Level: LevelSuccess, Text: "✅ Summary Generated Successfully!"}
}

// UserMessage maps a Run error to the banner shown in its place.
// The cause of an unexpected error is never part of the text.
func UserMessage(err error) Status {
	var validationErr *classifier.ValidationError
	if errors.As(err, &validationErr) {
		return Status{Level: LevelError, Text: "❌ " + validationErr.Error()}
	}

	if errors.Is(err, ErrEmptyContent) {
		return Status{Level: LevelError, Text: emptyContentText, ShowTips: true}
	}

	var loadErr *loader.LoadError
	if errors.As(err, &loadErr) {
		return Status{Level: LevelError, Text: processingErrorPrefix + loadErr.Error(), ShowTips: true}
	}

	var summarizeErr *summarizer.Error
	if errors.As(err, &summarizeErr) {
		return Status{Level: LevelError, Text: processingErrorPrefix + summarizeErr.Error(), ShowTips: true}
	}

	return Status{Level: LevelError, Text: unexpectedErrorText, ShowTips: true}
}
