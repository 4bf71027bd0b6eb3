package bot

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"contentsummarizer/internal/domain"
	"contentsummarizer/internal/markdown"
	"contentsummarizer/internal/pipeline"
)

const summaryHeader = "📋 *AI Summary*\n\n"

// formatOutcome renders the summary and analytics as one or more MarkdownV2 messages.
func formatOutcome(outcome domain.Outcome) []string {
	limit := markdown.MaxMessageLength - utf8.RuneCountInString(summaryHeader)

	chunks := markdown.Split(markdown.EscapeV2(outcome.Result.Summary), limit)
	if len(chunks) == 0 {
		chunks = []string{"_empty_"}
	}
	chunks[0] = summaryHeader + chunks[0]

	analytics := formatAnalytics(outcome.Cards)

	last := len(chunks) - 1
	if utf8.RuneCountInString(chunks[last])+2+utf8.RuneCountInString(analytics) <= markdown.MaxMessageLength {
		chunks[last] += "\n\n" + analytics
		return chunks
	}

	return append(chunks, analytics)
}

func formatAnalytics(cards []domain.MetricCard) string {
	var sb strings.Builder
	sb.WriteString("📊 *Summary Analytics*\n")

	for _, card := range cards {
		_, _ = fmt.Fprintf(&sb, "\n%s %s: *%s*",
			card.Icon,
			markdown.EscapeV2(card.Label),
			markdown.EscapeV2(card.Value))
	}

	return sb.String()
}

// formatFailure renders an error banner, with troubleshooting tips when the status asks for them.
func formatFailure(status pipeline.Status) string {
	var sb strings.Builder
	sb.WriteString(markdown.EscapeV2(status.Text))

	if !status.ShowTips {
		return sb.String()
	}

	_, _ = fmt.Fprintf(&sb, "\n\n*%s*", markdown.EscapeV2(pipeline.TipsTitle))

	for _, section := range pipeline.Tips {
		_, _ = fmt.Fprintf(&sb, "\n\n*%s*", markdown.EscapeV2(section.Title))
		for _, item := range section.Items {
			sb.WriteString("\n– ")
			sb.WriteString(markdown.EscapeV2(item))
		}
	}

	return sb.String()
}
