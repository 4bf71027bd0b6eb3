package textstats

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"contentsummarizer/internal/domain"
)

const cardColor = "#00d4ff"

func Calculate(text string) domain.TextMetrics {
	return domain.TextMetrics{
		Words:              len(strings.Fields(text)),
		Characters:         utf8.RuneCountInString(text),
		CharactersNoSpaces: utf8.RuneCountInString(strings.ReplaceAll(text, " ", "")),
		Sentences:          countNonBlank(strings.Split(text, ".")),
		Paragraphs:         countNonBlank(strings.Split(text, "\n\n")),
	}
}

// Cards formats metrics in display order: words, characters, sentences, paragraphs.
func Cards(m domain.TextMetrics) []domain.MetricCard {
	return []domain.MetricCard{
		{Icon: "📝", Value: strconv.Itoa(m.Words), Label: "Words", Color: cardColor},
		{Icon: "⚡", Value: strconv.Itoa(m.Characters), Label: "Characters", Color: cardColor},
		{Icon: "📄", Value: strconv.Itoa(m.Sentences), Label: "Sentences", Color: cardColor},
		{Icon: "📋", Value: strconv.Itoa(m.Paragraphs), Label: "Paragraphs", Color: cardColor},
	}
}

// Truncate shortens text to at most maxRunes, cutting at the last space and adding "...".
func Truncate(text string, maxRunes int) string {
	maxRunes = max(maxRunes, 0)

	runes := []rune(text)
	if len(runes) <= maxRunes {
		return text
	}

	cut := string(runes[:maxRunes])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}

	return cut + "..."
}

func countNonBlank(parts []string) int {
	n := 0
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			n++
		}
	}
	return n
}
