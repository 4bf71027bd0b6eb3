package markdown_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"contentsummarizer/internal/markdown"
)

func TestEscapeV2(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"Hello world.", `Hello world\.`},
		{"a_b*c[d](e)", `a\_b\*c\[d\]\(e\)`},
		{"1+1=2 > 1!", `1\+1\=2 \> 1\!`},
		{`back\slash`, `back\\slash`},
		{"🎥 YouTube #1 - ok", `🎥 YouTube \#1 \- ok`},
	}

	for _, tc := range cases {
		if got := markdown.EscapeV2(tc.in); got != tc.want {
			t.Fatalf("EscapeV2(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSplitShortText(t *testing.T) {
	got := markdown.Split("  short  ", 100)
	if len(got) != 1 || got[0] != "short" {
		t.Fatalf("unexpected chunks: %q", got)
	}

	if got := markdown.Split("   ", 100); len(got) != 0 {
		t.Fatalf("expected no chunks for blank text, got %q", got)
	}
}

func TestSplitPrefersParagraphs(t *testing.T) {
	text := strings.Repeat("a", 30) + "\n\n" + strings.Repeat("b", 30) + " " + strings.Repeat("c", 10)

	got := markdown.Split(text, 50)

	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %q", len(got), got)
	}
	if got[0] != strings.Repeat("a", 30) {
		t.Fatalf("unexpected first chunk: %q", got[0])
	}
	if got[1] != strings.Repeat("b", 30)+" "+strings.Repeat("c", 10) {
		t.Fatalf("unexpected second chunk: %q", got[1])
	}
}

func TestSplitRespectsLimit(t *testing.T) {
	text := strings.Repeat("слово ", 2000)

	chunks := markdown.Split(text, markdown.MaxMessageLength)
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}

	var rebuilt []string
	for _, c := range chunks {
		if n := utf8.RuneCountInString(c); n > markdown.MaxMessageLength {
			t.Fatalf("chunk of %d runes exceeds limit", n)
		}
		rebuilt = append(rebuilt, c)
	}

	if strings.Join(rebuilt, " ") != strings.TrimSpace(text) {
		t.Fatalf("chunks do not rebuild the original text")
	}
}

func TestSplitKeepsEscapesTogether(t *testing.T) {
	text := strings.Repeat("x", 9) + `\.` + strings.Repeat("y", 5)

	got := markdown.Split(text, 10)

	for _, c := range got {
		trailing := len(c) - len(strings.TrimRight(c, `\`))
		if trailing%2 == 1 {
			t.Fatalf("chunk ends in a dangling escape: %q", c)
		}
	}
	if strings.Join(got, "") != text {
		t.Fatalf("chunks do not rebuild the original text: %q", got)
	}
}
