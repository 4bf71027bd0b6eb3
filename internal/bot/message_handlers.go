package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"contentsummarizer/internal/classifier"
	"contentsummarizer/internal/markdown"
	"contentsummarizer/internal/pipeline"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"mvdan.cc/xurls/v2"
)

//nolint:gochecknoglobals // Compiled once, read-only.
var linkRe = func() *regexp.Regexp {
	re, err := xurls.StrictMatchingScheme(`https?://`)
	if err != nil {
		panic(fmt.Sprintf("compile link regexp: %v", err))
	}
	return re
}()

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID

	text := strings.TrimSpace(message.Text)
	if text == "" {
		text = strings.TrimSpace(message.Caption)
	}

	switch {
	case isCommand(text, "/start"):
		b.record("start")
		return b.handleStartCommand(chatID)
	case isCommand(text, "/help"):
		b.record("help")
		return b.handleHelpCommand(chatID)
	}

	rawURL, ok := firstLink(text)
	if !ok {
		b.record("other")
		return b.handleUnknownText(ctx, chatID, text)
	}

	b.record("url")

	return b.withSpinner(ctx, chatID, func() error {
		return b.handleLink(ctx, chatID, rawURL)
	})
}

func (b *Bot) handleLink(ctx context.Context, chatID int64, rawURL string) error {
	progress := &progressMessage{bot: b, chatID: chatID}

	outcome, err := b.runner.RunObserved(ctx, rawURL, progress.update)
	if err != nil {
		status := pipeline.UserMessage(err)

		var validationErr *classifier.ValidationError
		if !errors.As(err, &validationErr) {
			b.log.ErrorContext(ctx, "Failed to summarize link",
				"error", err,
				"chatID", chatID,
				"url", rawURL)
		}

		return errors.Join(progress.err, b.sendChunks(chatID, []string{formatFailure(status)}))
	}

	b.log.InfoContext(ctx, "Link is summarized",
		"chatID", chatID,
		"url", rawURL,
		"contentType", outcome.ContentType,
		"elapsedMs", outcome.Elapsed.Milliseconds())

	return errors.Join(progress.err, b.sendChunks(chatID, formatOutcome(outcome)))
}

func (b *Bot) sendChunks(chatID int64, chunks []string) error {
	var errs []error

	for _, chunk := range chunks {
		if err := b.sendMessageWithKeyboard(chatID, chunk, nil); err != nil {
			errs = append(errs, fmt.Errorf("send message: %w", err))
		}
	}

	return errors.Join(errs...)
}

// progressMessage keeps one status message per request and edits it as the pipeline advances.
type progressMessage struct {
	bot       *Bot
	chatID    int64
	messageID int
	err       error
}

func (p *progressMessage) update(status pipeline.Status) {
	text := markdown.EscapeV2(status.Text)

	if p.messageID == 0 {
		sent, err := p.bot.rateLimiter.Send(p.bot.newMessage(p.chatID, text, nil))
		if err != nil {
			p.err = errors.Join(p.err, fmt.Errorf("send status: %w", err))
			return
		}
		p.messageID = sent.MessageID
		return
	}

	edit := tgbotapi.NewEditMessageText(p.chatID, p.messageID, text)
	edit.ParseMode = tgbotapi.ModeMarkdownV2

	if _, err := p.bot.rateLimiter.Send(edit); err != nil {
		p.err = errors.Join(p.err, fmt.Errorf("edit status: %w", err))
	}
}

func isCommand(text, command string) bool {
	return text == command ||
		strings.HasPrefix(text, command+" ") ||
		strings.HasPrefix(text, command+"@")
}

func firstLink(text string) (string, bool) {
	link := linkRe.FindString(text)
	return link, link != ""
}
