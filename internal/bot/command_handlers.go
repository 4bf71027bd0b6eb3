package bot

import (
	"context"
	"strings"

	"contentsummarizer/internal/markdown"
)

const welcomeText = `🤖 *Welcome to Content Summarizer\!*

Send me a link and I will reply with a concise AI summary and a few text metrics\.

– 🎥 YouTube videos with captions
– 🌐 News articles, blog posts, documentation and other web pages

Use /help to see how it works\.`

const helpText = `🎯 *How It Works*

1\. 🔗 *Paste URL* – YouTube or article link
2\. ⚡ *AI Processing* – extract and analyze content
3\. 📊 *Get Summary* – key insights and main points

Only the first link of a message is processed\.`

func (b *Bot) handleStartCommand(chatID int64) error {
	return b.sendMessageWithKeyboard(chatID, welcomeText, b.menuKeyboard)
}

func (b *Bot) handleHelpCommand(chatID int64) error {
	return b.sendMessageWithKeyboard(chatID, helpText, nil)
}

func (b *Bot) handleUnknownText(ctx context.Context, chatID int64, text string) error {
	b.log.DebugContext(ctx, "Message has no URL",
		"chatID", chatID,
		"textLen", len(text))

	reply := "✖️ Send me a YouTube or website link starting with http:// or https://\\."
	if strings.HasPrefix(text, "/") {
		reply = "✖️ Unknown command " + markdown.EscapeV2(strings.Fields(text)[0]) + "\\. Try /help\\."
	}

	return b.sendMessageWithKeyboard(chatID, reply, nil)
}
