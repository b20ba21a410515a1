package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) error {
	chatID := message.Chat.ID

	return b.withSpinner(ctx, chatID, func() error {
		switch command := strings.ToLower(message.Command()); command {
		case "start":
			return b.handleStartCommand(ctx, chatID)
		case "menu":
			return b.handleMenuCommand(ctx, chatID)
		case "jobs":
			return b.handleJobsCommand(ctx, chatID)
		case "more":
			return b.handleMoreCommand(ctx, chatID)
		case "bookmarks":
			return b.handleBookmarksCommand(ctx, chatID)
		default:
			return b.sendMessageWithKeyboard(ctx, chatID,
				"🤷 I only understand commands\\. Try /jobs or /bookmarks\\.",
				b.menuKeyboard)
		}
	})
}
