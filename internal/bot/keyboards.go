package bot

import (
	"context"
	"strconv"
	"strings"

	"jobsportal/internal/domain"
	"jobsportal/internal/markdown"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const (
	callbackMenu           = "menu"
	callbackMenuJobs       = "menu_jobs"
	callbackMenuBookmarks  = "menu_bookmarks"
	callbackMore           = "more"
	callbackRetry          = "retry"
	callbackJobPrefix      = "job_"
	callbackBookmarkPrefix = "bm_"

	maxButtonTextRunes = 48
)

func (b *Bot) sendMessageWithKeyboard(
	ctx context.Context,
	chatID int64,
	text string,
	keyboard [][]tgbotapi.InlineKeyboardButton,
) error {
	normalizedText := strings.ToValidUTF8(text, "?")
	if normalizedText != text {
		b.log.WarnContext(ctx, "Message text had invalid UTF-8 and was normalized",
			"chatID", chatID,
			"originalLen", len(text),
			"normalizedLen", len(normalizedText))
	}

	message := tgbotapi.NewMessage(chatID, normalizedText)

	// See https://core.telegram.org/bots/api#markdownv2-style.
	message.ParseMode = tgbotapi.ModeMarkdownV2

	message.DisableWebPagePreview = true
	if len(keyboard) > 0 {
		message.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	}

	_, err := b.rateLimiter.Send(ctx, message)
	return err
}

func (b *Bot) editKeyboard(
	ctx context.Context,
	chatID int64,
	messageID int,
	keyboard [][]tgbotapi.InlineKeyboardButton,
) error {
	edit := tgbotapi.NewEditMessageReplyMarkup(chatID, messageID, tgbotapi.NewInlineKeyboardMarkup(keyboard...))

	_, err := b.rateLimiter.Send(ctx, edit)
	return err
}

func getReturnKeyboard() [][]tgbotapi.InlineKeyboardButton {
	return [][]tgbotapi.InlineKeyboardButton{
		{tgbotapi.NewInlineKeyboardButtonData("⬅️ Return to menu", callbackMenu)},
	}
}

func getMenuKeyboard() [][]tgbotapi.InlineKeyboardButton {
	return [][]tgbotapi.InlineKeyboardButton{
		{
			tgbotapi.NewInlineKeyboardButtonData("💼 Jobs", callbackMenuJobs),
			tgbotapi.NewInlineKeyboardButtonData("⭐ Bookmarks", callbackMenuBookmarks),
		},
	}
}

// jobListKeyboard has one details button per job, then the paging row.
func jobListKeyboard(jobs []domain.Job, paging []tgbotapi.InlineKeyboardButton) [][]tgbotapi.InlineKeyboardButton {
	keyboard := make([][]tgbotapi.InlineKeyboardButton, 0, len(jobs)+2)

	for _, job := range jobs {
		keyboard = append(keyboard, []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(buttonText(jobTitle(job)), callbackJobPrefix+string(job.ID)),
		})
	}

	if len(paging) > 0 {
		keyboard = append(keyboard, paging)
	}

	return append(keyboard, getReturnKeyboard()...)
}

func moreRow() []tgbotapi.InlineKeyboardButton {
	return []tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardButtonData("⏬ Load more", callbackMore),
	}
}

func retryKeyboard() [][]tgbotapi.InlineKeyboardButton {
	return append([][]tgbotapi.InlineKeyboardButton{
		{tgbotapi.NewInlineKeyboardButtonData("🔁 Retry", callbackRetry)},
	}, getReturnKeyboard()...)
}

func detailsKeyboard(id domain.JobID, bookmarked bool) [][]tgbotapi.InlineKeyboardButton {
	label := "☆ Bookmark"
	if bookmarked {
		label = "★ Remove bookmark"
	}

	return append([][]tgbotapi.InlineKeyboardButton{
		{tgbotapi.NewInlineKeyboardButtonData(label, callbackBookmarkPrefix+string(id))},
	}, getReturnKeyboard()...)
}

func buttonText(text string) string {
	runes := []rune(text)
	if len(runes) <= maxButtonTextRunes {
		return text
	}

	return strings.TrimSpace(string(runes[:maxButtonTextRunes-1])) + "…"
}

func jobTitle(job domain.Job) string {
	if title := job.Title(); title != "" {
		return title
	}

	return "Job " + string(job.ID)
}

// jobLine renders one list row: title, place and salary, with a star for
// bookmarked jobs.
func jobLine(index int, job domain.Job, bookmarked bool) string {
	var sb strings.Builder

	sb.WriteString(markdown.EscapeV2(strconv.Itoa(index) + ". "))
	if bookmarked {
		sb.WriteString("⭐ ")
	}
	sb.WriteString(markdown.Bold(jobTitle(job)))

	var extra []string
	for _, path := range []string{"primary_details.Place", "primary_details.Salary"} {
		if v := strings.TrimSpace(job.Field(path).String()); v != "" {
			extra = append(extra, v)
		}
	}
	if len(extra) > 0 {
		sb.WriteString("\n")
		sb.WriteString(markdown.EscapeV2(strings.Join(extra, " · ")))
	}

	return sb.String()
}
