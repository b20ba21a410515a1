package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"jobsportal/internal/bookmark"
	"jobsportal/internal/domain"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func (b *Bot) handleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) error {
	chatID := callback.Message.Chat.ID

	return b.withSpinner(ctx, chatID, func() error {
		data := strings.TrimSpace(callback.Data)

		switch data {
		case callbackMenu:
			return b.withEmptyCallbackAnswer(callback, func() error {
				return b.handleMenuCommand(ctx, chatID)
			})
		case callbackMenuJobs:
			return b.withEmptyCallbackAnswer(callback, func() error {
				return b.handleJobsCommand(ctx, chatID)
			})
		case callbackMenuBookmarks:
			return b.withEmptyCallbackAnswer(callback, func() error {
				return b.handleBookmarksCommand(ctx, chatID)
			})
		case callbackMore, callbackRetry:
			return b.withEmptyCallbackAnswer(callback, func() error {
				return b.handleMoreCommand(ctx, chatID)
			})
		}

		if id, ok := strings.CutPrefix(data, callbackJobPrefix); ok {
			return b.handleJobDetailsQuery(ctx, domain.JobID(strings.TrimSpace(id)), callback)
		}

		if id, ok := strings.CutPrefix(data, callbackBookmarkPrefix); ok {
			return b.handleBookmarkQuery(ctx, domain.JobID(strings.TrimSpace(id)), callback)
		}

		return b.withEmptyCallbackAnswer(callback, func() error { return nil })
	})
}

// findJob looks in the chat's feed first, then in the bookmarks.
func (b *Bot) findJob(chatID int64, id domain.JobID) (domain.Job, bool) {
	if s, ok := b.existingSession(chatID); ok {
		if job, found := s.paginator.Find(id); found {
			return job, true
		}
	}

	return b.bookmarks.Get(id)
}

func (b *Bot) handleJobDetailsQuery(
	ctx context.Context,
	id domain.JobID,
	callback *tgbotapi.CallbackQuery,
) error {
	chatID := callback.Message.Chat.ID

	job, ok := b.findJob(chatID, id)
	if !ok {
		return b.answerCallback(callback, "✖️ Job is no longer available.")
	}

	return b.withEmptyCallbackAnswer(callback, func() error {
		details := b.views.Build(ctx, job)
		bookmarked := b.bookmarks.IsBookmarked(id)

		err := b.sendMessageWithKeyboard(ctx, chatID,
			formatDetails(details, bookmarked),
			detailsKeyboard(id, bookmarked))

		b.maybePrefetch(ctx, chatID, id)

		return err
	})
}

// handleBookmarkQuery toggles the job and redraws the button it came from.
func (b *Bot) handleBookmarkQuery(
	ctx context.Context,
	id domain.JobID,
	callback *tgbotapi.CallbackQuery,
) error {
	chatID := callback.Message.Chat.ID

	job, ok := b.findJob(chatID, id)
	if !ok {
		return b.answerCallback(callback, "✖️ Job is no longer available.")
	}

	bookmarked, err := b.bookmarks.Toggle(ctx, job)
	persisted := err == nil
	if err != nil {
		var writeErr *bookmark.StorageWriteError
		if !errors.As(err, &writeErr) {
			return b.errorCallbackAnswer(callback, fmt.Errorf("toggle bookmark: %w", err))
		}

		// The set changed in memory; the next flush retries the write.
		b.log.WarnContext(ctx, "Bookmark is changed but not persisted",
			"error", err,
			"chatID", chatID,
			"jobID", id,
			"bookmarked", bookmarked)
	}

	answer := bookmarkAnswer(bookmarked, persisted)

	var errs []error
	if err = b.answerCallback(callback, answer); err != nil {
		errs = append(errs, err)
	}

	if err = b.editKeyboard(ctx, chatID, callback.Message.MessageID, detailsKeyboard(id, bookmarked)); err != nil {
		errs = append(errs, fmt.Errorf("edit keyboard: %w", err))
	}

	return errors.Join(errs...)
}

func bookmarkAnswer(bookmarked, persisted bool) string {
	switch {
	case bookmarked && persisted:
		return "★ Bookmarked."
	case bookmarked:
		return "★ Bookmarked, but it may not be saved."
	case persisted:
		return "☆ Bookmark removed."
	default:
		return "☆ Bookmark removed, but it may not be saved."
	}
}

func (b *Bot) answerCallback(callback *tgbotapi.CallbackQuery, text string) error {
	if _, err := b.rateLimiter.Request(tgbotapi.NewCallback(callback.ID, text)); err != nil {
		return fmt.Errorf("send request: %w", err)
	}

	return nil
}

func (b *Bot) withEmptyCallbackAnswer(
	callback *tgbotapi.CallbackQuery,
	fn func() error,
) error {
	var errs []error

	if err := b.answerCallback(callback, ""); err != nil {
		errs = append(errs, b.errorCallbackAnswer(callback, err))
	}

	err := fn()
	if err != nil {
		errs = append(errs, fmt.Errorf("call fn: %w", err))
	}

	return errors.Join(errs...)
}

func (b *Bot) errorCallbackAnswer(
	callback *tgbotapi.CallbackQuery,
	err error,
) error {
	if sendErr := b.answerCallback(callback, "❌ Failed."); sendErr != nil {
		return errors.Join(err, sendErr)
	}
	return err
}
