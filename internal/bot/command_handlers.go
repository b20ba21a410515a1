package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobsportal/internal/domain"
	"jobsportal/internal/feed"
	"jobsportal/internal/markdown"
)

const prefetchTimeout = 30 * time.Second

const welcomeText = `🤖 *Welcome to Jobs Portal\!*

I can help you:

– Browse fresh job listings with /jobs and page further with /more
– Open a job to see its details and a short summary
– Bookmark jobs and find them later with /bookmarks`

func (b *Bot) handleStartCommand(ctx context.Context, chatID int64) error {
	return b.sendMessageWithKeyboard(ctx, chatID, welcomeText, b.menuKeyboard)
}

func (b *Bot) handleMenuCommand(ctx context.Context, chatID int64) error {
	return b.sendMessageWithKeyboard(ctx, chatID, "❔ *Choose an option:*", b.menuKeyboard)
}

// handleJobsCommand starts the chat's feed over from the first page.
func (b *Bot) handleJobsCommand(ctx context.Context, chatID int64) error {
	s := b.sessionFor(chatID)
	s.paginator.Reset()
	s.shown = 0

	return b.sendNextJobs(ctx, chatID, s)
}

func (b *Bot) handleMoreCommand(ctx context.Context, chatID int64) error {
	return b.sendNextJobs(ctx, chatID, b.sessionFor(chatID))
}

// sendNextJobs sends the jobs the chat has not seen yet. Jobs collected by
// a prefetch are sent without another fetch.
func (b *Bot) sendNextJobs(ctx context.Context, chatID int64, s *session) error {
	if len(s.paginator.CurrentItems()) <= s.shown {
		if !s.paginator.LoadNextPage(ctx) {
			return b.sendMessageWithKeyboard(ctx, chatID, "⏳ Still loading, try again in a moment\\.", nil)
		}

		if s.paginator.LoadState() == domain.LoadStateError {
			return b.sendMessageWithKeyboard(ctx, chatID,
				"❌ "+markdown.EscapeV2(s.paginator.ErrorMessage()),
				retryKeyboard())
		}
	}

	items := s.paginator.CurrentItems()
	if len(items) <= s.shown {
		text := "✖️ No more jobs\\."
		if s.shown == 0 {
			text = "✖️ No jobs found\\."
		}

		return b.sendMessageWithKeyboard(ctx, chatID, text, b.returnKeyboard)
	}

	fresh := items[s.shown:]

	var errs []error
	chunks := chunkJobs(fresh, maxJobsPerMessage)
	for i, chunk := range chunks {
		header := fmt.Sprintf("💼 *Jobs %d–%d:*", s.shown+1, s.shown+len(chunk))

		paging := moreRow()
		if i < len(chunks)-1 {
			paging = nil
		}

		text := formatJobList(header, s.shown, chunk, b.bookmarks.IsBookmarked)
		if err := b.sendMessageWithKeyboard(ctx, chatID, text, jobListKeyboard(chunk, paging)); err != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", err))
		}

		s.shown += len(chunk)
	}

	return errors.Join(errs...)
}

func (b *Bot) handleBookmarksCommand(ctx context.Context, chatID int64) error {
	jobs := b.bookmarks.List()
	if len(jobs) == 0 {
		return b.sendMessageWithKeyboard(ctx, chatID, "✖️ No bookmarks yet\\.", b.returnKeyboard)
	}

	var errs []error
	for i, chunk := range chunkJobs(jobs, maxJobsPerMessage) {
		header := fmt.Sprintf("⭐ *Bookmarks \\(%d\\):*", len(jobs))
		if i > 0 {
			header = "⭐ *Bookmarks, continued:*"
		}

		text := formatJobList(header, i*maxJobsPerMessage, chunk, b.bookmarks.IsBookmarked)
		if err := b.sendMessageWithKeyboard(ctx, chatID, text, jobListKeyboard(chunk, nil)); err != nil {
			errs = append(errs, fmt.Errorf("send message with keyboard: %w", err))
		}
	}

	return errors.Join(errs...)
}

// maybePrefetch loads the next page in the background once the chat has
// opened a job in the lower part of what it was shown.
func (b *Bot) maybePrefetch(ctx context.Context, chatID int64, id domain.JobID) {
	s, ok := b.existingSession(chatID)
	if !ok || s.shown == 0 {
		return
	}

	items := s.paginator.CurrentItems()
	if len(items) > s.shown {
		return
	}

	index := -1
	for i, job := range items[:s.shown] {
		if job.ID == id {
			index = i
			break
		}
	}

	if index < 0 || !feed.ShouldLoadMore(index, s.shown, feed.DefaultLoadMoreThreshold) {
		return
	}

	b.prefetch.Go(func() {
		prefetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), prefetchTimeout)
		defer cancel()

		if s.paginator.LoadNextPage(prefetchCtx) {
			b.log.DebugContext(prefetchCtx, "Jobs page is prefetched",
				"chatID", chatID,
				"cursor", s.paginator.Cursor(),
				"state", s.paginator.LoadState().String())
		}
	})
}
