package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobsportal/internal/bookmark"
	"jobsportal/internal/bot"
	"jobsportal/internal/config"
	"jobsportal/internal/domain"
	"jobsportal/internal/feed"
	"jobsportal/internal/jobview"
	"jobsportal/internal/scheduler"
	"jobsportal/internal/storage"
	"jobsportal/internal/summarizer"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	start := time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		log.ErrorContext(ctx, "Failed to load config",
			"error", err)

		return
	}

	backend, err := storage.ParseBackend(cfg.StorageBackend)
	if err != nil {
		log.ErrorContext(ctx, "Failed to parse storage backend",
			"error", err,
			"backend", cfg.StorageBackend)

		return
	}

	store, err := storage.Open(ctx, storage.Options{
		Backend:     backend,
		DBPath:      cfg.DBPath,
		RedisURL:    cfg.RedisURL,
		DatabaseURL: cfg.DatabaseURL,
	}, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to open storage",
			"error", err,
			"backend", backend)

		return
	}
	defer func() {
		if err = store.Close(); err != nil {
			log.ErrorContext(ctx, "Failed to close storage",
				"error", err,
				"backend", backend)
		}
	}()
	log.InfoContext(ctx, "Storage is initialized",
		"backend", backend)

	bookmarks := bookmark.New(store, cfg.BookmarksKey, log)
	if err = bookmarks.Initialize(ctx); err != nil {
		var readErr *bookmark.StorageReadError
		if !errors.As(err, &readErr) {
			log.ErrorContext(ctx, "Failed to initialize bookmarks",
				"error", err)

			return
		}
	}
	unsubscribe := bookmarks.Subscribe(func(jobs []domain.Job) {
		log.InfoContext(ctx, "Bookmarks are changed",
			"count", len(jobs))
	})
	defer unsubscribe()

	fetcher, err := feed.NewFetcher(cfg.JobsAPIURL, cfg.FetchTimeout, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize fetcher",
			"error", err,
			"url", cfg.JobsAPIURL)

		return
	}

	views := jobview.NewBuilder(initOpenAISummarizer(ctx, cfg.OpenAIAPIKey, log), log)

	botInst, err := bot.New(cfg.Token, bot.Deps{
		Bookmarks:    bookmarks,
		Source:       fetcher,
		Views:        views,
		AllowedUsers: cfg.AllowedUsers,
	}, log)
	if err != nil {
		log.ErrorContext(ctx, "Failed to initialize bot",
			"error", err,
			"allowedUsersCount", len(cfg.AllowedUsers))

		return
	}
	log.InfoContext(ctx, "Bot is initialized",
		"allowedUsersCount", len(cfg.AllowedUsers))

	sched := scheduler.New(ctx, bookmarks, botInst, cfg.BookmarkFlushSpec, log)

	if err = sched.Start(); err != nil {
		log.ErrorContext(ctx, "Failed to start scheduler",
			"error", err,
			"flushSpec", cfg.BookmarkFlushSpec,
			"timezone", time.FixedZone(scheduler.Timezone, scheduler.TimezoneOffsetSeconds).String())

		return
	}
	log.InfoContext(ctx, "Scheduler is started",
		"flushSpec", cfg.BookmarkFlushSpec,
		"timezone", time.FixedZone(scheduler.Timezone, scheduler.TimezoneOffsetSeconds).String())

	go func() {
		botInst.Start(ctx)
	}()
	log.InfoContext(ctx, "Bot is started",
		"updateTimeoutSeconds", bot.BotUpdateTimeout)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	sig := <-c
	log.InfoContext(ctx, "Shutdown signal is received",
		"signal", sig.String())
	cancel()

	log.InfoContext(ctx, "Exiting...",
		"signal", sig.String(),
		"uptimeSeconds", time.Since(start).Seconds())

	sched.Stop()
	botInst.Stop()
	log.InfoContext(ctx, "Bot is stopped",
		"uptimeSeconds", time.Since(start).Seconds())

	flushCtx, flushCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer flushCancel()

	if err = bookmarks.Flush(flushCtx); err != nil {
		log.ErrorContext(flushCtx, "Failed to flush bookmarks on shutdown",
			"error", err)
	}
}

func initOpenAISummarizer(ctx context.Context, apiKey string, log *slog.Logger) summarizer.Summarizer {
	if apiKey == "" {
		log.WarnContext(ctx, "OPENAI_API_KEY is missing so fallback will be used",
			"envVar", "OPENAI_API_KEY")

		return nil
	}

	s, err := summarizer.NewOpenAISummarizer(apiKey)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create OpenAI summarizer so fallback will be used",
			"error", err,
			"envVar", "OPENAI_API_KEY")

		return nil
	}

	log.InfoContext(ctx, "OpenAI summarizer is initialized",
		"provider", "openai")

	return s
}
