// Package scheduler drives the periodic fetch-and-classify loop.
package scheduler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"rss_reader/internal/fetcher"
	"rss_reader/internal/model"
	"rss_reader/internal/rules"
	"rss_reader/internal/storage"
)

// Scheduler periodically fetches due feeds, stores their new articles,
// and runs unprocessed articles through the rule engine.
type Scheduler struct {
	store   storage.Storage
	fetcher *fetcher.Fetcher
	engine  *rules.Engine
	log     *slog.Logger
	tick    time.Duration
	batch   int
}

// New creates a Scheduler with the default HTTP client.
func New(store storage.Storage, engine *rules.Engine, log *slog.Logger) *Scheduler {
	return NewWithFetcher(store, fetcher.New(http.DefaultClient), engine, log)
}

// NewWithFetcher creates a Scheduler with a custom fetcher (useful for testing).
func NewWithFetcher(store storage.Storage, f *fetcher.Fetcher, engine *rules.Engine, log *slog.Logger) *Scheduler {
	return &Scheduler{
		store:   store,
		fetcher: f,
		engine:  engine,
		log:     log,
		tick:    1 * time.Minute,
		batch:   200,
	}
}

// SetTickInterval overrides the default 1-minute tick.
func (s *Scheduler) SetTickInterval(d time.Duration) {
	s.tick = d
}

// Run starts the scheduler loop, blocking until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	s.runOnce(ctx)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context) {
	s.fetchDue(ctx)
	s.classifyPending(ctx)
}

func (s *Scheduler) fetchDue(ctx context.Context) {
	feeds, err := s.store.ListDueFeeds(ctx)
	if err != nil {
		s.log.Error("list due feeds", "error", err)
		return
	}

	for _, feed := range feeds {
		if ctx.Err() != nil {
			return
		}
		s.fetchFeed(ctx, feed)
	}
}

func (s *Scheduler) fetchFeed(ctx context.Context, feed model.Feed) {
	s.log.Debug("fetching feed", "feed_id", feed.ID, "title", feed.Title)

	parsed, err := s.fetcher.Fetch(ctx, feed.URL)
	if err != nil {
		s.log.Error("fetch feed", "feed_id", feed.ID, "url", feed.URL, "error", err)
		s.updateLastFetch(ctx, &feed)
		return
	}

	inserted := 0
	for _, article := range fetcher.Articles(parsed, feed.ID) {
		a := article
		ok, err := s.store.CreateArticle(ctx, &a)
		if err != nil {
			s.log.Error("store article", "feed_id", feed.ID, "guid", a.GUID, "error", err)
			continue
		}
		if ok {
			inserted++
		}
	}
	if inserted > 0 {
		s.log.Info("stored new articles", "feed_id", feed.ID, "title", feed.Title, "count", inserted)
	}

	s.updateLastFetch(ctx, &feed)
}

func (s *Scheduler) classifyPending(ctx context.Context) {
	articles, err := s.store.ListUnprocessedArticles(ctx, s.batch)
	if err != nil {
		s.log.Error("list unprocessed articles", "error", err)
		return
	}

	for i := range articles {
		if ctx.Err() != nil {
			return
		}
		article := &articles[i]

		matched, err := s.engine.ProcessArticle(ctx, article)
		if err != nil {
			s.log.Error("process article", "article_id", article.ID, "error", err)
			continue
		}
		if len(matched) > 0 {
			s.log.Info("article classified", "article_id", article.ID, "matched", len(matched))
		}

		if err := s.store.MarkArticleProcessed(ctx, article.ID); err != nil {
			s.log.Error("mark article processed", "article_id", article.ID, "error", err)
		}
	}
}

func (s *Scheduler) updateLastFetch(ctx context.Context, feed *model.Feed) {
	now := time.Now().UTC()
	feed.LastFetchAt = &now
	if err := s.store.UpdateFeed(ctx, feed); err != nil {
		s.log.Error("update last fetch", "feed_id", feed.ID, "error", err)
	}
}
