package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"rss_reader/internal/model"
	"rss_reader/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=OFF"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("disable foreign keys: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateFeed inserts a new feed and populates its ID and CreatedAt.
func (s *SQLite) CreateFeed(ctx context.Context, feed *model.Feed) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO feeds (title, url, category_id, interval_minutes, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		feed.Title, feed.URL, feed.CategoryID, feed.IntervalMinutes, boolToInt(feed.IsActive), now,
	)
	if err != nil {
		return fmt.Errorf("insert feed: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	feed.ID = id
	feed.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// GetFeed returns a single feed by its ID.
func (s *SQLite) GetFeed(ctx context.Context, id int64) (*model.Feed, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, url, category_id, interval_minutes, is_active, last_fetch_at, created_at
		 FROM feeds WHERE id = ?`, id,
	)
	return scanFeed(row)
}

// ListFeeds returns all feeds.
func (s *SQLite) ListFeeds(ctx context.Context) ([]model.Feed, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, url, category_id, interval_minutes, is_active, last_fetch_at, created_at
		 FROM feeds ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("query feeds: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanFeeds(rows)
}

// ListDueFeeds returns all active feeds that are due for fetching.
func (s *SQLite) ListDueFeeds(ctx context.Context) ([]model.Feed, error) {
	now := time.Now().UTC().Format(timeLayout)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, url, category_id, interval_minutes, is_active, last_fetch_at, created_at
		 FROM feeds
		 WHERE is_active = 1
		   AND (last_fetch_at IS NULL
		        OR datetime(last_fetch_at, '+' || interval_minutes || ' minutes') <= datetime(?))`,
		now,
	)
	if err != nil {
		return nil, fmt.Errorf("query due feeds: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanFeeds(rows)
}

// UpdateFeed persists changes to an existing feed.
func (s *SQLite) UpdateFeed(ctx context.Context, feed *model.Feed) error {
	var lastFetch *string
	if feed.LastFetchAt != nil {
		v := feed.LastFetchAt.UTC().Format(timeLayout)
		lastFetch = &v
	}
	_, err := s.db.ExecContext(ctx,
		`UPDATE feeds SET title = ?, url = ?, category_id = ?, interval_minutes = ?, is_active = ?, last_fetch_at = ?
		 WHERE id = ?`,
		feed.Title, feed.URL, feed.CategoryID, feed.IntervalMinutes, boolToInt(feed.IsActive), lastFetch, feed.ID,
	)
	if err != nil {
		return fmt.Errorf("update feed: %w", err)
	}
	return nil
}

// DeleteFeed removes a feed together with its articles and their tags.
func (s *SQLite) DeleteFeed(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM article_tags WHERE article_id IN (SELECT id FROM articles WHERE feed_id = ?)`, id); err != nil {
		return fmt.Errorf("delete article tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM articles WHERE feed_id = ?`, id); err != nil {
		return fmt.Errorf("delete articles: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM feeds WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete feed: %w", err)
	}
	return tx.Commit()
}

// CreateCategory inserts a new category and populates its ID and CreatedAt.
func (s *SQLite) CreateCategory(ctx context.Context, c *model.Category) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (title, created_at) VALUES (?, ?)`,
		c.Title, now,
	)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	c.ID = id
	c.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// ListCategories returns all categories.
func (s *SQLite) ListCategories(ctx context.Context) ([]model.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, created_at FROM categories ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cats []model.Category
	for rows.Next() {
		var c model.Category
		var created string
		if err := rows.Scan(&c.ID, &c.Title, &created); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.CreatedAt, _ = time.Parse(timeLayout, created)
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scannable interface {
	Scan(dest ...any) error
}

func scanFeed(row scannable) (*model.Feed, error) {
	var f model.Feed
	var isActive int
	var categoryID sql.NullInt64
	var lastFetch, created sql.NullString
	err := row.Scan(&f.ID, &f.Title, &f.URL, &categoryID, &f.IntervalMinutes, &isActive, &lastFetch, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan feed: %w", err)
	}
	f.IsActive = isActive == 1
	if categoryID.Valid {
		f.CategoryID = &categoryID.Int64
	}
	if lastFetch.Valid {
		t, _ := time.Parse(timeLayout, lastFetch.String)
		f.LastFetchAt = &t
	}
	if created.Valid {
		f.CreatedAt, _ = time.Parse(timeLayout, created.String)
	}
	return &f, nil
}

func scanFeeds(rows *sql.Rows) ([]model.Feed, error) {
	var feeds []model.Feed
	for rows.Next() {
		f, err := scanFeed(rows)
		if err != nil {
			return nil, err
		}
		feeds = append(feeds, *f)
	}
	return feeds, rows.Err()
}
