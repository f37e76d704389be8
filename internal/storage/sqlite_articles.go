package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"rss_reader/internal/model"
)

const articleColumns = `id, feed_id, guid, title, content, author, categories, link,
	published_at, status, starred, highlight_color, processed, created_at`

// CreateArticle inserts an article unless one with the same feed and
// GUID already exists; it reports whether a row was inserted.
func (s *SQLite) CreateArticle(ctx context.Context, a *model.Article) (bool, error) {
	now := time.Now().UTC().Format(timeLayout)
	var published *string
	if a.PublishedAt != nil {
		v := a.PublishedAt.UTC().Format(timeLayout)
		published = &v
	}
	status := a.Status
	if status == "" {
		status = model.StatusUnread
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO articles (feed_id, guid, title, content, author, categories, link,
		  published_at, status, starred, highlight_color, processed, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.FeedID, a.GUID, a.Title, a.Content, a.Author, encodeStrings(a.Categories), a.Link,
		published, string(status), boolToInt(a.Starred), a.HighlightColor, boolToInt(a.Processed), now,
	)
	if err != nil {
		return false, fmt.Errorf("insert article: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return false, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return false, fmt.Errorf("last insert id: %w", err)
	}
	a.ID = id
	a.Status = status
	a.CreatedAt, _ = time.Parse(timeLayout, now)
	return true, nil
}

// GetArticle returns a single article by its ID.
func (s *SQLite) GetArticle(ctx context.Context, id int64) (*model.Article, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+articleColumns+` FROM articles WHERE id = ?`, id)
	return scanArticle(row)
}

// ListUnprocessedArticles returns articles not yet run through the rule
// engine, oldest first. A limit of 0 means no limit.
func (s *SQLite) ListUnprocessedArticles(ctx context.Context, limit int) ([]model.Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles WHERE processed = 0 ORDER BY id`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query unprocessed articles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var articles []model.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

// UpdateArticle persists an article's mutable fields.
func (s *SQLite) UpdateArticle(ctx context.Context, a *model.Article) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE articles SET status = ?, starred = ?, highlight_color = ?, processed = ?
		 WHERE id = ?`,
		string(a.Status), boolToInt(a.Starred), a.HighlightColor, boolToInt(a.Processed), a.ID,
	)
	if err != nil {
		return fmt.Errorf("update article: %w", err)
	}
	return nil
}

// MarkArticleProcessed flags an article as having been classified.
func (s *SQLite) MarkArticleProcessed(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE articles SET processed = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark article processed: %w", err)
	}
	return nil
}

// CreateTag inserts a new tag and populates its ID and CreatedAt.
func (s *SQLite) CreateTag(ctx context.Context, t *model.Tag) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO tags (name, created_at) VALUES (?, ?)`, t.Name, now,
	)
	if err != nil {
		return fmt.Errorf("insert tag: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	t.ID = id
	t.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// ApplyTags associates the given tags with an article. Existing
// associations are kept; duplicates are ignored.
func (s *SQLite) ApplyTags(ctx context.Context, articleID int64, tagIDs model.IDList) error {
	for _, tagID := range tagIDs {
		_, err := s.db.ExecContext(ctx,
			`INSERT OR IGNORE INTO article_tags (article_id, tag_id) VALUES (?, ?)`,
			articleID, tagID,
		)
		if err != nil {
			return fmt.Errorf("apply tag %d: %w", tagID, err)
		}
	}
	return nil
}

// ListArticleTags returns the tags associated with an article.
func (s *SQLite) ListArticleTags(ctx context.Context, articleID int64) ([]model.Tag, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.id, t.name, t.created_at
		 FROM tags t JOIN article_tags at ON at.tag_id = t.id
		 WHERE at.article_id = ? ORDER BY t.id`, articleID,
	)
	if err != nil {
		return nil, fmt.Errorf("query article tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tags []model.Tag
	for rows.Next() {
		var t model.Tag
		var created string
		if err := rows.Scan(&t.ID, &t.Name, &created); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		t.CreatedAt, _ = time.Parse(timeLayout, created)
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

func scanArticle(row scannable) (*model.Article, error) {
	var a model.Article
	var starred, processed int
	var status string
	var categories, published, created sql.NullString
	err := row.Scan(&a.ID, &a.FeedID, &a.GUID, &a.Title, &a.Content, &a.Author, &categories, &a.Link,
		&published, &status, &starred, &a.HighlightColor, &processed, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan article: %w", err)
	}
	a.Status = model.ArticleStatus(status)
	a.Starred = starred == 1
	a.Processed = processed == 1
	if categories.Valid && categories.String != "" {
		_ = json.Unmarshal([]byte(categories.String), &a.Categories)
	}
	if published.Valid {
		t, _ := time.Parse(timeLayout, published.String)
		a.PublishedAt = &t
	}
	if created.Valid {
		a.CreatedAt, _ = time.Parse(timeLayout, created.String)
	}
	return &a, nil
}

func encodeStrings(ss []string) string {
	if len(ss) == 0 {
		return ""
	}
	b, err := json.Marshal(ss)
	if err != nil {
		return ""
	}
	return string(b)
}
