// Package storage defines the persistence interface and its implementations.
package storage

import (
	"context"
	"errors"

	"rss_reader/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Storage is the interface for all persistence operations.
type Storage interface {
	CreateRule(ctx context.Context, rule *model.Rule) error
	GetRule(ctx context.Context, id int64) (*model.Rule, error)
	ListRules(ctx context.Context) ([]model.Rule, error)
	// GetActiveRules returns enabled rules ordered by ascending
	// priority, with conditions attached to advanced rules.
	GetActiveRules(ctx context.Context) ([]model.Rule, error)
	UpdateRule(ctx context.Context, rule *model.Rule) error
	DeleteRule(ctx context.Context, id int64) error
	RuleExistsByName(ctx context.Context, name string, excludeID int64) (bool, error)
	// RecordRuleMatch atomically increments the rule's match counter
	// and refreshes its LastModified timestamp.
	RecordRuleMatch(ctx context.Context, id int64) error

	CreateCondition(ctx context.Context, c *model.RuleCondition) error
	ListConditions(ctx context.Context, ruleID int64) ([]model.RuleCondition, error)
	DeleteCondition(ctx context.Context, id int64) error

	CreateFeed(ctx context.Context, feed *model.Feed) error
	GetFeed(ctx context.Context, id int64) (*model.Feed, error)
	ListFeeds(ctx context.Context) ([]model.Feed, error)
	ListDueFeeds(ctx context.Context) ([]model.Feed, error)
	UpdateFeed(ctx context.Context, feed *model.Feed) error
	DeleteFeed(ctx context.Context, id int64) error

	CreateCategory(ctx context.Context, c *model.Category) error
	ListCategories(ctx context.Context) ([]model.Category, error)

	// CreateArticle inserts an article unless one with the same feed
	// and GUID already exists; it reports whether a row was inserted.
	CreateArticle(ctx context.Context, a *model.Article) (bool, error)
	GetArticle(ctx context.Context, id int64) (*model.Article, error)
	ListUnprocessedArticles(ctx context.Context, limit int) ([]model.Article, error)
	UpdateArticle(ctx context.Context, a *model.Article) error
	MarkArticleProcessed(ctx context.Context, id int64) error

	CreateTag(ctx context.Context, t *model.Tag) error
	ApplyTags(ctx context.Context, articleID int64, tagIDs model.IDList) error
	ListArticleTags(ctx context.Context, articleID int64) ([]model.Tag, error)

	Close() error
}
