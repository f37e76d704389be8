package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"rss_reader/internal/model"
	"rss_reader/internal/storage"
)

// Notifier delivers notifications for rules with the SendNotification
// action. Implementations own their own delivery deduplication.
type Notifier interface {
	Send(ctx context.Context, rule model.Rule, article model.Article) error
}

// Engine evaluates the rule chain against articles and dispatches the
// configured actions. It is safe to evaluate different articles
// concurrently; the only shared mutable state is the rule match
// counter, which the store increments atomically.
type Engine struct {
	store    storage.Storage
	notifier Notifier
	log      *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine(store storage.Storage, notifier Notifier, log *slog.Logger) *Engine {
	return &Engine{store: store, notifier: notifier, log: log}
}

// EvaluateArticle runs all enabled rules against one article, in
// ascending priority order, and returns the matched rules in
// evaluation order. A matching rule's counter is incremented here (and
// only here); a rule flagged stop-on-match truncates the chain.
func (e *Engine) EvaluateArticle(ctx context.Context, article *model.Article) ([]model.Rule, error) {
	if article == nil {
		return nil, nil
	}

	active, err := e.store.GetActiveRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("get active rules: %w", err)
	}

	feed, err := e.store.GetFeed(ctx, article.FeedID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("get feed: %w", err)
	}
	if feed == nil {
		e.log.Debug("feed not resolved, skipping all rules", "article_id", article.ID, "feed_id", article.FeedID)
		return nil, nil
	}

	var matched []model.Rule
	for _, rule := range active {
		if !InScope(rule, feed) {
			continue
		}
		if !Matches(rule, *article) {
			continue
		}

		if err := e.store.RecordRuleMatch(ctx, rule.ID); err != nil {
			return matched, fmt.Errorf("record rule match: %w", err)
		}
		rule.MatchCount++
		rule.LastModified = time.Now().UTC()
		matched = append(matched, rule)

		if rule.StopOnMatch {
			break
		}
	}
	return matched, nil
}

// Matches computes a rule's verdict for an article: a single condition
// evaluation in simple mode, the grouped fold in advanced mode.
func Matches(rule model.Rule, article model.Article) bool {
	if rule.Advanced {
		return EvaluateAdvanced(rule.Conditions, article)
	}
	return EvaluateCondition(simpleCondition(rule), article)
}

// simpleCondition lifts a simple-mode rule's own Target/Operator/Value
// into a condition. Simple-mode string comparison is case-insensitive.
func simpleCondition(rule model.Rule) model.RuleCondition {
	return model.RuleCondition{
		Field:        rule.Target,
		Operator:     rule.Operator,
		Value:        rule.Value,
		RegexPattern: rule.RegexPattern,
	}
}

// ExecuteAction applies a matched rule's side effect to the article. It
// re-derives the verdict first: a rule that does not actually match the
// article (or is out of scope) applies nothing and returns false. The
// match counter is NOT incremented here; EvaluateArticle owns it.
// Store failures propagate unchanged.
func (e *Engine) ExecuteAction(ctx context.Context, rule model.Rule, article *model.Article) (bool, error) {
	if article == nil {
		return false, nil
	}

	feed, err := e.store.GetFeed(ctx, article.FeedID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return false, fmt.Errorf("get feed: %w", err)
	}
	if !InScope(rule, feed) || !Matches(rule, *article) {
		return false, nil
	}

	switch rule.ActionType {
	case model.ActionMarkAsRead:
		article.Status = model.StatusRead
		if err := e.store.UpdateArticle(ctx, article); err != nil {
			return false, err
		}
	case model.ActionMarkAsStarred:
		article.Starred = true
		if err := e.store.UpdateArticle(ctx, article); err != nil {
			return false, err
		}
	case model.ActionMoveToCategory:
		// Category is reassigned at the feed level, not per article.
		feed.CategoryID = rule.CategoryID
		if err := e.store.UpdateFeed(ctx, feed); err != nil {
			return false, err
		}
	case model.ActionApplyTags:
		if err := e.store.ApplyTags(ctx, article.ID, rule.TagIDs); err != nil {
			return false, err
		}
	case model.ActionSendNotification:
		if err := e.notifier.Send(ctx, rule, *article); err != nil {
			return false, err
		}
	case model.ActionHighlight:
		article.HighlightColor = rule.HighlightColor
		if err := e.store.UpdateArticle(ctx, article); err != nil {
			return false, err
		}
	case model.ActionArchive:
		article.Status = model.StatusArchived
		if err := e.store.UpdateArticle(ctx, article); err != nil {
			return false, err
		}
	default:
		e.log.Warn("unknown action type", "rule_id", rule.ID, "action", string(rule.ActionType))
		return false, nil
	}

	e.log.Info("action applied", "rule_id", rule.ID, "rule", rule.Name,
		"action", string(rule.ActionType), "article_id", article.ID)
	return true, nil
}

// ProcessArticle classifies one article and executes the action of
// every matched rule. This is the combined pipeline the scheduler
// calls; the match counter is incremented exactly once per match, by
// the evaluation step.
func (e *Engine) ProcessArticle(ctx context.Context, article *model.Article) ([]model.Rule, error) {
	matched, err := e.EvaluateArticle(ctx, article)
	if err != nil {
		return nil, err
	}
	for _, rule := range matched {
		if _, err := e.ExecuteAction(ctx, rule, article); err != nil {
			return matched, fmt.Errorf("execute action for rule %q: %w", rule.Name, err)
		}
	}
	return matched, nil
}
