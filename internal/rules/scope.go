package rules

import "rss_reader/internal/model"

// InScope reports whether a rule applies to an article delivered by the
// given feed. A nil feed (the article's feed could not be resolved)
// puts every scoped and unscoped rule out of scope; the caller skips
// the rule rather than treating it as an error.
func InScope(rule model.Rule, feed *model.Feed) bool {
	if feed == nil {
		return false
	}
	switch rule.Scope {
	case model.ScopeSpecificFeeds:
		return rule.FeedIDs.Contains(feed.ID)
	case model.ScopeSpecificCategories:
		if feed.CategoryID == nil {
			return false
		}
		return rule.CategoryIDs.Contains(*feed.CategoryID)
	default:
		return true
	}
}
