// Package model defines the domain types used across the application.
package model

import (
	"strings"
	"time"
)

// Category groups feeds for scoping and organization.
type Category struct {
	ID        int64
	Title     string
	CreatedAt time.Time
}

// Feed represents an RSS feed subscription.
type Feed struct {
	ID              int64
	Title           string
	URL             string
	CategoryID      *int64
	IntervalMinutes int
	IsActive        bool
	LastFetchAt     *time.Time
	CreatedAt       time.Time
}

// ArticleStatus is the read/archive state of an article.
type ArticleStatus string

// Supported article statuses.
const (
	StatusUnread   ArticleStatus = "unread"
	StatusRead     ArticleStatus = "read"
	StatusArchived ArticleStatus = "archived"
)

// Article represents a single item fetched from a feed.
type Article struct {
	ID             int64
	FeedID         int64
	GUID           string
	Title          string
	Content        string
	Author         string
	Categories     []string
	Link           string
	PublishedAt    *time.Time
	Status         ArticleStatus
	Starred        bool
	HighlightColor string
	Processed      bool
	CreatedAt      time.Time
}

// Tag is a user-defined label that rules can attach to articles.
type Tag struct {
	ID        int64
	Name      string
	CreatedAt time.Time
}

// RuleScope defines which feeds a rule is eligible to apply to.
type RuleScope string

// Supported rule scopes.
const (
	ScopeAllFeeds           RuleScope = "all_feeds"
	ScopeSpecificFeeds      RuleScope = "specific_feeds"
	ScopeSpecificCategories RuleScope = "specific_categories"
)

// RuleField names the article field a condition matches against.
type RuleField string

// Supported condition fields.
const (
	FieldTitle      RuleField = "title"
	FieldContent    RuleField = "content"
	FieldAuthor     RuleField = "author"
	FieldCategories RuleField = "categories"
	FieldAllFields  RuleField = "all_fields"
)

// RuleOperator is the comparison a condition applies to its field.
type RuleOperator string

// Supported operators.
const (
	OpContains    RuleOperator = "contains"
	OpEquals      RuleOperator = "equals"
	OpStartsWith  RuleOperator = "starts_with"
	OpRegex       RuleOperator = "regex"
	OpGreaterThan RuleOperator = "greater_than"
	OpLessThan    RuleOperator = "less_than"
	OpIsEmpty     RuleOperator = "is_empty"
	OpIsNotEmpty  RuleOperator = "is_not_empty"
)

// NeedsValue reports whether the operator requires a comparison value.
func (op RuleOperator) NeedsValue() bool {
	return op != OpIsEmpty && op != OpIsNotEmpty
}

// LogicalOperator combines two condition verdicts.
type LogicalOperator string

// Supported logical operators.
const (
	LogicalAnd LogicalOperator = "and"
	LogicalOr  LogicalOperator = "or"
)

// ActionType is the side effect a rule performs when it matches.
type ActionType string

// Supported actions.
const (
	ActionMarkAsRead       ActionType = "mark_as_read"
	ActionMarkAsStarred    ActionType = "mark_as_starred"
	ActionMoveToCategory   ActionType = "move_to_category"
	ActionApplyTags        ActionType = "apply_tags"
	ActionSendNotification ActionType = "send_notification"
	ActionHighlight        ActionType = "highlight_article"
	ActionArchive          ActionType = "archive_article"
)

// NotificationPriority controls how loudly a notification is delivered.
type NotificationPriority string

// Supported notification priorities.
const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
)

// DefaultPriority is assigned when a rule is created with priority 0.
const DefaultPriority = 100

// Rule is a named, prioritized classification unit. In simple mode the
// match condition lives directly on the rule (Target/Operator/Value);
// in advanced mode it is expressed by the owned Conditions.
type Rule struct {
	ID          int64
	Name        string
	IsEnabled   bool
	Priority    int
	Scope       RuleScope
	FeedIDs     IDList
	CategoryIDs IDList
	Advanced    bool
	StopOnMatch bool

	// Simple-mode condition.
	Target       RuleField
	Operator     RuleOperator
	Value        string
	RegexPattern string

	ActionType           ActionType
	CategoryID           *int64
	TagIDs               IDList
	HighlightColor       string
	NotificationTemplate string
	NotificationPriority NotificationPriority

	MatchCount   int64
	Conditions   []RuleCondition
	CreatedAt    time.Time
	LastModified time.Time
}

// RuleCondition is one clause of an advanced rule. Conditions sharing a
// GroupID form one group; Position orders them within the group.
type RuleCondition struct {
	ID              int64
	RuleID          int64
	GroupID         int
	Position        int
	Field           RuleField
	Operator        RuleOperator
	Value           string
	RegexPattern    string
	DateFormat      string
	Negate          bool
	CombineWithNext LogicalOperator
	CaseSensitive   bool
	CreatedAt       time.Time
}

// IsValid reports whether the condition is structurally complete:
// Regex needs a pattern, IsEmpty/IsNotEmpty need nothing, every other
// operator needs a non-blank value.
func (c RuleCondition) IsValid() bool {
	switch c.Operator {
	case OpRegex:
		return strings.TrimSpace(c.RegexPattern) != ""
	case OpIsEmpty, OpIsNotEmpty:
		return true
	default:
		return strings.TrimSpace(c.Value) != ""
	}
}
