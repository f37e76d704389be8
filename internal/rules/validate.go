package rules

import (
	"strings"

	"rss_reader/internal/model"
)

const maxNameLength = 200

// RuleInput is the wire shape of a rule as authored: ID lists arrive as
// JSON-array-of-int strings and are parsed exactly once, here. The
// engine never sees the raw strings.
type RuleInput struct {
	Name        string
	IsEnabled   bool
	Priority    int
	Scope       model.RuleScope
	FeedIDs     string
	CategoryIDs string
	Advanced    bool
	StopOnMatch bool

	Target       model.RuleField
	Operator     model.RuleOperator
	Value        string
	RegexPattern string

	ActionType           model.ActionType
	CategoryID           *int64
	TagIDs               string
	HighlightColor       string
	NotificationTemplate string
	NotificationPriority model.NotificationPriority
}

// Validate enforces the field-requirement matrix for the input's
// scope/operator/action combination. The first violation per check
// wins; the returned ConfigurationError names the offending field.
func Validate(in RuleInput) error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.ConfigurationError{Field: "Name", Message: "Name is required"}
	}
	if len(name) > maxNameLength {
		return model.ConfigurationError{Field: "Name", Message: "Name must be at most 200 characters"}
	}

	switch in.Scope {
	case model.ScopeSpecificFeeds:
		if err := validateIDList("FeedIds", in.FeedIDs); err != nil {
			return err
		}
	case model.ScopeSpecificCategories:
		if err := validateIDList("CategoryIds", in.CategoryIDs); err != nil {
			return err
		}
	}

	if !in.Advanced {
		switch {
		case in.Operator == model.OpRegex:
			if strings.TrimSpace(in.RegexPattern) == "" {
				return model.ConfigurationError{Field: "RegexPattern", Message: "RegexPattern is required"}
			}
			if ValidateRegex(in.RegexPattern) != nil {
				return model.ConfigurationError{Field: "RegexPattern", Message: "RegexPattern contains an invalid regular expression"}
			}
		case in.Operator.NeedsValue():
			if strings.TrimSpace(in.Value) == "" {
				return model.ConfigurationError{Field: "Value", Message: "Value is required"}
			}
		}
	}

	switch in.ActionType {
	case model.ActionApplyTags:
		if err := validateIDList("TagIds", in.TagIDs); err != nil {
			return err
		}
	case model.ActionMoveToCategory:
		if in.CategoryID == nil {
			return model.ConfigurationError{Field: "CategoryId", Message: "CategoryId is required"}
		}
	case model.ActionHighlight:
		if strings.TrimSpace(in.HighlightColor) == "" {
			return model.ConfigurationError{Field: "HighlightColor", Message: "HighlightColor is required"}
		}
	}

	return nil
}

func validateIDList(field, raw string) error {
	if strings.TrimSpace(raw) == "" {
		return model.ConfigurationError{Field: field, Message: field + " are required"}
	}
	ids, err := model.ParseIDList(raw)
	if err != nil {
		return model.ConfigurationError{Field: field, Message: field + " contains invalid JSON"}
	}
	if len(ids) == 0 {
		return model.ConfigurationError{Field: field, Message: field + " are required"}
	}
	return nil
}

// ValidateCondition enforces well-formedness of one advanced-mode
// condition before it is stored; evaluation never reports these.
func ValidateCondition(c model.RuleCondition) error {
	if c.Operator == model.OpRegex {
		if strings.TrimSpace(c.RegexPattern) == "" {
			return model.ConfigurationError{Field: "RegexPattern", Message: "RegexPattern is required"}
		}
		if ValidateRegex(c.RegexPattern) != nil {
			return model.ConfigurationError{Field: "RegexPattern", Message: "RegexPattern contains an invalid regular expression"}
		}
		return nil
	}
	if !c.IsValid() {
		return model.ConfigurationError{Field: "Value", Message: "Value is required"}
	}
	return nil
}
