// Package rules implements the article classification engine: condition
// evaluation, scope resolution, rule validation, and action dispatch.
package rules

import (
	"regexp"
	"strings"
	"time"

	"rss_reader/internal/model"
)

// Fallback layouts tried when a condition has no DateFormat.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// EvaluateCondition checks one condition against one article. Malformed
// regex patterns or unparseable dates at this point degrade to "no
// match"; well-formedness is enforced at validation time, not here.
func EvaluateCondition(c model.RuleCondition, a model.Article) bool {
	verdict := rawVerdict(c, a)
	if c.Negate {
		return !verdict
	}
	return verdict
}

func rawVerdict(c model.RuleCondition, a model.Article) bool {
	text := fieldText(a, c.Field)

	switch c.Operator {
	case model.OpContains:
		if c.CaseSensitive {
			return strings.Contains(text, c.Value)
		}
		return strings.Contains(strings.ToLower(text), strings.ToLower(c.Value))
	case model.OpEquals:
		if c.CaseSensitive {
			return text == c.Value
		}
		return strings.EqualFold(text, c.Value)
	case model.OpStartsWith:
		if c.CaseSensitive {
			return strings.HasPrefix(text, c.Value)
		}
		return strings.HasPrefix(strings.ToLower(text), strings.ToLower(c.Value))
	case model.OpRegex:
		pattern := c.RegexPattern
		if !c.CaseSensitive {
			pattern = "(?i)" + pattern
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return false
		}
		return re.MatchString(text)
	case model.OpGreaterThan:
		fieldTime, value, ok := parseDates(c, text)
		return ok && fieldTime.After(value)
	case model.OpLessThan:
		fieldTime, value, ok := parseDates(c, text)
		return ok && fieldTime.Before(value)
	case model.OpIsEmpty:
		return strings.TrimSpace(text) == ""
	case model.OpIsNotEmpty:
		return strings.TrimSpace(text) != ""
	}
	return false
}

func parseDates(c model.RuleCondition, text string) (fieldTime, value time.Time, ok bool) {
	fieldTime, err := parseDate(c.DateFormat, text)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	value, err = parseDate(c.DateFormat, c.Value)
	if err != nil {
		return time.Time{}, time.Time{}, false
	}
	return fieldTime, value, true
}

func parseDate(layout, s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if layout != "" {
		return time.Parse(layout, s)
	}
	var lastErr error
	for _, l := range dateLayouts {
		t, err := time.Parse(l, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func fieldText(a model.Article, field model.RuleField) string {
	switch field {
	case model.FieldTitle:
		return a.Title
	case model.FieldContent:
		return a.Content
	case model.FieldAuthor:
		return a.Author
	case model.FieldCategories:
		return strings.Join(a.Categories, " ")
	default:
		return a.Title + " " + a.Content + " " + a.Author + " " + strings.Join(a.Categories, " ")
	}
}

// ValidateRegex checks whether a pattern is a valid regular expression.
func ValidateRegex(pattern string) error {
	_, err := regexp.Compile(pattern)
	return err
}
