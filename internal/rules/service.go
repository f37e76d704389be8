package rules

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rss_reader/internal/model"
	"rss_reader/internal/storage"
)

// Service is the lifecycle gate for rules: every create and update
// passes through validation and the name-uniqueness check before the
// store is written.
type Service struct {
	store storage.Storage
}

// NewService creates a rule Service.
func NewService(store storage.Storage) *Service {
	return &Service{store: store}
}

// CreateRule validates the input, normalizes it, and inserts the rule.
func (s *Service) CreateRule(ctx context.Context, in RuleInput) (*model.Rule, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	exists, err := s.store.RuleExistsByName(ctx, name, 0)
	if err != nil {
		return nil, fmt.Errorf("check rule name: %w", err)
	}
	if exists {
		return nil, model.ConfigurationError{Field: "Name", Message: "Name is already in use"}
	}

	rule := buildRule(in)
	now := time.Now().UTC()
	rule.CreatedAt = now
	rule.LastModified = now

	if err := s.store.CreateRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("create rule: %w", err)
	}
	return rule, nil
}

// UpdateRule validates the input and persists it over the existing rule.
// MatchCount and CreatedAt are preserved; LastModified is refreshed.
func (s *Service) UpdateRule(ctx context.Context, id int64, in RuleInput) (*model.Rule, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	exists, err := s.store.RuleExistsByName(ctx, name, id)
	if err != nil {
		return nil, fmt.Errorf("check rule name: %w", err)
	}
	if exists {
		return nil, model.ConfigurationError{Field: "Name", Message: "Name is already in use"}
	}

	existing, err := s.store.GetRule(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get rule: %w", err)
	}

	rule := buildRule(in)
	rule.ID = id
	rule.MatchCount = existing.MatchCount
	rule.CreatedAt = existing.CreatedAt
	rule.LastModified = time.Now().UTC()

	if err := s.store.UpdateRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("update rule: %w", err)
	}
	return rule, nil
}

// DeleteRule removes a rule and its conditions.
func (s *Service) DeleteRule(ctx context.Context, id int64) error {
	return s.store.DeleteRule(ctx, id)
}

// AddCondition validates and stores one advanced-mode condition.
func (s *Service) AddCondition(ctx context.Context, c *model.RuleCondition) error {
	if err := ValidateCondition(*c); err != nil {
		return err
	}
	return s.store.CreateCondition(ctx, c)
}

// RemoveCondition deletes one condition, leaving the parent rule intact.
func (s *Service) RemoveCondition(ctx context.Context, id int64) error {
	return s.store.DeleteCondition(ctx, id)
}

// buildRule converts validated input into the engine-facing rule shape.
// ID lists have already passed validation, so parse errors cannot occur
// here. A zero priority is normalized to the default.
func buildRule(in RuleInput) *model.Rule {
	feedIDs, _ := model.ParseIDList(in.FeedIDs)
	categoryIDs, _ := model.ParseIDList(in.CategoryIDs)
	tagIDs, _ := model.ParseIDList(in.TagIDs)

	priority := in.Priority
	if priority <= 0 {
		priority = model.DefaultPriority
	}

	return &model.Rule{
		Name:                 strings.TrimSpace(in.Name),
		IsEnabled:            in.IsEnabled,
		Priority:             priority,
		Scope:                in.Scope,
		FeedIDs:              feedIDs,
		CategoryIDs:          categoryIDs,
		Advanced:             in.Advanced,
		StopOnMatch:          in.StopOnMatch,
		Target:               in.Target,
		Operator:             in.Operator,
		Value:                in.Value,
		RegexPattern:         in.RegexPattern,
		ActionType:           in.ActionType,
		CategoryID:           in.CategoryID,
		TagIDs:               tagIDs,
		HighlightColor:       in.HighlightColor,
		NotificationTemplate: in.NotificationTemplate,
		NotificationPriority: in.NotificationPriority,
	}
}
