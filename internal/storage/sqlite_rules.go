package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rss_reader/internal/model"
)

const ruleColumns = `id, name, is_enabled, priority, scope, feed_ids, category_ids,
	advanced, stop_on_match, target, operator, value, regex_pattern,
	action_type, category_id, tag_ids, highlight_color,
	notification_template, notification_priority, match_count, created_at, last_modified`

// CreateRule inserts a new rule and populates its ID.
// Timestamps are expected to be set by the caller.
func (s *SQLite) CreateRule(ctx context.Context, rule *model.Rule) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO rules (name, is_enabled, priority, scope, feed_ids, category_ids,
		  advanced, stop_on_match, target, operator, value, regex_pattern,
		  action_type, category_id, tag_ids, highlight_color,
		  notification_template, notification_priority, match_count, created_at, last_modified)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.Name, boolToInt(rule.IsEnabled), rule.Priority, string(rule.Scope),
		rule.FeedIDs.String(), rule.CategoryIDs.String(),
		boolToInt(rule.Advanced), boolToInt(rule.StopOnMatch),
		string(rule.Target), string(rule.Operator), rule.Value, rule.RegexPattern,
		string(rule.ActionType), rule.CategoryID, rule.TagIDs.String(), rule.HighlightColor,
		rule.NotificationTemplate, string(rule.NotificationPriority), rule.MatchCount,
		rule.CreatedAt.UTC().Format(timeLayout), rule.LastModified.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert rule: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	rule.ID = id
	return nil
}

// GetRule returns a single rule by its ID, with conditions attached
// when the rule is in advanced mode.
func (s *SQLite) GetRule(ctx context.Context, id int64) (*model.Rule, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+ruleColumns+` FROM rules WHERE id = ?`, id)
	rule, err := scanRule(row)
	if err != nil {
		return nil, err
	}
	if rule.Advanced {
		rule.Conditions, err = s.ListConditions(ctx, rule.ID)
		if err != nil {
			return nil, err
		}
	}
	return rule, nil
}

// ListRules returns all rules ordered by ascending priority.
func (s *SQLite) ListRules(ctx context.Context) ([]model.Rule, error) {
	return s.queryRules(ctx, `SELECT `+ruleColumns+` FROM rules ORDER BY priority, id`)
}

// GetActiveRules returns enabled rules ordered by ascending priority,
// with conditions attached to advanced rules.
func (s *SQLite) GetActiveRules(ctx context.Context) ([]model.Rule, error) {
	return s.queryRules(ctx, `SELECT `+ruleColumns+` FROM rules WHERE is_enabled = 1 ORDER BY priority, id`)
}

func (s *SQLite) queryRules(ctx context.Context, query string) ([]model.Rule, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.Rule
	for rows.Next() {
		r, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range rules {
		if !rules[i].Advanced {
			continue
		}
		rules[i].Conditions, err = s.ListConditions(ctx, rules[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return rules, nil
}

// UpdateRule persists changes to an existing rule.
func (s *SQLite) UpdateRule(ctx context.Context, rule *model.Rule) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE rules SET name = ?, is_enabled = ?, priority = ?, scope = ?, feed_ids = ?, category_ids = ?,
		  advanced = ?, stop_on_match = ?, target = ?, operator = ?, value = ?, regex_pattern = ?,
		  action_type = ?, category_id = ?, tag_ids = ?, highlight_color = ?,
		  notification_template = ?, notification_priority = ?, last_modified = ?
		 WHERE id = ?`,
		rule.Name, boolToInt(rule.IsEnabled), rule.Priority, string(rule.Scope),
		rule.FeedIDs.String(), rule.CategoryIDs.String(),
		boolToInt(rule.Advanced), boolToInt(rule.StopOnMatch),
		string(rule.Target), string(rule.Operator), rule.Value, rule.RegexPattern,
		string(rule.ActionType), rule.CategoryID, rule.TagIDs.String(), rule.HighlightColor,
		rule.NotificationTemplate, string(rule.NotificationPriority),
		rule.LastModified.UTC().Format(timeLayout), rule.ID,
	)
	if err != nil {
		return fmt.Errorf("update rule: %w", err)
	}
	return nil
}

// DeleteRule removes a rule and its conditions.
func (s *SQLite) DeleteRule(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM rule_conditions WHERE rule_id = ?`, id); err != nil {
		return fmt.Errorf("delete rule conditions: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM rules WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete rule: %w", err)
	}
	return tx.Commit()
}

// RuleExistsByName reports whether another rule already uses the name.
// Pass excludeID 0 when creating.
func (s *SQLite) RuleExistsByName(ctx context.Context, name string, excludeID int64) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM rules WHERE name = ? COLLATE NOCASE AND id != ?`,
		name, excludeID,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check rule name: %w", err)
	}
	return count > 0, nil
}

// RecordRuleMatch atomically increments the rule's match counter and
// refreshes its LastModified timestamp. The increment happens in SQL
// so concurrent matches of the same rule never lose updates.
func (s *SQLite) RecordRuleMatch(ctx context.Context, id int64) error {
	now := time.Now().UTC().Format(timeLayout)
	_, err := s.db.ExecContext(ctx,
		`UPDATE rules SET match_count = match_count + 1, last_modified = ? WHERE id = ?`,
		now, id,
	)
	if err != nil {
		return fmt.Errorf("record rule match: %w", err)
	}
	return nil
}

// CreateCondition inserts a new condition and populates its ID and CreatedAt.
func (s *SQLite) CreateCondition(ctx context.Context, c *model.RuleCondition) error {
	now := time.Now().UTC().Format(timeLayout)
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO rule_conditions (rule_id, group_id, position, field, operator, value,
		  regex_pattern, date_format, negate, combine_with_next, case_sensitive, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.RuleID, c.GroupID, c.Position, string(c.Field), string(c.Operator), c.Value,
		c.RegexPattern, c.DateFormat, boolToInt(c.Negate), string(c.CombineWithNext),
		boolToInt(c.CaseSensitive), now,
	)
	if err != nil {
		return fmt.Errorf("insert condition: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	c.ID = id
	c.CreatedAt, _ = time.Parse(timeLayout, now)
	return nil
}

// ListConditions returns a rule's conditions ordered by group and position.
func (s *SQLite) ListConditions(ctx context.Context, ruleID int64) ([]model.RuleCondition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, rule_id, group_id, position, field, operator, value,
		  regex_pattern, date_format, negate, combine_with_next, case_sensitive, created_at
		 FROM rule_conditions WHERE rule_id = ? ORDER BY group_id, position`, ruleID,
	)
	if err != nil {
		return nil, fmt.Errorf("query conditions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var conds []model.RuleCondition
	for rows.Next() {
		var c model.RuleCondition
		var field, operator, combine, created string
		var negate, caseSensitive int
		err := rows.Scan(&c.ID, &c.RuleID, &c.GroupID, &c.Position, &field, &operator, &c.Value,
			&c.RegexPattern, &c.DateFormat, &negate, &combine, &caseSensitive, &created)
		if err != nil {
			return nil, fmt.Errorf("scan condition: %w", err)
		}
		c.Field = model.RuleField(field)
		c.Operator = model.RuleOperator(operator)
		c.CombineWithNext = model.LogicalOperator(combine)
		c.Negate = negate == 1
		c.CaseSensitive = caseSensitive == 1
		c.CreatedAt, _ = time.Parse(timeLayout, created)
		conds = append(conds, c)
	}
	return conds, rows.Err()
}

// DeleteCondition removes a condition by its ID.
func (s *SQLite) DeleteCondition(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM rule_conditions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete condition: %w", err)
	}
	return nil
}

func scanRule(row scannable) (*model.Rule, error) {
	var r model.Rule
	var isEnabled, advanced, stopOnMatch int
	var scope, target, operator, actionType, priority string
	var feedIDs, categoryIDs, tagIDs sql.NullString
	var categoryID sql.NullInt64
	var created, modified sql.NullString
	err := row.Scan(&r.ID, &r.Name, &isEnabled, &r.Priority, &scope, &feedIDs, &categoryIDs,
		&advanced, &stopOnMatch, &target, &operator, &r.Value, &r.RegexPattern,
		&actionType, &categoryID, &tagIDs, &r.HighlightColor,
		&r.NotificationTemplate, &priority, &r.MatchCount, &created, &modified)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan rule: %w", err)
	}
	r.IsEnabled = isEnabled == 1
	r.Advanced = advanced == 1
	r.StopOnMatch = stopOnMatch == 1
	r.Scope = model.RuleScope(scope)
	r.Target = model.RuleField(target)
	r.Operator = model.RuleOperator(operator)
	r.ActionType = model.ActionType(actionType)
	r.NotificationPriority = model.NotificationPriority(priority)
	if categoryID.Valid {
		r.CategoryID = &categoryID.Int64
	}
	if feedIDs.Valid {
		r.FeedIDs, _ = model.ParseIDList(feedIDs.String)
	}
	if categoryIDs.Valid {
		r.CategoryIDs, _ = model.ParseIDList(categoryIDs.String)
	}
	if tagIDs.Valid {
		r.TagIDs, _ = model.ParseIDList(tagIDs.String)
	}
	if created.Valid {
		r.CreatedAt, _ = time.Parse(timeLayout, created.String)
	}
	if modified.Valid {
		r.LastModified, _ = time.Parse(timeLayout, modified.String)
	}
	return &r, nil
}
