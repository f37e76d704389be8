package rules

import (
	"sort"

	"rss_reader/internal/model"
)

// EvaluateAdvanced folds an advanced rule's conditions into one verdict.
//
// Conditions sharing a GroupID form one group, ordered by Position; the
// group verdict is a left-to-right fold where each condition's
// CombineWithNext joins it to the following condition. Group verdicts
// are then folded the same way, one level up: the last condition of a
// group carries the operator joining that group to the next. The fold
// is lazy — a condition (or whole group) is not evaluated when the
// accumulator already decides the step (false AND x, true OR x).
//
// A rule with no conditions never matches.
func EvaluateAdvanced(conditions []model.RuleCondition, a model.Article) bool {
	groups := groupConditions(conditions)
	if len(groups) == 0 {
		return false
	}

	verdict := evaluateGroup(groups[0], a)
	for i := 1; i < len(groups); i++ {
		op := combinator(groups[i-1][len(groups[i-1])-1])
		if skip(verdict, op) {
			continue
		}
		verdict = apply(verdict, op, evaluateGroup(groups[i], a))
	}
	return verdict
}

func evaluateGroup(group []model.RuleCondition, a model.Article) bool {
	verdict := EvaluateCondition(group[0], a)
	for i := 1; i < len(group); i++ {
		op := combinator(group[i-1])
		if skip(verdict, op) {
			continue
		}
		verdict = apply(verdict, op, EvaluateCondition(group[i], a))
	}
	return verdict
}

// skip reports whether the accumulator already decides this step.
func skip(acc bool, op model.LogicalOperator) bool {
	if op == model.LogicalOr {
		return acc
	}
	return !acc
}

func apply(acc bool, op model.LogicalOperator, v bool) bool {
	if op == model.LogicalOr {
		return acc || v
	}
	return acc && v
}

// combinator returns the condition's CombineWithNext, defaulting to AND
// when unset.
func combinator(c model.RuleCondition) model.LogicalOperator {
	if c.CombineWithNext == model.LogicalOr {
		return model.LogicalOr
	}
	return model.LogicalAnd
}

// groupConditions splits conditions into groups ordered by GroupID,
// each group ordered by Position.
func groupConditions(conditions []model.RuleCondition) [][]model.RuleCondition {
	byGroup := make(map[int][]model.RuleCondition)
	var ids []int
	for _, c := range conditions {
		if _, seen := byGroup[c.GroupID]; !seen {
			ids = append(ids, c.GroupID)
		}
		byGroup[c.GroupID] = append(byGroup[c.GroupID], c)
	}
	sort.Ints(ids)

	groups := make([][]model.RuleCondition, 0, len(ids))
	for _, id := range ids {
		g := byGroup[id]
		sort.Slice(g, func(i, j int) bool { return g[i].Position < g[j].Position })
		groups = append(groups, g)
	}
	return groups
}
