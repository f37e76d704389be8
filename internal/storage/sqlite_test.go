package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"rss_reader/internal/model"
)

func newTestStorage(t *testing.T) *SQLite {
	t.Helper()
	s, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testRule(name string) *model.Rule {
	catID := int64(4)
	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	return &model.Rule{
		Name:                 name,
		IsEnabled:            true,
		Priority:             10,
		Scope:                model.ScopeSpecificFeeds,
		FeedIDs:              model.IDList{1, 2},
		CategoryIDs:          model.IDList{3},
		StopOnMatch:          true,
		Target:               model.FieldTitle,
		Operator:             model.OpContains,
		Value:                "go",
		ActionType:           model.ActionMoveToCategory,
		CategoryID:           &catID,
		TagIDs:               model.IDList{5, 6},
		HighlightColor:       "#ffd700",
		NotificationTemplate: "{{title}}",
		NotificationPriority: model.PriorityHigh,
		CreatedAt:            created,
		LastModified:         created,
	}
}

func TestRuleRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	rule := testRule("round trip")
	if err := s.CreateRule(ctx, rule); err != nil {
		t.Fatalf("create rule: %v", err)
	}
	if rule.ID == 0 {
		t.Fatal("expected id to be assigned")
	}

	got, err := s.GetRule(ctx, rule.ID)
	if err != nil {
		t.Fatalf("get rule: %v", err)
	}
	if diff := cmp.Diff(rule, got); diff != "" {
		t.Errorf("rule mismatch (-want +got):\n%s", diff)
	}
}

func TestGetRuleNotFound(t *testing.T) {
	s := newTestStorage(t)

	_, err := s.GetRule(context.Background(), 42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestGetActiveRules(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	low := testRule("low priority")
	low.Priority = 200
	high := testRule("high priority")
	high.Priority = 1
	disabled := testRule("disabled")
	disabled.IsEnabled = false

	for _, r := range []*model.Rule{low, high, disabled} {
		if err := s.CreateRule(ctx, r); err != nil {
			t.Fatalf("create rule %q: %v", r.Name, err)
		}
	}

	active, err := s.GetActiveRules(ctx)
	if err != nil {
		t.Fatalf("get active rules: %v", err)
	}
	var names []string
	for _, r := range active {
		names = append(names, r.Name)
	}
	if diff := cmp.Diff([]string{"high priority", "low priority"}, names); diff != "" {
		t.Errorf("active rules mismatch (-want +got):\n%s", diff)
	}
}

func TestGetActiveRulesAttachesConditions(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	rule := testRule("advanced")
	rule.Advanced = true
	if err := s.CreateRule(ctx, rule); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	// Inserted out of order; listing must sort by group then position.
	for _, c := range []model.RuleCondition{
		{RuleID: rule.ID, GroupID: 2, Position: 0, Field: model.FieldContent, Operator: model.OpContains, Value: "b", CombineWithNext: model.LogicalAnd},
		{RuleID: rule.ID, GroupID: 1, Position: 1, Field: model.FieldTitle, Operator: model.OpContains, Value: "a2", CombineWithNext: model.LogicalOr},
		{RuleID: rule.ID, GroupID: 1, Position: 0, Field: model.FieldTitle, Operator: model.OpContains, Value: "a1", CombineWithNext: model.LogicalAnd},
	} {
		cond := c
		if err := s.CreateCondition(ctx, &cond); err != nil {
			t.Fatalf("create condition: %v", err)
		}
	}

	active, err := s.GetActiveRules(ctx)
	if err != nil {
		t.Fatalf("get active rules: %v", err)
	}
	if len(active) != 1 {
		t.Fatalf("expected 1 rule, got %d", len(active))
	}
	var values []string
	for _, c := range active[0].Conditions {
		values = append(values, c.Value)
	}
	if diff := cmp.Diff([]string{"a1", "a2", "b"}, values); diff != "" {
		t.Errorf("condition order mismatch (-want +got):\n%s", diff)
	}
}

func TestRecordRuleMatch(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	rule := testRule("counter")
	if err := s.CreateRule(ctx, rule); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := s.RecordRuleMatch(ctx, rule.ID); err != nil {
			t.Fatalf("record match %d: %v", i, err)
		}
	}

	got, err := s.GetRule(ctx, rule.ID)
	if err != nil {
		t.Fatalf("get rule: %v", err)
	}
	if diff := cmp.Diff(int64(3), got.MatchCount); diff != "" {
		t.Errorf("match count mismatch (-want +got):\n%s", diff)
	}
	if !got.LastModified.After(rule.LastModified) {
		t.Errorf("last modified not refreshed: %v", got.LastModified)
	}
}

func TestRuleExistsByName(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	rule := testRule("Mark AI news")
	if err := s.CreateRule(ctx, rule); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	tests := []struct {
		name      string
		query     string
		excludeID int64
		want      bool
	}{
		{name: "exact name", query: "Mark AI news", want: true},
		{name: "different case", query: "mark ai NEWS", want: true},
		{name: "other name", query: "something else", want: false},
		{name: "own id excluded", query: "Mark AI news", excludeID: rule.ID, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.RuleExistsByName(ctx, tt.query, tt.excludeID)
			if err != nil {
				t.Fatalf("rule exists: %v", err)
			}
			if got != tt.want {
				t.Errorf("RuleExistsByName(%q, %d) = %v, want %v", tt.query, tt.excludeID, got, tt.want)
			}
		})
	}
}

func TestDeleteRuleRemovesConditions(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	rule := testRule("doomed")
	rule.Advanced = true
	if err := s.CreateRule(ctx, rule); err != nil {
		t.Fatalf("create rule: %v", err)
	}
	cond := model.RuleCondition{
		RuleID: rule.ID, GroupID: 1, Position: 0,
		Field: model.FieldTitle, Operator: model.OpContains, Value: "x",
		CombineWithNext: model.LogicalAnd,
	}
	if err := s.CreateCondition(ctx, &cond); err != nil {
		t.Fatalf("create condition: %v", err)
	}

	if err := s.DeleteRule(ctx, rule.ID); err != nil {
		t.Fatalf("delete rule: %v", err)
	}

	if _, err := s.GetRule(ctx, rule.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get deleted rule: err = %v, want ErrNotFound", err)
	}
	conds, err := s.ListConditions(ctx, rule.ID)
	if err != nil {
		t.Fatalf("list conditions: %v", err)
	}
	if len(conds) != 0 {
		t.Errorf("expected no conditions after delete, got %d", len(conds))
	}
}

func TestCreateArticleDeduplicates(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	feed := model.Feed{Title: "Tech", URL: "https://t.example/rss", IntervalMinutes: 60, IsActive: true}
	if err := s.CreateFeed(ctx, &feed); err != nil {
		t.Fatalf("create feed: %v", err)
	}

	first := model.Article{FeedID: feed.ID, GUID: "guid-1", Title: "hello"}
	inserted, err := s.CreateArticle(ctx, &first)
	if err != nil {
		t.Fatalf("create article: %v", err)
	}
	if !inserted {
		t.Fatal("expected first insert to report true")
	}
	if first.Status != model.StatusUnread {
		t.Errorf("default status = %q, want %q", first.Status, model.StatusUnread)
	}

	dup := model.Article{FeedID: feed.ID, GUID: "guid-1", Title: "hello again"}
	inserted, err = s.CreateArticle(ctx, &dup)
	if err != nil {
		t.Fatalf("create duplicate: %v", err)
	}
	if inserted {
		t.Error("duplicate feed+guid must not insert")
	}

	// Same GUID under a different feed is a distinct article.
	other := model.Feed{Title: "Other", URL: "https://o.example/rss", IntervalMinutes: 60, IsActive: true}
	if err := s.CreateFeed(ctx, &other); err != nil {
		t.Fatalf("create other feed: %v", err)
	}
	crossFeed := model.Article{FeedID: other.ID, GUID: "guid-1", Title: "hello"}
	inserted, err = s.CreateArticle(ctx, &crossFeed)
	if err != nil {
		t.Fatalf("create cross-feed article: %v", err)
	}
	if !inserted {
		t.Error("same guid under another feed must insert")
	}
}

func TestListUnprocessedArticles(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	feed := model.Feed{Title: "Tech", URL: "https://t.example/rss", IntervalMinutes: 60, IsActive: true}
	if err := s.CreateFeed(ctx, &feed); err != nil {
		t.Fatalf("create feed: %v", err)
	}

	var ids []int64
	for _, guid := range []string{"a", "b", "c"} {
		a := model.Article{FeedID: feed.ID, GUID: guid, Title: guid}
		if _, err := s.CreateArticle(ctx, &a); err != nil {
			t.Fatalf("create article %q: %v", guid, err)
		}
		ids = append(ids, a.ID)
	}
	if err := s.MarkArticleProcessed(ctx, ids[0]); err != nil {
		t.Fatalf("mark processed: %v", err)
	}

	pending, err := s.ListUnprocessedArticles(ctx, 0)
	if err != nil {
		t.Fatalf("list unprocessed: %v", err)
	}
	var guids []string
	for _, a := range pending {
		guids = append(guids, a.GUID)
	}
	if diff := cmp.Diff([]string{"b", "c"}, guids); diff != "" {
		t.Errorf("unprocessed articles mismatch (-want +got):\n%s", diff)
	}

	limited, err := s.ListUnprocessedArticles(ctx, 1)
	if err != nil {
		t.Fatalf("list unprocessed with limit: %v", err)
	}
	if len(limited) != 1 || limited[0].GUID != "b" {
		t.Errorf("limit = 1 should return oldest pending article, got %v", limited)
	}
}

func TestUpdateArticle(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	feed := model.Feed{Title: "Tech", URL: "https://t.example/rss", IntervalMinutes: 60, IsActive: true}
	if err := s.CreateFeed(ctx, &feed); err != nil {
		t.Fatalf("create feed: %v", err)
	}
	a := model.Article{FeedID: feed.ID, GUID: "g", Title: "t"}
	if _, err := s.CreateArticle(ctx, &a); err != nil {
		t.Fatalf("create article: %v", err)
	}

	a.Status = model.StatusArchived
	a.Starred = true
	a.HighlightColor = "#00ff00"
	if err := s.UpdateArticle(ctx, &a); err != nil {
		t.Fatalf("update article: %v", err)
	}

	got, err := s.GetArticle(ctx, a.ID)
	if err != nil {
		t.Fatalf("get article: %v", err)
	}
	if got.Status != model.StatusArchived || !got.Starred || got.HighlightColor != "#00ff00" {
		t.Errorf("article not updated: %+v", got)
	}
}

func TestApplyTagsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	feed := model.Feed{Title: "Tech", URL: "https://t.example/rss", IntervalMinutes: 60, IsActive: true}
	if err := s.CreateFeed(ctx, &feed); err != nil {
		t.Fatalf("create feed: %v", err)
	}
	a := model.Article{FeedID: feed.ID, GUID: "g", Title: "t"}
	if _, err := s.CreateArticle(ctx, &a); err != nil {
		t.Fatalf("create article: %v", err)
	}
	tag := model.Tag{Name: "important"}
	if err := s.CreateTag(ctx, &tag); err != nil {
		t.Fatalf("create tag: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := s.ApplyTags(ctx, a.ID, model.IDList{tag.ID}); err != nil {
			t.Fatalf("apply tags run %d: %v", i, err)
		}
	}

	tags, err := s.ListArticleTags(ctx, a.ID)
	if err != nil {
		t.Fatalf("list article tags: %v", err)
	}
	if len(tags) != 1 || tags[0].Name != "important" {
		t.Errorf("tags = %v, want exactly one %q", tags, "important")
	}
}

func TestListDueFeeds(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	never := model.Feed{Title: "never fetched", URL: "https://a.example/rss", IntervalMinutes: 60, IsActive: true}
	stale := model.Feed{Title: "stale", URL: "https://b.example/rss", IntervalMinutes: 60, IsActive: true}
	fresh := model.Feed{Title: "fresh", URL: "https://c.example/rss", IntervalMinutes: 60, IsActive: true}
	inactive := model.Feed{Title: "inactive", URL: "https://d.example/rss", IntervalMinutes: 60, IsActive: false}

	for _, f := range []*model.Feed{&never, &stale, &fresh, &inactive} {
		if err := s.CreateFeed(ctx, f); err != nil {
			t.Fatalf("create feed %q: %v", f.Title, err)
		}
	}

	twoHoursAgo := time.Now().UTC().Add(-2 * time.Hour)
	stale.LastFetchAt = &twoHoursAgo
	if err := s.UpdateFeed(ctx, &stale); err != nil {
		t.Fatalf("update stale feed: %v", err)
	}
	justNow := time.Now().UTC()
	fresh.LastFetchAt = &justNow
	if err := s.UpdateFeed(ctx, &fresh); err != nil {
		t.Fatalf("update fresh feed: %v", err)
	}

	due, err := s.ListDueFeeds(ctx)
	if err != nil {
		t.Fatalf("list due feeds: %v", err)
	}
	var titles []string
	for _, f := range due {
		titles = append(titles, f.Title)
	}
	if diff := cmp.Diff([]string{"never fetched", "stale"}, titles); diff != "" {
		t.Errorf("due feeds mismatch (-want +got):\n%s", diff)
	}
}

func TestDeleteFeedCascades(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	feed := model.Feed{Title: "Tech", URL: "https://t.example/rss", IntervalMinutes: 60, IsActive: true}
	if err := s.CreateFeed(ctx, &feed); err != nil {
		t.Fatalf("create feed: %v", err)
	}
	a := model.Article{FeedID: feed.ID, GUID: "g", Title: "t"}
	if _, err := s.CreateArticle(ctx, &a); err != nil {
		t.Fatalf("create article: %v", err)
	}
	tag := model.Tag{Name: "keep"}
	if err := s.CreateTag(ctx, &tag); err != nil {
		t.Fatalf("create tag: %v", err)
	}
	if err := s.ApplyTags(ctx, a.ID, model.IDList{tag.ID}); err != nil {
		t.Fatalf("apply tags: %v", err)
	}

	if err := s.DeleteFeed(ctx, feed.ID); err != nil {
		t.Fatalf("delete feed: %v", err)
	}

	if _, err := s.GetFeed(ctx, feed.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get deleted feed: err = %v, want ErrNotFound", err)
	}
	if _, err := s.GetArticle(ctx, a.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("get orphaned article: err = %v, want ErrNotFound", err)
	}
	tags, err := s.ListArticleTags(ctx, a.ID)
	if err != nil {
		t.Fatalf("list article tags: %v", err)
	}
	if len(tags) != 0 {
		t.Errorf("expected article tags to be removed, got %d", len(tags))
	}
}

func TestFeedRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t)

	cat := model.Category{Title: "Tech"}
	if err := s.CreateCategory(ctx, &cat); err != nil {
		t.Fatalf("create category: %v", err)
	}

	feed := model.Feed{Title: "Go Blog", URL: "https://go.example/rss", CategoryID: &cat.ID, IntervalMinutes: 30, IsActive: true}
	if err := s.CreateFeed(ctx, &feed); err != nil {
		t.Fatalf("create feed: %v", err)
	}

	got, err := s.GetFeed(ctx, feed.ID)
	if err != nil {
		t.Fatalf("get feed: %v", err)
	}
	if diff := cmp.Diff(&feed, got); diff != "" {
		t.Errorf("feed mismatch (-want +got):\n%s", diff)
	}
}
