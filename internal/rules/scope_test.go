package rules

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"rss_reader/internal/model"
)

func TestInScope(t *testing.T) {
	catID := int64(7)
	feedWithCategory := &model.Feed{ID: 2, CategoryID: &catID}
	feedNoCategory := &model.Feed{ID: 2}

	tests := []struct {
		name string
		rule model.Rule
		feed *model.Feed
		want bool
	}{
		{
			name: "all feeds always in scope",
			rule: model.Rule{Scope: model.ScopeAllFeeds},
			feed: feedNoCategory,
			want: true,
		},
		{
			name: "nil feed is out of scope",
			rule: model.Rule{Scope: model.ScopeAllFeeds},
			feed: nil,
			want: false,
		},
		{
			name: "specific feeds: member",
			rule: model.Rule{Scope: model.ScopeSpecificFeeds, FeedIDs: model.IDList{1, 2, 3}},
			feed: feedNoCategory,
			want: true,
		},
		{
			name: "specific feeds: not a member",
			rule: model.Rule{Scope: model.ScopeSpecificFeeds, FeedIDs: model.IDList{1}},
			feed: feedNoCategory,
			want: false,
		},
		{
			name: "specific categories: member",
			rule: model.Rule{Scope: model.ScopeSpecificCategories, CategoryIDs: model.IDList{7}},
			feed: feedWithCategory,
			want: true,
		},
		{
			name: "specific categories: not a member",
			rule: model.Rule{Scope: model.ScopeSpecificCategories, CategoryIDs: model.IDList{8}},
			feed: feedWithCategory,
			want: false,
		},
		{
			name: "specific categories: feed without category never matches",
			rule: model.Rule{Scope: model.ScopeSpecificCategories, CategoryIDs: model.IDList{7}},
			feed: feedNoCategory,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InScope(tt.rule, tt.feed)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("InScope() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
