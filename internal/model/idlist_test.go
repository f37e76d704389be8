package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseIDList(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    IDList
		wantErr bool
	}{
		{name: "empty string", raw: "", want: nil},
		{name: "whitespace only", raw: "   ", want: nil},
		{name: "single id", raw: "[7]", want: IDList{7}},
		{name: "several ids", raw: "[1,2,3]", want: IDList{1, 2, 3}},
		{name: "ids with spaces", raw: " [1, 2, 3] ", want: IDList{1, 2, 3}},
		{name: "empty array", raw: "[]", want: IDList{}},
		{name: "not json", raw: "not json", wantErr: true},
		{name: "object instead of array", raw: `{"id":1}`, wantErr: true},
		{name: "strings instead of ints", raw: `["1","2"]`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIDList(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseIDList(%q) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ParseIDList(%q) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}

func TestIDListString(t *testing.T) {
	tests := []struct {
		name string
		list IDList
		want string
	}{
		{name: "nil list", list: nil, want: ""},
		{name: "empty list", list: IDList{}, want: ""},
		{name: "single id", list: IDList{7}, want: "[7]"},
		{name: "several ids", list: IDList{1, 2, 3}, want: "[1,2,3]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.list.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIDListRoundTrip(t *testing.T) {
	orig := IDList{10, 20, 30}
	parsed, err := ParseIDList(orig.String())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if diff := cmp.Diff(orig, parsed); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestIDListContains(t *testing.T) {
	list := IDList{1, 2, 3}
	if !list.Contains(2) {
		t.Error("Contains(2) = false, want true")
	}
	if list.Contains(4) {
		t.Error("Contains(4) = true, want false")
	}
	if (IDList)(nil).Contains(1) {
		t.Error("nil list must contain nothing")
	}
}
