package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// IDList is a list of entity IDs. Inside the engine it is always a
// typed slice; the JSON-array-of-int string form exists only at the
// storage and input edges.
type IDList []int64

// ParseIDList decodes a JSON integer array such as "[1,2,3]".
// An empty or whitespace-only string yields a nil list.
func ParseIDList(raw string) (IDList, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	var ids IDList
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		return nil, fmt.Errorf("parse id list: %w", err)
	}
	return ids, nil
}

// String encodes the list back to its JSON storage form.
// A nil or empty list encodes to the empty string.
func (l IDList) String() string {
	if len(l) == 0 {
		return ""
	}
	b, err := json.Marshal(l)
	if err != nil {
		return ""
	}
	return string(b)
}

// Contains reports whether id is in the list.
func (l IDList) Contains(id int64) bool {
	for _, v := range l {
		if v == id {
			return true
		}
	}
	return false
}
