package form

import (
	"sort"
	"strings"
)

// Tag names a validation rule that failed.
type Tag string

const (
	BadLogin      Tag = "BadLogin"
	BadName       Tag = "BadName"
	BadPassword   Tag = "BadPassword"
	AlreadyExists Tag = "AlreadyExists"
)

// Violations is the set of rules a submitted form broke. A nil set is empty.
type Violations map[Tag]struct{}

func (v Violations) Add(tag Tag) Violations {
	if v == nil {
		v = Violations{}
	}
	v[tag] = struct{}{}
	return v
}

func (v Violations) Has(tag Tag) bool {
	_, ok := v[tag]
	return ok
}

func (v Violations) Empty() bool {
	return len(v) == 0
}

// Tags returns the violated tags sorted by name.
func (v Violations) Tags() []Tag {
	tags := make([]Tag, 0, len(v))
	for tag := range v {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}

// Error makes a non-empty set usable as an error value.
func (v Violations) Error() string {
	parts := make([]string, 0, len(v))
	for _, tag := range v.Tags() {
		parts = append(parts, string(tag))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// Err returns nil for an empty set, the set itself otherwise.
func (v Violations) Err() error {
	if v.Empty() {
		return nil
	}
	return v
}
