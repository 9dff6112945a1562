package utils

import (
	"sort"
	"strings"
)

// NormalizeIDs trims whitespace, drops empty strings, deduplicates and sorts.
// A result with no elements is returned as nil so optional lists serialize as
// absent rather than as [].
func NormalizeIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	if len(out) == 0 {
		return nil
	}
	sort.Strings(out)
	return out
}

// Union merges two id lists into a normalized result.
func Union(a, b []string) []string {
	if len(a) == 0 {
		return NormalizeIDs(b)
	}
	if len(b) == 0 {
		return NormalizeIDs(a)
	}
	merged := make([]string, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	return NormalizeIDs(merged)
}

// ToSet converts an id list into a membership set.
func ToSet(ids []string) map[string]struct{} {
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// EqualUnordered reports whether two id lists hold the same members,
// ignoring order and duplicates.
func EqualUnordered(a, b []string) bool {
	na, nb := NormalizeIDs(a), NormalizeIDs(b)
	if len(na) != len(nb) {
		return false
	}
	for i := range na {
		if na[i] != nb[i] {
			return false
		}
	}
	return true
}
