package catalogaccess

import (
	"errors"
	"fmt"
	"strings"
)

// ErrRuleNotFound is returned by RuleStore implementations when no row exists
// for the requested client or user. The engine maps it to a default rule;
// callers normally never see it.
var ErrRuleNotFound = errors.New("access rule not found")

// ErrNotFound covers absent clients, users, categories and items.
var ErrNotFound = errors.New("not found")

// ErrCacheMiss is returned by PermissionCache implementations when no entry
// exists for the user. Cache failures of any other kind are treated the same
// way by the engine: recompute from the rule store.
var ErrCacheMiss = errors.New("permission cache miss")

// ValidationError reports a bad enum value or malformed field on a write.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

// InvalidReferencesError carries every category/item id on a rule write that
// does not exist within the organization. Reference checks collect all
// offenders instead of failing on the first, so one response can report the
// complete set.
type InvalidReferencesError struct {
	Categories []string
	Items      []string
}

func (e *InvalidReferencesError) Error() string {
	parts := make([]string, 0, 2)
	if len(e.Categories) > 0 {
		parts = append(parts, fmt.Sprintf("categories [%s]", strings.Join(e.Categories, ", ")))
	}
	if len(e.Items) > 0 {
		parts = append(parts, fmt.Sprintf("items [%s]", strings.Join(e.Items, ", ")))
	}
	return "invalid references: " + strings.Join(parts, "; ")
}

// Empty reports whether the error carries no offending ids.
func (e *InvalidReferencesError) Empty() bool {
	return len(e.Categories) == 0 && len(e.Items) == 0
}
