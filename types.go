package catalogaccess

import (
	"encoding/json"
	"time"
)

// ============================================================================
// DOMAIN OBJECTS
// ============================================================================

// AccessMode is the coarse policy governing a rule.
type AccessMode string

const (
	AccessAll      AccessMode = "all"
	AccessSelected AccessMode = "selected"
	AccessNone     AccessMode = "none"
)

// Valid reports whether m is one of the three enumerated modes.
func (m AccessMode) Valid() bool {
	return m == AccessAll || m == AccessSelected || m == AccessNone
}

// InheritanceMode controls how a user rule combines with its client rule.
type InheritanceMode string

const (
	InheritanceInherit  InheritanceMode = "inherit"
	InheritanceOverride InheritanceMode = "override"
	InheritanceExtend   InheritanceMode = "extend"
)

// Valid reports whether m is one of the three enumerated modes.
func (m InheritanceMode) Valid() bool {
	return m == InheritanceInherit || m == InheritanceOverride || m == InheritanceExtend
}

// ClientRule is the catalog access policy of a customer organization.
// At most one row exists per client; absence means the default (full access).
type ClientRule struct {
	OrganizationID    string     `json:"organization_id" yaml:"organization_id"`
	ClientID          string     `json:"client_id" yaml:"client_id"`
	AccessMode        AccessMode `json:"access_mode" yaml:"access_mode"`
	AllowedCategories []string   `json:"allowed_categories" yaml:"allowed_categories"`
	AllowedItems      []string   `json:"allowed_items" yaml:"allowed_items"`
	DeniedCategories  []string   `json:"denied_categories" yaml:"denied_categories"`
	DeniedItems       []string   `json:"denied_items" yaml:"denied_items"`
	UpdatedBy         string     `json:"updated_by,omitempty" yaml:"updated_by,omitempty"`
	IsDefault         bool       `json:"is_default" yaml:"-"`
	CreatedAt         time.Time  `json:"created_at" yaml:"-"`
	UpdatedAt         time.Time  `json:"updated_at" yaml:"-"`
}

// DefaultClientRule is the value object returned when no rule row exists:
// everything is visible and nothing is denied.
func DefaultClientRule(organizationID, clientID string) *ClientRule {
	return &ClientRule{
		OrganizationID: organizationID,
		ClientID:       clientID,
		AccessMode:     AccessAll,
		IsDefault:      true,
	}
}

// UserRule is the per-user refinement of a client rule. The parent client id
// is denormalized onto the row so client-wide cache invalidation does not need
// a reverse lookup.
type UserRule struct {
	OrganizationID    string          `json:"organization_id" yaml:"organization_id"`
	UserID            string          `json:"user_id" yaml:"user_id"`
	ClientID          string          `json:"client_id" yaml:"client_id"`
	InheritanceMode   InheritanceMode `json:"inheritance_mode" yaml:"inheritance_mode"`
	AccessMode        AccessMode      `json:"access_mode" yaml:"access_mode"`
	AllowedCategories []string        `json:"allowed_categories" yaml:"allowed_categories"`
	AllowedItems      []string        `json:"allowed_items" yaml:"allowed_items"`
	DeniedCategories  []string        `json:"denied_categories" yaml:"denied_categories"`
	DeniedItems       []string        `json:"denied_items" yaml:"denied_items"`
	UpdatedBy         string          `json:"updated_by,omitempty" yaml:"updated_by,omitempty"`
	IsDefault         bool            `json:"is_default" yaml:"-"`
	CreatedAt         time.Time       `json:"created_at" yaml:"-"`
	UpdatedAt         time.Time       `json:"updated_at" yaml:"-"`
}

// DefaultUserRule defers entirely to the client rule.
func DefaultUserRule(organizationID, userID, clientID string) *UserRule {
	return &UserRule{
		OrganizationID:  organizationID,
		UserID:          userID,
		ClientID:        clientID,
		InheritanceMode: InheritanceInherit,
		AccessMode:      AccessAll,
		IsDefault:       true,
	}
}

// EffectivePermission is the resolved policy actually enforced for a user.
// It is derived, cached with a TTL, and never persisted as source of truth.
type EffectivePermission struct {
	UserID            string          `json:"user_id"`
	ClientID          string          `json:"client_id"`
	OrganizationID    string          `json:"organization_id"`
	AccessMode        AccessMode      `json:"access_mode"`
	InheritanceMode   InheritanceMode `json:"inheritance_mode"`
	AllowedCategories []string        `json:"allowed_categories"`
	AllowedItems      []string        `json:"allowed_items"`
	DeniedCategories  []string        `json:"denied_categories"`
	DeniedItems       []string        `json:"denied_items"`
	ComputedAt        time.Time       `json:"computed_at"`
}

// Actor identifies who performed a rule mutation.
type Actor struct {
	ID     string `json:"id"`
	Name   string `json:"name,omitempty"`
	Origin string `json:"origin,omitempty"` // remote address, when known
}

// ============================================================================
// AUDIT
// ============================================================================

// EntityType names the kind of rule an audit entry refers to.
type EntityType string

const (
	EntityClient     EntityType = "client"
	EntityClientUser EntityType = "client_user"
)

func (t EntityType) Valid() bool {
	return t == EntityClient || t == EntityClientUser
}

// AuditAction is the mutation recorded by an audit entry.
type AuditAction string

const (
	AuditCreate AuditAction = "create"
	AuditUpdate AuditAction = "update"
	AuditDelete AuditAction = "delete"
)

func (a AuditAction) Valid() bool {
	return a == AuditCreate || a == AuditUpdate || a == AuditDelete
}

// AuditEntry is an immutable record of one rule mutation. A create carries no
// previous state and a delete carries no new state.
type AuditEntry struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"organization_id"`
	EntityType     EntityType      `json:"entity_type"`
	EntityID       string          `json:"entity_id"`
	Action         AuditAction     `json:"action"`
	PreviousState  json.RawMessage `json:"previous_state,omitempty"`
	NewState       json.RawMessage `json:"new_state,omitempty"`
	ActorID        string          `json:"actor_id"`
	ActorName      string          `json:"actor_name,omitempty"`
	Origin         string          `json:"origin,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Validate checks the enum fields and the null-state invariants.
func (e *AuditEntry) Validate() error {
	if !e.EntityType.Valid() {
		return &ValidationError{Field: "entity_type", Value: string(e.EntityType)}
	}
	if !e.Action.Valid() {
		return &ValidationError{Field: "action", Value: string(e.Action)}
	}
	if e.Action == AuditCreate && e.PreviousState != nil {
		return &ValidationError{Field: "previous_state", Value: "must be null for create"}
	}
	if e.Action == AuditDelete && e.NewState != nil {
		return &ValidationError{Field: "new_state", Value: "must be null for delete"}
	}
	return nil
}

// AuditFilter selects audit history. Zero values mean "no constraint".
type AuditFilter struct {
	EntityType EntityType
	EntityID   string
	StartTime  time.Time
	EndTime    time.Time
	Limit      int
	Offset     int
}

// AuditPage is one page of history, newest first.
type AuditPage struct {
	Entries []*AuditEntry `json:"entries"`
	Total   int           `json:"total"`
	HasMore bool          `json:"has_more"`
}

// ============================================================================
// CATALOG (external, read-only)
// ============================================================================

// Category is a node of the shared service-catalog tree. Root categories have
// an empty parent id.
type Category struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	ParentID       string `json:"parent_id,omitempty"`
	Name           string `json:"name"`
	Active         bool   `json:"active"`
}

// Item is a requestable catalog entry; it belongs to exactly one category.
type Item struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	CategoryID     string `json:"category_id"`
	Name           string `json:"name"`
	Active         bool   `json:"active"`
}

// ItemFilter narrows ListItems results.
type ItemFilter struct {
	CategoryID      string
	Search          string
	IncludeInactive bool
}

// CategoryNode is one node of the accessible category tree returned for UI
// navigation.
type CategoryNode struct {
	Category *Category       `json:"category"`
	Children []*CategoryNode `json:"children,omitempty"`
}
