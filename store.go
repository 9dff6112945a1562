package catalogaccess

import (
	"context"
	"time"
)

// RuleStore persists the two rule sets. Reads return ErrRuleNotFound when no
// row exists; Save upserts (at most one row per client/user, enforced by the
// store's unique key).
type RuleStore interface {
	GetClientRule(ctx context.Context, clientID string) (*ClientRule, error)
	SaveClientRule(ctx context.Context, rule *ClientRule) error
	GetUserRule(ctx context.Context, userID string) (*UserRule, error)
	SaveUserRule(ctx context.Context, rule *UserRule) error
}

// CatalogStore is the read-only view of the shared service catalog.
type CatalogStore interface {
	GetCategory(ctx context.Context, id string) (*Category, error)
	ListCategories(ctx context.Context, organizationID string) ([]*Category, error)
	GetItem(ctx context.Context, id string) (*Item, error)
	ListItems(ctx context.Context, organizationID string, filter ItemFilter) ([]*Item, error)
}

// AuditStore appends immutable change records and serves paginated history.
// History returns entries newest first along with the total matching count.
type AuditStore interface {
	Append(ctx context.Context, entry *AuditEntry) error
	History(ctx context.Context, filter AuditFilter) ([]*AuditEntry, int, error)
}

// PermissionCache memoizes effective permissions per user, with bulk
// invalidation per client. The ttl passed to Put bounds the entry's lifetime;
// a non-positive ttl falls back to the implementation's default.
// Implementations must be safe to miss: any failure degrades to
// recomputation, never to a wrong answer.
type PermissionCache interface {
	Get(ctx context.Context, userID string) (*EffectivePermission, error)
	Put(ctx context.Context, userID, clientID string, perm *EffectivePermission, ttl time.Duration) error
	InvalidateUser(ctx context.Context, userID string) error
	InvalidateClient(ctx context.Context, clientID string) error
}

// Directory resolves a user to its parent client and organization. It is the
// engine's only dependency on the identity layer.
type Directory interface {
	ParentClient(ctx context.Context, userID string) (clientID, organizationID string, err error)
}
