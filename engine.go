package catalogaccess

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oarkflow/catalogaccess/logger"
	"github.com/oarkflow/catalogaccess/utils"
)

// ============================================================================
// ENGINE
// ============================================================================

const defaultCacheTTL = 5 * time.Minute

// Engine is the catalog access-control resolution engine. It owns rule
// validation, effective-permission resolution, catalog filtering, audit
// logging and cache invalidation. It holds no mutable state of its own beyond
// the injected handles, so concurrent use needs no locking here.
type Engine struct {
	rules     RuleStore
	catalog   CatalogStore
	audit     AuditStore
	directory Directory

	cache       PermissionCache // nil means always-miss
	cacheTTL    time.Duration
	logger      logger.Logger
	traceIDFunc logger.TraceIDFunc
}

// EngineOption configures an Engine at construction time.
type EngineOption func(*Engine) error

func NewEngine(rules RuleStore, catalog CatalogStore, audit AuditStore, directory Directory, opts ...EngineOption) (*Engine, error) {
	if rules == nil || catalog == nil || audit == nil || directory == nil {
		return nil, errors.New("catalogaccess: rule store, catalog store, audit store and directory are required")
	}
	e := &Engine{
		rules:       rules,
		catalog:     catalog,
		audit:       audit,
		directory:   directory,
		cacheTTL:    defaultCacheTTL,
		logger:      logger.NewNullLogger(),
		traceIDFunc: uuid.NewString,
	}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// CacheTTL is the time-to-live applied to cached effective permissions.
func (e *Engine) CacheTTL() time.Duration { return e.cacheTTL }

// ============================================================================
// RULE READS
// ============================================================================

// GetClientRule returns the stored rule for a client, or the default
// (access all, empty lists, IsDefault=true) when none exists. Absence of a
// rule is a valid state, not an error.
func (e *Engine) GetClientRule(ctx context.Context, organizationID, clientID string) (*ClientRule, error) {
	rule, err := e.rules.GetClientRule(ctx, clientID)
	if errors.Is(err, ErrRuleNotFound) {
		return DefaultClientRule(organizationID, clientID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get client rule %s: %w", clientID, err)
	}
	return rule, nil
}

// GetUserRule returns the stored rule for a user, or the inherit default when
// none exists.
func (e *Engine) GetUserRule(ctx context.Context, userID string) (*UserRule, error) {
	rule, err := e.rules.GetUserRule(ctx, userID)
	if errors.Is(err, ErrRuleNotFound) {
		clientID, orgID, derr := e.directory.ParentClient(ctx, userID)
		if derr != nil {
			return nil, fmt.Errorf("resolve parent client of %s: %w", userID, derr)
		}
		return DefaultUserRule(orgID, userID, clientID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user rule %s: %w", userID, err)
	}
	return rule, nil
}

// ============================================================================
// RULE WRITES
// ============================================================================

// SetClientRule validates, normalizes and upserts a client rule, records an
// audit entry and invalidates every cached permission under the client. The
// returned rule is the persisted state.
func (e *Engine) SetClientRule(ctx context.Context, rule *ClientRule, actor Actor) (*ClientRule, error) {
	if rule == nil || rule.ClientID == "" {
		return nil, &ValidationError{Field: "client_id", Value: ""}
	}
	if !rule.AccessMode.Valid() {
		return nil, &ValidationError{Field: "access_mode", Value: string(rule.AccessMode)}
	}
	e.normalizeLists(&rule.AllowedCategories, &rule.AllowedItems, &rule.DeniedCategories, &rule.DeniedItems)
	if err := e.verifyReferences(ctx, rule.OrganizationID,
		utils.Union(rule.AllowedCategories, rule.DeniedCategories),
		utils.Union(rule.AllowedItems, rule.DeniedItems)); err != nil {
		return nil, err
	}

	prev, err := e.rules.GetClientRule(ctx, rule.ClientID)
	created := errors.Is(err, ErrRuleNotFound)
	if err != nil && !created {
		return nil, fmt.Errorf("load previous client rule %s: %w", rule.ClientID, err)
	}

	now := time.Now()
	rule.IsDefault = false
	rule.UpdatedBy = actor.ID
	rule.UpdatedAt = now
	if created {
		rule.CreatedAt = now
	} else {
		rule.CreatedAt = prev.CreatedAt
	}
	if err := e.rules.SaveClientRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("save client rule %s: %w", rule.ClientID, err)
	}

	e.auditRuleChange(ctx, rule.OrganizationID, EntityClient, rule.ClientID, created, prev, rule, actor)

	if e.cache != nil {
		if cerr := e.cache.InvalidateClient(ctx, rule.ClientID); cerr != nil {
			e.logger.Error("client cache invalidation failed", "client_id", rule.ClientID, "error", cerr.Error())
		}
	}
	return rule, nil
}

// SetUserRule validates, normalizes and upserts a user rule, records an audit
// entry and invalidates the user's cached permission.
func (e *Engine) SetUserRule(ctx context.Context, rule *UserRule, actor Actor) (*UserRule, error) {
	if rule == nil || rule.UserID == "" {
		return nil, &ValidationError{Field: "user_id", Value: ""}
	}
	if !rule.AccessMode.Valid() {
		return nil, &ValidationError{Field: "access_mode", Value: string(rule.AccessMode)}
	}
	if !rule.InheritanceMode.Valid() {
		return nil, &ValidationError{Field: "inheritance_mode", Value: string(rule.InheritanceMode)}
	}
	if rule.ClientID == "" || rule.OrganizationID == "" {
		clientID, orgID, err := e.directory.ParentClient(ctx, rule.UserID)
		if err != nil {
			return nil, fmt.Errorf("resolve parent client of %s: %w", rule.UserID, err)
		}
		if rule.ClientID == "" {
			rule.ClientID = clientID
		}
		if rule.OrganizationID == "" {
			rule.OrganizationID = orgID
		}
	}
	e.normalizeLists(&rule.AllowedCategories, &rule.AllowedItems, &rule.DeniedCategories, &rule.DeniedItems)
	if err := e.verifyReferences(ctx, rule.OrganizationID,
		utils.Union(rule.AllowedCategories, rule.DeniedCategories),
		utils.Union(rule.AllowedItems, rule.DeniedItems)); err != nil {
		return nil, err
	}

	prev, err := e.rules.GetUserRule(ctx, rule.UserID)
	created := errors.Is(err, ErrRuleNotFound)
	if err != nil && !created {
		return nil, fmt.Errorf("load previous user rule %s: %w", rule.UserID, err)
	}

	now := time.Now()
	rule.IsDefault = false
	rule.UpdatedBy = actor.ID
	rule.UpdatedAt = now
	if created {
		rule.CreatedAt = now
	} else {
		rule.CreatedAt = prev.CreatedAt
	}
	if err := e.rules.SaveUserRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("save user rule %s: %w", rule.UserID, err)
	}

	e.auditRuleChange(ctx, rule.OrganizationID, EntityClientUser, rule.UserID, created, prev, rule, actor)

	if e.cache != nil {
		if cerr := e.cache.InvalidateUser(ctx, rule.UserID); cerr != nil {
			e.logger.Error("user cache invalidation failed", "user_id", rule.UserID, "error", cerr.Error())
		}
	}
	return rule, nil
}

// normalizeLists applies the uniform boundary normalization: trim, drop
// empties, dedupe, sort. Empty results become nil.
func (e *Engine) normalizeLists(lists ...*[]string) {
	for _, l := range lists {
		*l = utils.NormalizeIDs(*l)
	}
}

// verifyReferences confirms every referenced category and item id exists in
// the organization's catalog, collecting all offenders before reporting.
func (e *Engine) verifyReferences(ctx context.Context, organizationID string, categoryIDs, itemIDs []string) error {
	if len(categoryIDs) == 0 && len(itemIDs) == 0 {
		return nil
	}
	refErr := &InvalidReferencesError{}
	if len(categoryIDs) > 0 {
		cats, err := e.catalog.ListCategories(ctx, organizationID)
		if err != nil {
			return fmt.Errorf("list categories for %s: %w", organizationID, err)
		}
		known := make(map[string]struct{}, len(cats))
		for _, c := range cats {
			known[c.ID] = struct{}{}
		}
		for _, id := range categoryIDs {
			if _, ok := known[id]; !ok {
				refErr.Categories = append(refErr.Categories, id)
			}
		}
	}
	if len(itemIDs) > 0 {
		items, err := e.catalog.ListItems(ctx, organizationID, ItemFilter{IncludeInactive: true})
		if err != nil {
			return fmt.Errorf("list items for %s: %w", organizationID, err)
		}
		known := make(map[string]struct{}, len(items))
		for _, it := range items {
			known[it.ID] = struct{}{}
		}
		for _, id := range itemIDs {
			if _, ok := known[id]; !ok {
				refErr.Items = append(refErr.Items, id)
			}
		}
	}
	if !refErr.Empty() {
		return refErr
	}
	return nil
}

// ============================================================================
// RESOLUTION
// ============================================================================

// EffectiveAccess returns the resolved permission for a user, cache-first.
// Cache failures are logged and degrade to recomputation from the rule store.
func (e *Engine) EffectiveAccess(ctx context.Context, userID string) (*EffectivePermission, error) {
	if e.cache != nil {
		perm, err := e.cache.Get(ctx, userID)
		if err == nil {
			return perm, nil
		}
		if !errors.Is(err, ErrCacheMiss) {
			e.logger.Debug("permission cache read failed", "user_id", userID, "error", err.Error())
		}
	}

	clientID, orgID, err := e.directory.ParentClient(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve parent client of %s: %w", userID, err)
	}
	clientRule, err := e.GetClientRule(ctx, orgID, clientID)
	if err != nil {
		return nil, err
	}
	userRule, err := e.rules.GetUserRule(ctx, userID)
	if errors.Is(err, ErrRuleNotFound) {
		userRule = DefaultUserRule(orgID, userID, clientID)
	} else if err != nil {
		return nil, fmt.Errorf("get user rule %s: %w", userID, err)
	}

	perm := Combine(clientRule, userRule)
	perm.UserID = userID
	perm.OrganizationID = orgID

	if e.cache != nil {
		if cerr := e.cache.Put(ctx, userID, clientID, perm, e.cacheTTL); cerr != nil {
			e.logger.Debug("permission cache write failed", "user_id", userID, "error", cerr.Error())
		}
	}
	return perm, nil
}

// ============================================================================
// FILTERING
// ============================================================================

// FilterItems returns the catalog items visible to the user. The effective
// permission and the category snapshot are each loaded once; ancestor chains
// are memoized across items. Under access mode none the catalog store is not
// touched at all.
func (e *Engine) FilterItems(ctx context.Context, userID string, filter ItemFilter) ([]*Item, error) {
	perm, err := e.EffectiveAccess(ctx, userID)
	if err != nil {
		return nil, err
	}
	if perm.AccessMode == AccessNone {
		return []*Item{}, nil
	}

	categories, err := e.catalog.ListCategories(ctx, perm.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("list categories for %s: %w", perm.OrganizationID, err)
	}
	idx := newCategoryIndex(categories)
	items, err := e.catalog.ListItems(ctx, perm.OrganizationID, filter)
	if err != nil {
		return nil, fmt.Errorf("list items for %s: %w", perm.OrganizationID, err)
	}

	ps := compilePermission(perm)
	visible := make([]*Item, 0, len(items))
	for _, it := range items {
		if ps.accessible(it.CategoryID, it.ID, idx.Ancestors(it.CategoryID)) {
			visible = append(visible, it)
		}
	}
	return visible, nil
}

// CategoryTree returns the accessible category tree for the user's UI
// navigation.
func (e *Engine) CategoryTree(ctx context.Context, userID string) ([]*CategoryNode, error) {
	perm, err := e.EffectiveAccess(ctx, userID)
	if err != nil {
		return nil, err
	}
	if perm.AccessMode == AccessNone {
		return []*CategoryNode{}, nil
	}
	categories, err := e.catalog.ListCategories(ctx, perm.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("list categories for %s: %w", perm.OrganizationID, err)
	}
	return BuildCategoryTree(perm, categories), nil
}

// ItemAccessible answers a single-item accessibility query.
func (e *Engine) ItemAccessible(ctx context.Context, userID, itemID string) (bool, error) {
	d, err := e.ExplainAccess(ctx, userID, itemID)
	if err != nil {
		return false, err
	}
	return d.Allowed, nil
}

// ExplainAccess resolves the user's permission and returns a traced decision
// for one item, for admin debugging.
func (e *Engine) ExplainAccess(ctx context.Context, userID, itemID string) (*AccessDecision, error) {
	perm, err := e.EffectiveAccess(ctx, userID)
	if err != nil {
		return nil, err
	}
	item, err := e.catalog.GetItem(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", itemID, err)
	}
	if item.OrganizationID != perm.OrganizationID {
		return nil, fmt.Errorf("item %s: %w", itemID, ErrNotFound)
	}
	categories, err := e.catalog.ListCategories(ctx, perm.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("list categories for %s: %w", perm.OrganizationID, err)
	}
	idx := newCategoryIndex(categories)
	return explainAccess(perm, item.CategoryID, item.ID, idx.Ancestors(item.CategoryID)), nil
}

// ============================================================================
// AUDIT
// ============================================================================

// auditRuleChange records a mutation best-effort: a failed append is logged
// and never rolls back the rule write that triggered it.
func (e *Engine) auditRuleChange(ctx context.Context, organizationID string, entityType EntityType, entityID string, created bool, prev, next any, actor Actor) {
	action := AuditUpdate
	if created {
		action = AuditCreate
	}
	entry := &AuditEntry{
		ID:             e.traceIDFunc(),
		OrganizationID: organizationID,
		EntityType:     entityType,
		EntityID:       entityID,
		Action:         action,
		ActorID:        actor.ID,
		ActorName:      actor.Name,
		Origin:         actor.Origin,
		CreatedAt:      time.Now(),
	}
	if !created && prev != nil {
		if b, err := json.Marshal(prev); err == nil {
			entry.PreviousState = b
		}
	}
	if next != nil {
		if b, err := json.Marshal(next); err == nil {
			entry.NewState = b
		}
	}
	if err := entry.Validate(); err != nil {
		e.logger.Error("audit entry invalid", "entity_id", entityID, "error", err.Error())
		return
	}
	if err := e.audit.Append(ctx, entry); err != nil {
		e.logger.Error("audit append failed", "entity_type", string(entityType), "entity_id", entityID, "error", err.Error())
		return
	}
	e.logger.Debug("rule change audited", "entity_type", string(entityType), "entity_id", entityID, "action", string(action), "actor_id", actor.ID)
}

// AuditHistory returns the change log for a client or user, newest first,
// with the total count and a has-more flag.
func (e *Engine) AuditHistory(ctx context.Context, filter AuditFilter) (*AuditPage, error) {
	if filter.EntityType != "" && !filter.EntityType.Valid() {
		return nil, &ValidationError{Field: "entity_type", Value: string(filter.EntityType)}
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	entries, total, err := e.audit.History(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("audit history: %w", err)
	}
	return &AuditPage{
		Entries: entries,
		Total:   total,
		HasMore: filter.Offset+len(entries) < total,
	}, nil
}
