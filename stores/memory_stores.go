package stores

import (
	"context"
	"sync"
	"time"

	"github.com/oarkflow/catalogaccess"
)

// MemoryRuleStore implements rule persistence in-memory for testing/demo
type MemoryRuleStore struct {
	mu          sync.RWMutex
	clientRules map[string]*catalogaccess.ClientRule
	userRules   map[string]*catalogaccess.UserRule
}

func NewMemoryRuleStore() *MemoryRuleStore {
	return &MemoryRuleStore{
		clientRules: make(map[string]*catalogaccess.ClientRule),
		userRules:   make(map[string]*catalogaccess.UserRule),
	}
}

func (s *MemoryRuleStore) GetClientRule(ctx context.Context, clientID string) (*catalogaccess.ClientRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rule, ok := s.clientRules[clientID]
	if !ok {
		return nil, catalogaccess.ErrRuleNotFound
	}
	dup := *rule
	return &dup, nil
}

func (s *MemoryRuleStore) SaveClientRule(ctx context.Context, rule *catalogaccess.ClientRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dup := *rule
	s.clientRules[rule.ClientID] = &dup
	return nil
}

func (s *MemoryRuleStore) GetUserRule(ctx context.Context, userID string) (*catalogaccess.UserRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rule, ok := s.userRules[userID]
	if !ok {
		return nil, catalogaccess.ErrRuleNotFound
	}
	dup := *rule
	return &dup, nil
}

func (s *MemoryRuleStore) SaveUserRule(ctx context.Context, rule *catalogaccess.UserRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	dup := *rule
	s.userRules[rule.UserID] = &dup
	return nil
}

// MemoryCatalogStore holds a fixed catalog snapshot for tests.
type MemoryCatalogStore struct {
	mu         sync.RWMutex
	categories map[string]*catalogaccess.Category
	items      map[string]*catalogaccess.Item
}

func NewMemoryCatalogStore() *MemoryCatalogStore {
	return &MemoryCatalogStore{
		categories: make(map[string]*catalogaccess.Category),
		items:      make(map[string]*catalogaccess.Item),
	}
}

func (s *MemoryCatalogStore) AddCategory(c *catalogaccess.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories[c.ID] = c
}

func (s *MemoryCatalogStore) AddItem(it *catalogaccess.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[it.ID] = it
}

func (s *MemoryCatalogStore) GetCategory(ctx context.Context, id string) (*catalogaccess.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.categories[id]
	if !ok {
		return nil, catalogaccess.ErrNotFound
	}
	return c, nil
}

func (s *MemoryCatalogStore) ListCategories(ctx context.Context, organizationID string) ([]*catalogaccess.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*catalogaccess.Category, 0)
	for _, c := range s.categories {
		if c.OrganizationID == organizationID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *MemoryCatalogStore) GetItem(ctx context.Context, id string) (*catalogaccess.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	it, ok := s.items[id]
	if !ok {
		return nil, catalogaccess.ErrNotFound
	}
	return it, nil
}

func (s *MemoryCatalogStore) ListItems(ctx context.Context, organizationID string, filter catalogaccess.ItemFilter) ([]*catalogaccess.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*catalogaccess.Item, 0)
	for _, it := range s.items {
		if it.OrganizationID != organizationID {
			continue
		}
		if filter.CategoryID != "" && it.CategoryID != filter.CategoryID {
			continue
		}
		if !filter.IncludeInactive && !it.Active {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

// MemoryAuditStore implements in-memory audit logging
type MemoryAuditStore struct {
	mu      sync.RWMutex
	entries []*catalogaccess.AuditEntry
}

func NewMemoryAuditStore() *MemoryAuditStore {
	return &MemoryAuditStore{entries: make([]*catalogaccess.AuditEntry, 0)}
}

func (s *MemoryAuditStore) Append(ctx context.Context, entry *catalogaccess.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *MemoryAuditStore) History(ctx context.Context, filter catalogaccess.AuditFilter) ([]*catalogaccess.AuditEntry, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matched := make([]*catalogaccess.AuditEntry, 0)
	// newest first
	for i := len(s.entries) - 1; i >= 0; i-- {
		entry := s.entries[i]
		if filter.EntityType != "" && entry.EntityType != filter.EntityType {
			continue
		}
		if filter.EntityID != "" && entry.EntityID != filter.EntityID {
			continue
		}
		if !filter.StartTime.IsZero() && entry.CreatedAt.Before(filter.StartTime) {
			continue
		}
		if !filter.EndTime.IsZero() && entry.CreatedAt.After(filter.EndTime) {
			continue
		}
		matched = append(matched, entry)
	}
	total := len(matched)
	if filter.Offset > 0 {
		if filter.Offset >= total {
			return []*catalogaccess.AuditEntry{}, total, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, total, nil
}

// MemoryDirectory maps users to their parent client/organization.
type MemoryDirectory struct {
	mu      sync.RWMutex
	parents map[string][2]string // userID -> {clientID, organizationID}
}

func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{parents: make(map[string][2]string)}
}

func (d *MemoryDirectory) AddUser(userID, clientID, organizationID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.parents[userID] = [2]string{clientID, organizationID}
}

func (d *MemoryDirectory) ParentClient(ctx context.Context, userID string) (string, string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.parents[userID]
	if !ok {
		return "", "", catalogaccess.ErrNotFound
	}
	return p[0], p[1], nil
}

// MemoryPermissionCache implements PermissionCache with expiring map entries
// and per-client tracking, mirroring the Redis layout.
type MemoryPermissionCache struct {
	mu       sync.Mutex
	ttl      time.Duration
	entries  map[string]memoryCacheEntry
	byClient map[string]map[string]struct{}
	byUser   map[string]string
}

type memoryCacheEntry struct {
	perm      *catalogaccess.EffectivePermission
	expiresAt time.Time
}

func NewMemoryPermissionCache(ttl time.Duration) *MemoryPermissionCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MemoryPermissionCache{
		ttl:      ttl,
		entries:  make(map[string]memoryCacheEntry),
		byClient: make(map[string]map[string]struct{}),
		byUser:   make(map[string]string),
	}
}

func (c *MemoryPermissionCache) Get(ctx context.Context, userID string) (*catalogaccess.EffectivePermission, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[userID]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(c.entries, userID)
		return nil, catalogaccess.ErrCacheMiss
	}
	// callers may mutate the result; never hand out the cached copy
	dup := *entry.perm
	return &dup, nil
}

func (c *MemoryPermissionCache) Put(ctx context.Context, userID, clientID string, perm *catalogaccess.EffectivePermission, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = memoryCacheEntry{perm: perm, expiresAt: time.Now().Add(ttl)}
	if prev, ok := c.byUser[userID]; ok && prev != clientID {
		delete(c.byClient[prev], userID)
	}
	if _, ok := c.byClient[clientID]; !ok {
		c.byClient[clientID] = make(map[string]struct{})
	}
	c.byClient[clientID][userID] = struct{}{}
	c.byUser[userID] = clientID
	return nil
}

func (c *MemoryPermissionCache) InvalidateUser(ctx context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	if clientID, ok := c.byUser[userID]; ok {
		delete(c.byClient[clientID], userID)
		delete(c.byUser, userID)
	}
	return nil
}

func (c *MemoryPermissionCache) InvalidateClient(ctx context.Context, clientID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for userID := range c.byClient[clientID] {
		delete(c.entries, userID)
		delete(c.byUser, userID)
	}
	delete(c.byClient, clientID)
	return nil
}

// Len reports the live entry count (test helper).
func (c *MemoryPermissionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
