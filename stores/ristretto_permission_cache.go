package stores

import (
	"context"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"

	"github.com/oarkflow/catalogaccess"
)

// RistrettoPermissionCache is an in-process permission cache for single-node
// deployments. Ristretto handles the TTL'd entries; the client tracking sets
// live in a mutex-guarded index because ristretto has no set primitive.
type RistrettoPermissionCache struct {
	cache *ristretto.Cache
	ttl   time.Duration

	mu       sync.Mutex
	byClient map[string]map[string]struct{} // clientID -> cached userIDs
	byUser   map[string]string              // userID -> clientID
}

func NewRistrettoPermissionCache(numCounters, maxCost, bufferItems int64, ttl time.Duration) (*RistrettoPermissionCache, error) {
	if numCounters <= 0 {
		numCounters = 1e5
	}
	if maxCost <= 0 {
		maxCost = 1e4
	}
	if bufferItems <= 0 {
		bufferItems = 64
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: numCounters,
		MaxCost:     maxCost,
		BufferItems: bufferItems,
	})
	if err != nil {
		return nil, err
	}
	return &RistrettoPermissionCache{
		cache:    cache,
		ttl:      ttl,
		byClient: make(map[string]map[string]struct{}),
		byUser:   make(map[string]string),
	}, nil
}

func (c *RistrettoPermissionCache) Get(ctx context.Context, userID string) (*catalogaccess.EffectivePermission, error) {
	v, ok := c.cache.Get(userID)
	if !ok {
		return nil, catalogaccess.ErrCacheMiss
	}
	perm, ok := v.(*catalogaccess.EffectivePermission)
	if !ok {
		return nil, catalogaccess.ErrCacheMiss
	}
	// callers may mutate the result; never hand out the cached copy
	dup := *perm
	return &dup, nil
}

func (c *RistrettoPermissionCache) Put(ctx context.Context, userID, clientID string, perm *catalogaccess.EffectivePermission, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	c.cache.SetWithTTL(userID, perm, 1, ttl)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.byClient[clientID]; !ok {
		c.byClient[clientID] = make(map[string]struct{})
	}
	c.byClient[clientID][userID] = struct{}{}
	c.byUser[userID] = clientID
	return nil
}

func (c *RistrettoPermissionCache) InvalidateUser(ctx context.Context, userID string) error {
	c.cache.Del(userID)
	c.mu.Lock()
	defer c.mu.Unlock()
	if clientID, ok := c.byUser[userID]; ok {
		delete(c.byClient[clientID], userID)
		delete(c.byUser, userID)
	}
	return nil
}

func (c *RistrettoPermissionCache) InvalidateClient(ctx context.Context, clientID string) error {
	c.mu.Lock()
	users := c.byClient[clientID]
	delete(c.byClient, clientID)
	for id := range users {
		delete(c.byUser, id)
	}
	c.mu.Unlock()
	for id := range users {
		c.cache.Del(id)
	}
	return nil
}

// Wait blocks until pending writes are visible. Ristretto applies sets
// asynchronously; tests call this before reading back.
func (c *RistrettoPermissionCache) Wait() {
	c.cache.Wait()
}

// Close releases the underlying cache.
func (c *RistrettoPermissionCache) Close() {
	c.cache.Close()
}
