package stores

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oarkflow/catalogaccess"
)

// RedisPermissionCache stores serialized effective permissions under
// per-user keys and tracks which users are cached per client in a Redis set
// (keys: catperm:user:{userID}, catperm:client:{clientID}). The tracking set
// lets a client-level change invalidate every user under that client without
// a reverse index in the primary store.
type RedisPermissionCache struct {
	client       *redis.Client
	ttl          time.Duration
	userKeyFmt   string // e.g. "catperm:user:%s"
	clientKeyFmt string // e.g. "catperm:client:%s"
}

func NewRedisPermissionCache(client *redis.Client, ttl time.Duration) *RedisPermissionCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisPermissionCache{
		client:       client,
		ttl:          ttl,
		userKeyFmt:   "catperm:user:%s",
		clientKeyFmt: "catperm:client:%s",
	}
}

// WithKeyPrefix replaces the default key namespace.
func (c *RedisPermissionCache) WithKeyPrefix(prefix string) *RedisPermissionCache {
	c.userKeyFmt = prefix + ":user:%s"
	c.clientKeyFmt = prefix + ":client:%s"
	return c
}

func (c *RedisPermissionCache) userKey(userID string) string {
	return fmt.Sprintf(c.userKeyFmt, userID)
}

func (c *RedisPermissionCache) clientKey(clientID string) string {
	return fmt.Sprintf(c.clientKeyFmt, clientID)
}

func (c *RedisPermissionCache) Get(ctx context.Context, userID string) (*catalogaccess.EffectivePermission, error) {
	b, err := c.client.Get(ctx, c.userKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, catalogaccess.ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	perm := &catalogaccess.EffectivePermission{}
	if err := json.Unmarshal(b, perm); err != nil {
		return nil, catalogaccess.ErrCacheMiss
	}
	return perm, nil
}

func (c *RedisPermissionCache) Put(ctx context.Context, userID, clientID string, perm *catalogaccess.EffectivePermission, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.ttl
	}
	b, err := json.Marshal(perm)
	if err != nil {
		return err
	}
	pipe := c.client.TxPipeline()
	pipe.Set(ctx, c.userKey(userID), b, ttl)
	// track the cached user and refresh the tracking set's own expiry
	key := c.clientKey(clientID)
	pipe.SAdd(ctx, key, userID)
	pipe.Expire(ctx, key, ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (c *RedisPermissionCache) InvalidateUser(ctx context.Context, userID string) error {
	key := c.userKey(userID)
	// drop the tracking-set member too; the entry itself records the client
	if b, err := c.client.Get(ctx, key).Bytes(); err == nil {
		perm := &catalogaccess.EffectivePermission{}
		if json.Unmarshal(b, perm) == nil && perm.ClientID != "" {
			c.client.SRem(ctx, c.clientKey(perm.ClientID), userID)
		}
	}
	return c.client.Del(ctx, key).Err()
}

func (c *RedisPermissionCache) InvalidateClient(ctx context.Context, clientID string) error {
	key := c.clientKey(clientID)
	userIDs, err := c.client.SMembers(ctx, key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	keys := make([]string, 0, len(userIDs)+1)
	for _, id := range userIDs {
		keys = append(keys, c.userKey(id))
	}
	keys = append(keys, key)
	return c.client.Del(ctx, keys...).Err()
}
