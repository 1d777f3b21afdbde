package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// Cache key patterns:
// - unread:conversations:{user_id} - count of active conversations with unseen activity
// - unread:messages:{user_id}      - count of active unread messages addressed to the user
//
// Both counters are short-TTL hints over the durable store; the store remains
// the source of truth and the two counters are never reconciled with each other.

// UnreadCacheConfig contains configuration for unread counter caching
type UnreadCacheConfig struct {
	TTL time.Duration
}

// DefaultUnreadCacheConfig returns sensible defaults
func DefaultUnreadCacheConfig() UnreadCacheConfig {
	return UnreadCacheConfig{TTL: 30 * time.Second}
}

// UnreadCache caches the two per-user unread counters in Redis.
type UnreadCache struct {
	client *goredis.Client
	config UnreadCacheConfig
}

func NewUnreadCache(client *goredis.Client, config UnreadCacheConfig) *UnreadCache {
	return &UnreadCache{client: client, config: config}
}

func conversationKey(userID uuid.UUID) string {
	return fmt.Sprintf("unread:conversations:%s", userID.String())
}

func messageKey(userID uuid.UUID) string {
	return fmt.Sprintf("unread:messages:%s", userID.String())
}

// GetConversationCount returns the cached counter; found is false on a miss.
func (c *UnreadCache) GetConversationCount(ctx context.Context, userID uuid.UUID) (int64, bool, error) {
	return c.get(ctx, conversationKey(userID))
}

func (c *UnreadCache) SetConversationCount(ctx context.Context, userID uuid.UUID, count int64) error {
	return c.client.Set(ctx, conversationKey(userID), count, c.config.TTL).Err()
}

func (c *UnreadCache) GetMessageCount(ctx context.Context, userID uuid.UUID) (int64, bool, error) {
	return c.get(ctx, messageKey(userID))
}

func (c *UnreadCache) SetMessageCount(ctx context.Context, userID uuid.UUID, count int64) error {
	return c.client.Set(ctx, messageKey(userID), count, c.config.TTL).Err()
}

// Invalidate drops both counters for a user. Called after any write that can
// move either counter: send, mark-read, archive, soft delete.
func (c *UnreadCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return c.client.Del(ctx, conversationKey(userID), messageKey(userID)).Err()
}

func (c *UnreadCache) get(ctx context.Context, key string) (int64, bool, error) {
	value, err := c.client.Get(ctx, key).Int64()
	if err == goredis.Nil {
		return 0, false, nil // Cache miss
	}
	if err != nil {
		return 0, false, err
	}
	return value, true, nil
}
