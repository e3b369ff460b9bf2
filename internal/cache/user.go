package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"jmgallery/internal/model"
)

const (
	// UserCachePrefix is the key prefix for current-user cache entries
	UserCachePrefix = "user:"

	// UserCacheTTL bounds staleness between an invalidation miss and a read
	UserCacheTTL = 60 * time.Second
)

// UserCache memoizes the merged user+profile view served by GET /user.
// Entries live for 60 seconds and every write path that touches a field
// surfaced by that view must invalidate the user's key.
type UserCache interface {
	// Get returns the cached view, or found=false on a miss.
	Get(ctx context.Context, userID int64) (user *model.CurrentUser, found bool, err error)

	// Set stores the view with the standard TTL.
	Set(ctx context.Context, userID int64, user *model.CurrentUser) error

	// Invalidate drops the user's entry. Deleting a missing key is not an error.
	Invalidate(ctx context.Context, userID int64) error
}

// RedisUserCache implements UserCache on Redis with JSON values.
type RedisUserCache struct {
	client *redis.Client
}

// NewUserCache creates a UserCache backed by Redis.
func NewUserCache(client *redis.Client) UserCache {
	return &RedisUserCache{client: client}
}

func userKey(userID int64) string {
	return fmt.Sprintf("%s%d", UserCachePrefix, userID)
}

func (c *RedisUserCache) Get(ctx context.Context, userID int64) (*model.CurrentUser, bool, error) {
	key := userKey(userID)

	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		log.Printf("[UserCache] Get FAILED: user=%d err=%v", userID, err)
		return nil, false, fmt.Errorf("get user cache: %w", err)
	}

	var user model.CurrentUser
	if err := json.Unmarshal(data, &user); err != nil {
		// A corrupt entry behaves like a miss; it will be overwritten.
		log.Printf("[UserCache] Get decode error: user=%d err=%v", userID, err)
		return nil, false, nil
	}

	return &user, true, nil
}

func (c *RedisUserCache) Set(ctx context.Context, userID int64, user *model.CurrentUser) error {
	key := userKey(userID)

	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user cache: %w", err)
	}

	if err := c.client.Set(ctx, key, data, UserCacheTTL).Err(); err != nil {
		log.Printf("[UserCache] Set FAILED: user=%d err=%v", userID, err)
		return fmt.Errorf("set user cache: %w", err)
	}

	return nil
}

func (c *RedisUserCache) Invalidate(ctx context.Context, userID int64) error {
	key := userKey(userID)

	if err := c.client.Del(ctx, key).Err(); err != nil {
		log.Printf("[UserCache] Invalidate FAILED: user=%d err=%v", userID, err)
		return fmt.Errorf("invalidate user cache: %w", err)
	}

	return nil
}
