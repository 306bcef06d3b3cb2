package cache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	dom "taskboard/internal/domain"

	"github.com/redis/go-redis/v9"
)

const keyPage = "tasks:page:"

// Page is one cached slice of the task collection plus its total count.
type Page struct {
	Count int64      `json:"count"`
	Tasks []dom.Task `json:"tasks"`
}

// TaskCache caches task collection pages in Redis.
type TaskCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewTaskCache returns a new TaskCache.
func NewTaskCache(rdb *redis.Client, ttl time.Duration) *TaskCache {
	return &TaskCache{rdb: rdb, ttl: ttl}
}

// PageKey identifies a cached page: ownership scope ("all" or "u:<id>"),
// completion filter ("any"/"true"/"false") and the limit/offset window.
func PageKey(owner *int64, completed *bool, limit, offset int) string {
	scope := "all"
	if owner != nil {
		scope = "u:" + strconv.FormatInt(*owner, 10)
	}
	filter := "any"
	if completed != nil {
		filter = strconv.FormatBool(*completed)
	}
	return scope + ":" + filter + ":" + strconv.Itoa(limit) + ":" + strconv.Itoa(offset)
}

// GetPage returns the cached page or nil on miss.
func (c *TaskCache) GetPage(ctx context.Context, key string) (*Page, error) {
	b, err := c.rdb.Get(ctx, keyPage+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var p Page
	if err := json.Unmarshal(b, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// SetPage stores a page in cache.
func (c *TaskCache) SetPage(ctx context.Context, key string, p Page) error {
	b, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, keyPage+key, b, c.ttl).Err()
}

// InvalidateAll removes every cached page. A write by any user changes the
// anonymous all-tasks scope too, so per-user invalidation would be wrong.
func (c *TaskCache) InvalidateAll(ctx context.Context) error {
	iter := c.rdb.Scan(ctx, 0, keyPage+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
