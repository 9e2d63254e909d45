package client

import (
	"strconv"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

const defaultCacheTTL = 30 * time.Second

// taskCache holds first-page task listings keyed by page size. Every
// mutation through the client flushes it, so a follow-up list reflects the
// write even within the TTL.
type taskCache struct {
	cache *gocache.Cache
	ttl   time.Duration
}

func newTaskCache(ttl time.Duration) *taskCache {
	return &taskCache{
		cache: gocache.New(ttl, 2*ttl),
		ttl:   ttl,
	}
}

func (tc *taskCache) key(limit int) string {
	return "tasks:first:" + strconv.Itoa(limit)
}

func (tc *taskCache) Get(limit int) (*TaskPage, bool) {
	if tc.ttl <= 0 {
		return nil, false
	}

	if raw, found := tc.cache.Get(tc.key(limit)); found {
		return raw.(*TaskPage), true
	}

	return nil, false
}

func (tc *taskCache) Put(limit int, page *TaskPage) {
	if tc.ttl <= 0 {
		return
	}

	tc.cache.Set(tc.key(limit), page, tc.ttl)
}

func (tc *taskCache) Invalidate() {
	tc.cache.Flush()
}
