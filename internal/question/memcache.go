package question

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

const defaultMemCacheTTL = 5 * time.Minute

type memEntry struct {
	questions []Question
	storedAt  time.Time
}

// MemCache is a short-TTL in-process cache that keeps repeated resolutions
// of the same request from re-hitting sources within a session. It is not
// the durable offline layer.
type MemCache struct {
	ttl   time.Duration
	now   func() time.Time
	mu    sync.RWMutex
	store map[string]memEntry
}

func NewMemCache(ttl time.Duration) *MemCache {
	if ttl <= 0 {
		ttl = defaultMemCacheTTL
	}
	return &MemCache{
		ttl:   ttl,
		now:   time.Now,
		store: make(map[string]memEntry),
	}
}

func (c *MemCache) key(req ResolveRequest) string {
	return strings.Join([]string{req.Subject, fmt.Sprint(req.Count), req.Year}, ":")
}

// Get returns a fresh cached result, or nil when absent or expired. The
// returned slice is a copy; callers may reorder it without corrupting the
// cached entry.
func (c *MemCache) Get(req ResolveRequest) []Question {
	c.mu.RLock()
	entry, ok := c.store[c.key(req)]
	c.mu.RUnlock()

	if !ok || c.now().Sub(entry.storedAt) > c.ttl {
		return nil
	}
	out := make([]Question, len(entry.questions))
	copy(out, entry.questions)
	return out
}

// Set stores a resolved set under the request key. The slice is copied on
// the way in for the same reason Get copies on the way out.
func (c *MemCache) Set(req ResolveRequest, questions []Question) {
	stored := make([]Question, len(questions))
	copy(stored, questions)
	c.mu.Lock()
	c.store[c.key(req)] = memEntry{questions: stored, storedAt: c.now()}
	c.mu.Unlock()
}

// Clear drops all entries; callers own the cache lifecycle.
func (c *MemCache) Clear() {
	c.mu.Lock()
	c.store = make(map[string]memEntry)
	c.mu.Unlock()
}
