package question

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemCacheRoundTrip(t *testing.T) {
	cache := NewMemCache(time.Minute)
	req := ResolveRequest{Subject: "physics", Count: 10}

	assert.Nil(t, cache.Get(req))

	questions := NormalizeBatch(rawBatch("p", 3), "physics")
	cache.Set(req, questions)
	assert.Equal(t, questions, cache.Get(req))

	// A different count is a different key.
	assert.Nil(t, cache.Get(ResolveRequest{Subject: "physics", Count: 5}))
}

func TestMemCacheExpiry(t *testing.T) {
	cache := NewMemCache(5 * time.Minute)
	now := time.Now()
	cache.now = func() time.Time { return now }

	req := ResolveRequest{Subject: "physics", Count: 10, Year: "2019"}
	cache.Set(req, NormalizeBatch(rawBatch("p", 2), "physics"))

	now = now.Add(4 * time.Minute)
	assert.NotNil(t, cache.Get(req))

	now = now.Add(2 * time.Minute)
	assert.Nil(t, cache.Get(req), "entries older than the TTL are misses")
}

func TestMemCacheGetReturnsIndependentSlice(t *testing.T) {
	cache := NewMemCache(time.Minute)
	req := ResolveRequest{Subject: "physics", Count: 10}
	questions := NormalizeBatch(rawBatch("p", 3), "physics")
	cache.Set(req, questions)

	// Callers reorder results after resolution; the cached entry must not
	// see that, whether the caller holds the stored slice or a Get result.
	questions[0].ID = "mangled-on-the-way-in"
	got := cache.Get(req)
	got[0], got[2] = got[2], got[0]
	got[1].ID = "mangled"

	fresh := cache.Get(req)
	assert.Equal(t, "p1", fresh[0].ID)
	assert.Equal(t, "p2", fresh[1].ID)
	assert.Equal(t, "p3", fresh[2].ID)
}

func TestMemCacheClear(t *testing.T) {
	cache := NewMemCache(time.Minute)
	req := ResolveRequest{Subject: "biology", Count: 3}
	cache.Set(req, NormalizeBatch(rawBatch("x", 1), "biology"))

	cache.Clear()
	assert.Nil(t, cache.Get(req))
}
