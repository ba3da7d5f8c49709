package offline

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"

	"github.com/prepdesk/exam-platform/internal/question"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client)
}

func questionSet(prefix string, n int) []question.Question {
	set := make([]question.Question, 0, n)
	for i := 0; i < n; i++ {
		set = append(set, question.Question{
			ID:        fmt.Sprintf("%s%d", prefix, i+1),
			Subject:   "mathematics",
			Prompt:    fmt.Sprintf("Prompt %s%d", prefix, i+1),
			Options:   map[string]string{"a": "one", "b": "two"},
			AnswerKey: "a",
		})
	}
	return set
}

func TestPutGetRoundTrip(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	set := questionSet("q", 4)
	assert.NoError(t, store.Put(ctx, "mathematics", "2019", set))

	got, err := store.Get(ctx, "mathematics", "2019")
	assert.NoError(t, err)
	assert.Equal(t, set, got)
}

func TestGetAbsentKeyReturnsNil(t *testing.T) {
	store := testStore(t)

	got, err := store.Get(context.Background(), "mathematics", "offline")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestUnionIsAdditiveAndUnique(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	first, err := store.Union(ctx, "mathematics", "offline", questionSet("a", 5))
	assert.NoError(t, err)
	assert.Equal(t, 5, first)

	// Second batch overlaps a4, a5 and adds three new ids.
	overlap := append(questionSet("a", 5)[3:], questionSet("b", 3)...)
	second, err := store.Union(ctx, "mathematics", "offline", overlap)
	assert.NoError(t, err)
	assert.Equal(t, 8, second)

	merged, err := store.Get(ctx, "mathematics", "offline")
	assert.NoError(t, err)
	assert.Len(t, merged, 8)

	seen := map[string]struct{}{}
	for _, q := range merged {
		_, dup := seen[q.ID]
		assert.False(t, dup, "duplicate id %s", q.ID)
		seen[q.ID] = struct{}{}
	}
	// Existing entries keep their position; new ones append.
	assert.Equal(t, "a1", merged[0].ID)
	assert.Equal(t, "b3", merged[7].ID)
}

func TestUnionNeverDecreasesCount(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	before, err := store.Union(ctx, "physics", "bulk", questionSet("p", 6))
	assert.NoError(t, err)

	after, err := store.Union(ctx, "physics", "bulk", questionSet("p", 2))
	assert.NoError(t, err)
	assert.GreaterOrEqual(t, after, before)
	assert.Equal(t, 6, after)
}

func TestVariantsReportsStoredCounts(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Put(ctx, "mathematics", "offline", questionSet("a", 3)))
	assert.NoError(t, store.Put(ctx, "mathematics", "2019", questionSet("b", 2)))
	assert.NoError(t, store.Put(ctx, "english", "offline", questionSet("c", 9)))

	counts, err := store.Variants(ctx, "mathematics")
	assert.NoError(t, err)
	assert.Equal(t, map[string]int{"offline": 3, "2019": 2}, counts)
}

func TestPutOverwritesExistingEntry(t *testing.T) {
	store := testStore(t)
	ctx := context.Background()

	assert.NoError(t, store.Put(ctx, "biology", "random", questionSet("x", 5)))
	assert.NoError(t, store.Put(ctx, "biology", "random", questionSet("y", 2)))

	got, err := store.Get(ctx, "biology", "random")
	assert.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "y1", got[0].ID)
}
