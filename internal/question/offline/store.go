// Package offline persists resolved question sets so the product stays
// usable without network access.
package offline

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"

	"github.com/prepdesk/exam-platform/internal/question"
)

const keyPrefix = "offline:questions"

// entry is one stored question set plus its write timestamp. Entries are
// never expired; the resolver consults them unconditionally as the
// last-resort fallback.
type entry struct {
	Subject   string              `json:"subject"`
	Variant   string              `json:"variant"`
	Questions []question.Question `json:"questions"`
	WrittenAt time.Time           `json:"written_at"`
}

// Store is the durable (subject, variant) question-set store.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) key(subject, variant string) string {
	return strings.Join([]string{keyPrefix, subject, variant}, ":")
}

// Get returns the stored question set, or nil when the key is absent.
// Decode failures are reported as errors; callers treat them as absent.
func (s *Store) Get(ctx context.Context, subject, variant string) ([]question.Question, error) {
	data, err := s.client.Get(ctx, s.key(subject, variant)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("offline get %s/%s: %w", subject, variant, err)
	}
	var stored entry
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("offline decode %s/%s: %w", subject, variant, err)
	}
	return stored.Questions, nil
}

// Put overwrites the set stored under (subject, variant). Concurrent writers
// to the same key race last-write-wins; bulk flows use Union instead.
func (s *Store) Put(ctx context.Context, subject, variant string, questions []question.Question) error {
	stored := entry{
		Subject:   subject,
		Variant:   variant,
		Questions: questions,
		WrittenAt: time.Now(),
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return fmt.Errorf("offline encode %s/%s: %w", subject, variant, err)
	}
	if err := s.client.Set(ctx, s.key(subject, variant), data, 0).Err(); err != nil {
		return fmt.Errorf("offline put %s/%s: %w", subject, variant, err)
	}
	return nil
}

// Union merges new questions into the stored set by id, keeping existing
// entries first, and writes the result back. Repeated downloads are additive:
// the stored count never decreases. Returns the merged count.
func (s *Store) Union(ctx context.Context, subject, variant string, incoming []question.Question) (int, error) {
	existing, err := s.Get(ctx, subject, variant)
	if err != nil {
		return 0, err
	}

	merged := lo.UniqBy(append(existing, incoming...), func(q question.Question) string {
		return q.ID
	})

	if err := s.Put(ctx, subject, variant, merged); err != nil {
		return 0, err
	}
	return len(merged), nil
}

// Variants reports the stored question count per variant for a subject,
// used by offline-availability checks.
func (s *Store) Variants(ctx context.Context, subject string) (map[string]int, error) {
	pattern := s.key(subject, "*")
	counts := make(map[string]int)

	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		variant := key[strings.LastIndex(key, ":")+1:]
		stored, err := s.Get(ctx, subject, variant)
		if err != nil || stored == nil {
			continue
		}
		counts[variant] = len(stored)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("offline scan %s: %w", subject, err)
	}
	return counts, nil
}
