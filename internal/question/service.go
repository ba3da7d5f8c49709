package question

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// backendSource is the primary question store (Postgres pool).
type backendSource interface {
	FetchBatch(ctx context.Context, subject string, count int, year string) ([]RawRecord, error)
}

// targetedSource requests exactly count records from the third-party API.
type targetedSource interface {
	FetchBatch(ctx context.Context, subject string, count int, year string) ([]RawRecord, error)
}

// bulkSource requests the third-party API's undifferentiated batch, used
// only when the targeted fetch underflows.
type bulkSource interface {
	FetchBulk(ctx context.Context, subject string) ([]RawRecord, error)
}

// OfflineStore is the durable (subject, variant) question-set store.
type OfflineStore interface {
	Get(ctx context.Context, subject, variant string) ([]Question, error)
	Put(ctx context.Context, subject, variant string, questions []Question) error
	Union(ctx context.Context, subject, variant string, questions []Question) (int, error)
}

// PoolCurator promotes downloaded questions into the curated backend pool.
type PoolCurator interface {
	Insert(ctx context.Context, q Question) error
}

const defaultFetchTimeout = 30 * time.Second

// Service resolves question sets across sources in priority order:
// short-TTL memory cache, backend store, targeted API, bulk API, then the
// durable offline store or the bundled bank when everything else came up
// empty. Resolve never fails; sources that error contribute zero records.
type Service struct {
	backend      backendSource
	targeted     targetedSource
	bulk         bulkSource
	offline      OfflineStore
	curator      PoolCurator
	memcache     *MemCache
	bank         *Bank
	fetchTimeout time.Duration
	logger       zerolog.Logger
}

type ServiceOptions struct {
	MemCacheTTL  time.Duration
	FetchTimeout time.Duration
	Curator      PoolCurator
}

func NewService(backend backendSource, targeted targetedSource, bulk bulkSource, offlineStore OfflineStore, bank *Bank, logger zerolog.Logger, opts ServiceOptions) *Service {
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = defaultFetchTimeout
	}
	return &Service{
		backend:      backend,
		targeted:     targeted,
		bulk:         bulk,
		offline:      offlineStore,
		curator:      opts.Curator,
		memcache:     NewMemCache(opts.MemCacheTTL),
		bank:         bank,
		fetchTimeout: opts.FetchTimeout,
		logger:       logger.With().Str("component", "question_resolver").Logger(),
	}
}

// Resolve returns up to req.Count questions for the subject, degrading
// gracefully: fewer questions is acceptable, an error never surfaces.
// Within one source original order is preserved; across sources, backend
// results precede third-party results.
func (s *Service) Resolve(ctx context.Context, req ResolveRequest) []Question {
	if req.Count <= 0 {
		return []Question{}
	}

	if cached := s.memcache.Get(req); cached != nil {
		cacheHits.WithLabelValues("memory").Inc()
		return cached
	}

	logger := s.logger.With().Str("subject", req.Subject).Int("count", req.Count).Logger()

	result := make([]Question, 0, req.Count)
	seen := make(map[string]struct{}, req.Count)

	result = s.accumulate(result, seen, req.Count, s.fromBackend(ctx, req), "backend")
	if len(result) < req.Count {
		result = s.accumulate(result, seen, req.Count, s.fromTargeted(ctx, req, req.Count), "targeted")
	}
	if len(result) < req.Count {
		result = s.accumulate(result, seen, req.Count, s.fromBulk(ctx, req), "bulk")
	}

	if len(result) > 0 {
		if err := s.offline.Put(ctx, req.Subject, req.Variant(), result); err != nil {
			// The in-flight response already has the data; a failed save
			// only costs future offline availability.
			logger.Warn().Err(err).Msg("offline save failed")
		}
	} else {
		result = s.recover(ctx, req, logger)
	}

	result = s.withSupplement(result, req.Subject)
	if len(result) > req.Count {
		result = result[:req.Count]
	}
	if len(result) > 0 {
		s.memcache.Set(req, result)
	}
	return result
}

// DownloadSubject resolves a batch for offline use and unions it into the
// durable offline variant, so repeated downloads are additive. Returns the
// merged offline count.
func (s *Service) DownloadSubject(ctx context.Context, subject string, count int) (int, error) {
	questions := s.Resolve(ctx, ResolveRequest{Subject: subject, Count: count})
	s.curate(ctx, questions)
	return s.offline.Union(ctx, subject, VariantOffline, questions)
}

// curate writes downloaded questions into the curated pool so later backend
// reads serve them directly. Records with a synthesized id are skipped;
// re-inserting those would pile up duplicates under ever-fresh ids.
func (s *Service) curate(ctx context.Context, questions []Question) {
	if s.curator == nil {
		return
	}
	for _, q := range questions {
		if q.Generated {
			continue
		}
		if err := s.curator.Insert(ctx, q); err != nil {
			s.logger.Warn().Err(err).Str("id", q.ID).Msg("pool insert failed")
			return
		}
	}
}

// ClearSession drops the short-TTL cache; durable offline entries survive.
func (s *Service) ClearSession() {
	s.memcache.Clear()
}

// accumulate folds a normalized batch into the result until the target count
// is met. The seen check runs per record inside the loop so a batch that
// repeats an id contributes it once.
func (s *Service) accumulate(result []Question, seen map[string]struct{}, target int, batch []Question, source string) []Question {
	added := 0
	for _, q := range batch {
		if len(result) >= target {
			break
		}
		if _, dup := seen[q.ID]; dup {
			continue
		}
		seen[q.ID] = struct{}{}
		result = append(result, q)
		added++
	}
	if added > 0 {
		sourceContributions.WithLabelValues(source).Add(float64(added))
	}
	return result
}

func (s *Service) fromBackend(ctx context.Context, req ResolveRequest) []Question {
	if s.backend == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()
	raws, err := s.backend.FetchBatch(ctx, req.Subject, req.Count, req.Year)
	if err != nil {
		sourceFailures.WithLabelValues("backend").Inc()
		s.logger.Warn().Err(err).Str("subject", req.Subject).Msg("backend fetch failed")
		return nil
	}
	return NormalizeBatch(raws, req.Subject)
}

func (s *Service) fromTargeted(ctx context.Context, req ResolveRequest, count int) []Question {
	if s.targeted == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()
	raws, err := s.targeted.FetchBatch(ctx, req.Subject, count, req.Year)
	if err != nil {
		sourceFailures.WithLabelValues("targeted").Inc()
		s.logger.Warn().Err(err).Str("subject", req.Subject).Msg("targeted fetch failed")
		return nil
	}
	return NormalizeBatch(raws, req.Subject)
}

func (s *Service) fromBulk(ctx context.Context, req ResolveRequest) []Question {
	if s.bulk == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.fetchTimeout)
	defer cancel()
	raws, err := s.bulk.FetchBulk(ctx, req.Subject)
	if err != nil {
		sourceFailures.WithLabelValues("bulk").Inc()
		s.logger.Warn().Err(err).Str("subject", req.Subject).Msg("bulk fetch failed")
		return nil
	}
	return NormalizeBatch(raws, req.Subject)
}

// recover serves a total-source failure from the durable offline store,
// then the bundled bank. An empty return means nothing anywhere has content
// for this subject.
func (s *Service) recover(ctx context.Context, req ResolveRequest, logger zerolog.Logger) []Question {
	variant := req.Year
	if variant == "" {
		variant = VariantOffline
	}
	if stored, err := s.offline.Get(ctx, req.Subject, variant); err == nil && len(stored) > 0 {
		fallbackServed.WithLabelValues("offline").Inc()
		return stored
	} else if err != nil {
		logger.Warn().Err(err).Msg("offline read failed")
	}

	if bundled := s.bank.Fallback(req.Subject); len(bundled) > 0 {
		fallbackServed.WithLabelValues("bundled").Inc()
		return bundled
	}
	return nil
}

// withSupplement blends the curated bundled set into the designated
// subject's results, deduplicated by id.
func (s *Service) withSupplement(result []Question, subject string) []Question {
	supplement := s.bank.Supplement(subject)
	if len(supplement) == 0 {
		return result
	}
	return lo.UniqBy(append(result, supplement...), func(q Question) string {
		return q.ID
	})
}
