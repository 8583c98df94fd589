package service

import (
	"context"
	"sync"
	"time"

	"github.com/deppfellow/contentfilter/internal/filter"
	"github.com/deppfellow/contentfilter/internal/repository"
	"github.com/rs/zerolog"
)

// memoTTL bounds how long one instance serves smileys from memory before
// asking Redis again. Other instances learn about changes through Redis.
const memoTTL = 30 * time.Second

type SmileyStore interface {
	List(ctx context.Context, displayOnly bool) ([]filter.Smiley, error)
	Get(ctx context.Context, id int64) (filter.Smiley, error)
	Create(ctx context.Context, in repository.SmileyInput) (filter.Smiley, error)
	Update(ctx context.Context, id int64, in repository.SmileyInput) (filter.Smiley, error)
	Delete(ctx context.Context, id int64) error
	Import(ctx context.Context, pack []repository.SmileyInput) (int, error)
}

type SmileyCacher interface {
	Get(ctx context.Context) ([]filter.Smiley, bool, error)
	Set(ctx context.Context, list []filter.Smiley) error
	Invalidate(ctx context.Context) error
}

// RefreshEnqueuer schedules an asynchronous cache rebuild.
type RefreshEnqueuer interface {
	EnqueueSmileyRefresh(ctx context.Context) error
}

// SmileyService manages smileys and serves them to the filter. Reads go
// through an in-process memo, then Redis, then Postgres.
type SmileyService struct {
	store  SmileyStore
	cache  SmileyCacher
	jobs   RefreshEnqueuer
	logger *zerolog.Logger
	now    func() time.Time

	mu     sync.RWMutex
	memo   []filter.Smiley
	memoAt time.Time
}

// NewSmileyService wires the service. cache and jobs may be nil.
func NewSmileyService(store SmileyStore, cache SmileyCacher, jobs RefreshEnqueuer, logger *zerolog.Logger) *SmileyService {
	return &SmileyService{
		store:  store,
		cache:  cache,
		jobs:   jobs,
		logger: logger,
		now:    time.Now,
	}
}

var _ filter.SmileySource = (*SmileyService)(nil)

// Smileys returns the full smiley list.
func (s *SmileyService) Smileys(ctx context.Context) ([]filter.Smiley, error) {
	if list, ok := s.memoized(); ok {
		return list, nil
	}

	if s.cache != nil {
		list, ok, err := s.cache.Get(ctx)
		if err != nil {
			s.logger.Warn().Err(err).Msg("smiley cache unavailable, falling back to database")
		} else if ok {
			s.remember(list)
			return list, nil
		}
	}

	return s.load(ctx)
}

// load reads the database and repopulates both cache layers.
func (s *SmileyService) load(ctx context.Context) ([]filter.Smiley, error) {
	list, err := s.store.List(ctx, false)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, list); err != nil {
			s.logger.Warn().Err(err).Msg("failed to populate smiley cache")
		}
	}
	s.remember(list)
	return list, nil
}

// RefreshSmileys rebuilds the cache from the database and returns the number
// of smileys loaded.
func (s *SmileyService) RefreshSmileys(ctx context.Context) (int, error) {
	list, err := s.load(ctx)
	if err != nil {
		return 0, err
	}
	return len(list), nil
}

func (s *SmileyService) memoized() ([]filter.Smiley, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.memo == nil || s.now().Sub(s.memoAt) > memoTTL {
		return nil, false
	}
	return s.memo, true
}

func (s *SmileyService) remember(list []filter.Smiley) {
	if list == nil {
		list = []filter.Smiley{}
	}
	s.mu.Lock()
	s.memo = list
	s.memoAt = s.now()
	s.mu.Unlock()
}

func (s *SmileyService) forget(ctx context.Context) {
	s.mu.Lock()
	s.memo = nil
	s.mu.Unlock()

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("failed to invalidate smiley cache")
		}
	}
	if s.jobs != nil {
		if err := s.jobs.EnqueueSmileyRefresh(ctx); err != nil {
			s.logger.Warn().Err(err).Msg("failed to enqueue smiley refresh")
		}
	}
}

// List returns the database view, bypassing the caches, for admin screens.
func (s *SmileyService) List(ctx context.Context, all bool) ([]filter.Smiley, error) {
	return s.store.List(ctx, !all)
}

func (s *SmileyService) Get(ctx context.Context, id int64) (filter.Smiley, error) {
	return s.store.Get(ctx, id)
}

func (s *SmileyService) Create(ctx context.Context, in repository.SmileyInput) (filter.Smiley, error) {
	created, err := s.store.Create(ctx, in)
	if err != nil {
		return filter.Smiley{}, err
	}
	s.forget(ctx)

	s.logger.Info().Int64("smiley_id", created.ID).Str("code", created.Code).Msg("smiley created")
	return created, nil
}

func (s *SmileyService) Update(ctx context.Context, id int64, in repository.SmileyInput) (filter.Smiley, error) {
	updated, err := s.store.Update(ctx, id, in)
	if err != nil {
		return filter.Smiley{}, err
	}
	s.forget(ctx)

	s.logger.Info().Int64("smiley_id", id).Msg("smiley updated")
	return updated, nil
}

func (s *SmileyService) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.forget(ctx)

	s.logger.Info().Int64("smiley_id", id).Msg("smiley deleted")
	return nil
}

// Import upserts a smiley pack.
func (s *SmileyService) Import(ctx context.Context, pack []repository.SmileyInput) (int, error) {
	n, err := s.store.Import(ctx, pack)
	if err != nil {
		return 0, err
	}
	s.forget(ctx)

	s.logger.Info().Int("count", n).Msg("smiley pack imported")
	return n, nil
}

// RequestRefresh enqueues a cache rebuild without touching the data.
func (s *SmileyService) RequestRefresh(ctx context.Context) error {
	if s.jobs == nil {
		_, err := s.RefreshSmileys(ctx)
		return err
	}
	return s.jobs.EnqueueSmileyRefresh(ctx)
}
