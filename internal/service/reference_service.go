package service

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-api/internal/domain"
	"github.com/spec-kit/helpdesk-api/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-api/pkg/util"
)

const referenceCacheTTL = 5 * time.Minute

// Cache is the small surface the reference service needs from Redis. Get
// returns "" on a miss.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// ReferenceService serves the status and priority lookup tables with a
// read-through cache. These rows change only when an admin adds one, so the
// lists cache well.
type ReferenceService struct {
	statuses   repository.ReferenceRepository
	priorities repository.ReferenceRepository
	cache      Cache
	logger     *zap.Logger
}

// NewReferenceService constructs the service. Cache may be nil.
func NewReferenceService(statuses, priorities repository.ReferenceRepository, cache Cache, logger *zap.Logger) *ReferenceService {
	return &ReferenceService{statuses: statuses, priorities: priorities, cache: cache, logger: logger}
}

// ListStatuses returns all statuses ordered by id.
func (s *ReferenceService) ListStatuses(ctx context.Context) ([]domain.Reference, error) {
	return s.list(ctx, s.statuses, "statuses")
}

// ListPriorities returns all priorities ordered by id.
func (s *ReferenceService) ListPriorities(ctx context.Context) ([]domain.Reference, error) {
	return s.list(ctx, s.priorities, "priorities")
}

// CreateStatus inserts a status; a duplicate name reports a conflict.
func (s *ReferenceService) CreateStatus(ctx context.Context, name string) (*domain.Reference, error) {
	return s.create(ctx, s.statuses, "statuses", name)
}

// CreatePriority inserts a priority; a duplicate name reports a conflict.
func (s *ReferenceService) CreatePriority(ctx context.Context, name string) (*domain.Reference, error) {
	return s.create(ctx, s.priorities, "priorities", name)
}

func (s *ReferenceService) list(ctx context.Context, repo repository.ReferenceRepository, key string) ([]domain.Reference, error) {
	if cached := s.cacheGet(ctx, key); cached != nil {
		return cached, nil
	}

	items, err := repo.ListAll(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.cacheSet(ctx, key, items)
	return items, nil
}

func (s *ReferenceService) create(ctx context.Context, repo repository.ReferenceRepository, key, name string) (*domain.Reference, error) {
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	ref, err := repo.Create(ctx, name)
	if err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("name already exists")
		}
		return nil, apperrors.MapError(err)
	}
	s.cacheDel(ctx, key)
	return ref, nil
}

// Cache failures never fail a request; the store stays the source of truth.

func (s *ReferenceService) cacheGet(ctx context.Context, key string) []domain.Reference {
	if s.cache == nil {
		return nil
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil || raw == "" {
		return nil
	}
	var items []domain.Reference
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil
	}
	return items
}

func (s *ReferenceService) cacheSet(ctx context.Context, key string, items []domain.Reference) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, string(raw), referenceCacheTTL); err != nil && s.logger != nil {
		s.logger.Debug("reference cache set failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *ReferenceService) cacheDel(ctx context.Context, key string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, key); err != nil && s.logger != nil {
		s.logger.Debug("reference cache invalidation failed", zap.String("key", key), zap.Error(err))
	}
}
