// Package catalog serves specialists and reviews with cache-aside reads.
package catalog

import (
	"context"
	"errors"
	"time"

	"aroti/metrics"
	"aroti/models"
	specialistRepo "aroti/database/repository/specialist"
	"aroti/services/cache"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// TTLs per key family.
type TTLs struct {
	List    time.Duration
	Detail  time.Duration
	Reviews time.Duration
}

// Service never fails because of the cache: cache errors are logged and the store answers.
type Service struct {
	repo    specialistRepo.SpecialistRepository
	cache   *cache.JSONCache
	ttl     TTLs
	group   singleflight.Group
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewService(repo specialistRepo.SpecialistRepository, c *cache.JSONCache, ttl TTLs, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{repo: repo, cache: c, ttl: ttl, metrics: m, logger: logger}
}

func (s *Service) List(ctx context.Context, filter models.SpecialistFilter) ([]models.Specialist, error) {
	var out []models.Specialist
	err := s.cached(ctx, "specialists", filter.CacheKey(), s.ttl.List, &out, func(ctx context.Context) (interface{}, error) {
		return s.repo.List(ctx, filter)
	})
	return out, err
}

// Get returns specialistRepo.ErrNotFound for unknown ids. Misses are not cached.
func (s *Service) Get(ctx context.Context, id string) (*models.Specialist, error) {
	var out models.Specialist
	err := s.cached(ctx, "specialist", cache.SpecialistKey(id), s.ttl.Detail, &out, func(ctx context.Context) (interface{}, error) {
		return s.repo.GetByID(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *Service) Reviews(ctx context.Context, specialistID string) ([]models.Review, error) {
	var out []models.Review
	err := s.cached(ctx, "reviews", cache.ReviewsKey(specialistID), s.ttl.Reviews, &out, func(ctx context.Context) (interface{}, error) {
		return s.repo.ListReviews(ctx, specialistID)
	})
	return out, err
}

// cached fills dest from the cache or, on a miss, from load. Concurrent misses on one key share a single load.
func (s *Service) cached(ctx context.Context, family, key string, ttl time.Duration, dest interface{}, load func(context.Context) (interface{}, error)) error {
	err := s.cache.GetJSON(ctx, key, dest)
	switch {
	case err == nil:
		s.metrics.CacheLookup(family, "hit")
		return nil
	case errors.Is(err, cache.ErrMiss):
		s.metrics.CacheLookup(family, "miss")
	default:
		s.metrics.CacheLookup(family, "error")
		s.logger.Warn("Cache read failed, falling back to store", zap.String("key", key), zap.Error(err))
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		value, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetJSON(ctx, key, value, ttl); err != nil {
			s.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
		}
		return value, nil
	})
	if err != nil {
		return err
	}
	return assign(dest, v)
}

func assign(dest, v interface{}) error {
	switch d := dest.(type) {
	case *[]models.Specialist:
		*d = v.([]models.Specialist)
	case *models.Specialist:
		*d = *v.(*models.Specialist)
	case *[]models.Review:
		*d = v.([]models.Review)
	default:
		return errors.New("catalog: unsupported cache destination")
	}
	return nil
}
