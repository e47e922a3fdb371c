// Package profile serves the caller's profile with cache-aside reads.
package profile

import (
	"context"
	"errors"
	"time"

	"aroti/metrics"
	"aroti/models"
	userRepo "aroti/database/repository/user"
	"aroti/services/cache"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// SessionCacheInvalidator drops cached session listings of a user.
type SessionCacheInvalidator interface {
	InvalidateUser(ctx context.Context, userID string)
}

// Update holds the editable profile fields. Empty fields keep the stored value.
type Update struct {
	Name     string
	Location string
}

// Contact is where notifications reach the user. It replaces the stored contact fields.
type Contact struct {
	Name         string
	Email        string
	PushToken    string
	PushPlatform string
}

type Service struct {
	users       userRepo.UserRepository
	cache       *cache.JSONCache
	ttl         time.Duration
	invalidator SessionCacheInvalidator
	group       singleflight.Group
	metrics     *metrics.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// NewService builds the service. invalidator may be nil.
func NewService(users userRepo.UserRepository, c *cache.JSONCache, ttl time.Duration, invalidator SessionCacheInvalidator, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		users:       users,
		cache:       c,
		ttl:         ttl,
		invalidator: invalidator,
		metrics:     m,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the caller's profile, creating a default one on first read.
func (s *Service) Get(ctx context.Context, userID string) (*models.User, error) {
	key := cache.ProfileKey(userID)
	var out models.User
	err := s.cache.GetJSON(ctx, key, &out)
	switch {
	case err == nil:
		s.metrics.CacheLookup("profile", "hit")
		return &out, nil
	case errors.Is(err, cache.ErrMiss):
		s.metrics.CacheLookup("profile", "miss")
	default:
		s.metrics.CacheLookup("profile", "error")
		s.logger.Warn("Cache read failed, falling back to store", zap.String("key", key), zap.Error(err))
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		user, err := s.loadOrCreate(ctx, userID, models.DefaultUserName)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetJSON(ctx, key, user, s.ttl); err != nil {
			s.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
		}
		return user, nil
	})
	if err != nil {
		return nil, err
	}
	user := *v.(*models.User)
	return &user, nil
}

// Update applies the non-empty fields of u and drops the cached profile.
func (s *Service) Update(ctx context.Context, userID string, u Update) (*models.User, error) {
	name := u.Name
	if name == "" {
		name = models.DefaultUserName
	}
	user, err := s.loadOrCreate(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	if u.Name != "" {
		user.Name = u.Name
	}
	if u.Location != "" {
		user.BirthLocation = u.Location
	}
	user.UpdatedAt = s.now()
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	s.Invalidate(ctx, userID)
	s.logger.Info("Profile updated", zap.String("userId", userID))
	return user, nil
}

// Contact returns the stored user without creating one. Unknown users are userRepo.ErrNotFound.
func (s *Service) Contact(ctx context.Context, userID string) (*models.User, error) {
	return s.users.GetByID(ctx, userID)
}

// SaveContact stores c on the user's profile, keeping the other profile fields.
func (s *Service) SaveContact(ctx context.Context, userID string, c Contact) (*models.User, error) {
	name := c.Name
	if name == "" {
		name = models.DefaultUserName
	}
	user, err := s.loadOrCreate(ctx, userID, name)
	if err != nil {
		return nil, err
	}
	if c.Name != "" {
		user.Name = c.Name
	}
	user.Email = c.Email
	user.PushToken = c.PushToken
	user.PushPlatform = c.PushPlatform
	if user.PushToken != "" && user.PushPlatform == "" {
		user.PushPlatform = models.PushPlatformFCM
	}
	user.UpdatedAt = s.now()
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	s.Invalidate(ctx, userID)
	return user, nil
}

// DeleteAccount removes the caller's profile and contact details. Booked sessions stay on
// record; their notifications are dropped for lack of a delivery channel.
func (s *Service) DeleteAccount(ctx context.Context, userID string) error {
	if err := s.users.Delete(ctx, userID); err != nil {
		return err
	}
	s.Invalidate(ctx, userID)
	if s.invalidator != nil {
		s.invalidator.InvalidateUser(ctx, userID)
	}
	s.logger.Info("Account deleted", zap.String("userId", userID))
	return nil
}

// Invalidate drops the cached profile.
func (s *Service) Invalidate(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, cache.ProfileKey(userID)); err != nil {
		s.logger.Warn("Failed to invalidate profile cache", zap.String("userId", userID), zap.Error(err))
	}
}

func (s *Service) loadOrCreate(ctx context.Context, userID, name string) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, userRepo.ErrNotFound) {
		return nil, err
	}
	now := s.now()
	user = &models.User{ID: userID, Name: name, Traits: []string{}, CreatedAt: now, UpdatedAt: now}
	if err := s.users.Save(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("Profile created", zap.String("userId", userID))
	return user, nil
}
