// Package service holds the business rules and authorization checks of
// GiftboT. Services receive plain data, talk to the store through the
// repository interfaces and return domain errors from apperrors. Mutations
// also return the cache tags the caller must invalidate once it has the
// result in hand.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Kerhoff/GiftboT/internal/apperrors"
	"github.com/Kerhoff/GiftboT/internal/cache"
	"github.com/Kerhoff/GiftboT/internal/metrics"
	"github.com/Kerhoff/GiftboT/internal/repository"
	"github.com/Kerhoff/GiftboT/internal/validation"
)

// DefaultStoreTimeout bounds every store round trip when no timeout is configured
const DefaultStoreTimeout = 5 * time.Second

// Options tunes the service layer
type Options struct {
	StoreTimeout time.Duration
	// Now overrides the clock used by date validation.
	Now func() time.Time
}

// Service is the central business logic layer. It groups the domain services
// that share one store, cache and logger.
type Service struct {
	Users       *UserService
	Profiles    *ProfileService
	Friendships *FriendshipService
	Events      *EventService
	Wishlists   *WishlistService
	Items       *ItemService

	cache *cache.Cache
}

// New creates a new Service with all required dependencies. cache and m may
// be nil.
func New(store repository.Store, c *cache.Cache, logger *logrus.Logger, m *metrics.Metrics, opts Options) *Service {
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultStoreTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	d := &deps{
		store:     store,
		cache:     c,
		validator: validation.NewWithClock(opts.Now),
		logger:    logger,
		metrics:   m,
		timeout:   opts.StoreTimeout,
		now:       opts.Now,
	}

	friendships := &FriendshipService{deps: d}
	return &Service{
		Users:       &UserService{deps: d},
		Profiles:    &ProfileService{deps: d},
		Friendships: friendships,
		Events:      &EventService{deps: d},
		Wishlists:   &WishlistService{deps: d, friendships: friendships},
		Items:       &ItemService{deps: d},
		cache:       c,
	}
}

// Invalidate bumps the given cache tags. Entry points call it with the tags
// returned by a successful mutation.
func (s *Service) Invalidate(ctx context.Context, tags []cache.Tag) {
	s.cache.Invalidate(ctx, tags)
}

// deps is shared by every domain service
type deps struct {
	store     repository.Store
	cache     *cache.Cache
	validator *validation.Validator
	logger    *logrus.Logger
	metrics   *metrics.Metrics
	timeout   time.Duration
	now       func() time.Time
}

func (d *deps) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, d.timeout)
}

// observe records the outcome of a mutation; use with a named error result.
func (d *deps) observe(operation string, err *error) {
	d.metrics.ObserveOperation(operation, *err)
}

// storeError converts a repository error into the domain taxonomy. Domain
// errors raised inside transactions pass through unchanged.
func (d *deps) storeError(operation, entity string, err error) error {
	var appErr *apperrors.Error
	switch {
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound(entity)
	case errors.Is(err, repository.ErrDuplicate):
		return apperrors.Conflict("%s already exists", entity)
	}

	d.logger.WithError(err).WithField("operation", operation).Error("Store operation failed")
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Infrastructure("store operation timed out", err)
	}
	return apperrors.Infrastructure("store operation failed", err)
}
