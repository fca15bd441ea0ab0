package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/isdmx/codelab/apperrors"
	"github.com/isdmx/codelab/config"
	"github.com/isdmx/codelab/project"
)

// Project is a saved file set.
type Project struct {
	ID        string             `json:"id"`
	Files     project.Submission `json:"files"`
	CreatedAt time.Time          `json:"createdAt"`
}

// Store saves and loads projects. Implementations are safe for concurrent use.
type Store interface {
	Save(ctx context.Context, files project.Submission) (string, error)
	Load(ctx context.Context, id string) (Project, error)
	Close() error
}

// Option defines a functional option shared by the store backends
type Option func(*options)

type options struct {
	ttl   time.Duration
	newID func() string
	now   func() time.Time
}

func defaultOptions() options {
	return options{newID: uuid.NewString, now: time.Now}
}

// WithTTL expires projects after ttl; zero keeps them forever
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithIDGenerator replaces the UUID source, for tests
func WithIDGenerator(newID func() string) Option {
	return func(o *options) {
		o.newID = newID
	}
}

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func notFound(id string) error {
	return apperrors.Newf(apperrors.KindNotFound, "project not found: %s", id)
}

// New creates the backend selected by cfg.Store.Backend
func New(logger *zap.Logger, cfg *config.Config) (Store, error) {
	opts := []Option{WithTTL(cfg.GetStoreTTL())}

	switch cfg.Store.Backend {
	case "memory":
		logger.Info("using in-memory project store")
		return NewMemoryStore(opts...), nil
	case "redis":
		logger.Info("using redis project store",
			zap.String("addr", cfg.Store.Redis.Addr),
			zap.Int("db", cfg.Store.Redis.DB),
			zap.Duration("ttl", cfg.GetStoreTTL()))
		return NewRedisStoreFromConfig(logger, cfg.Store, opts...)
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}
}
