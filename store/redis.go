package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/isdmx/codelab/apperrors"
	"github.com/isdmx/codelab/config"
	"github.com/isdmx/codelab/project"
)

// pingTimeout bounds the connectivity check at startup.
const pingTimeout = 5 * time.Second

// RedisStore keeps each project as a JSON document under prefix+id.
type RedisStore struct {
	logger *zap.Logger
	client *redis.Client
	prefix string
	opts   options
}

// NewRedisStore wraps an existing client
func NewRedisStore(logger *zap.Logger, client *redis.Client, prefix string, opts ...Option) *RedisStore {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &RedisStore{logger: logger, client: client, prefix: prefix, opts: o}
}

// NewRedisStoreFromConfig dials Redis and verifies the connection
func NewRedisStoreFromConfig(logger *zap.Logger, cfg config.StoreConfig, opts ...Option) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewRedisStore(logger, client, cfg.KeyPrefix, opts...), nil
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// Save marshals files and stores them with SETNX so an id is never reused.
func (s *RedisStore) Save(ctx context.Context, files project.Submission) (string, error) {
	if err := files.Validate(); err != nil {
		return "", err
	}

	p := Project{ID: s.opts.newID(), Files: files, CreatedAt: s.opts.now().UTC()}
	data, err := json.Marshal(p)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.KindInternal, "failed to encode project")
	}

	ok, err := s.client.SetNX(ctx, s.key(p.ID), data, s.opts.ttl).Result()
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.KindInternal, "failed to save project")
	}
	if !ok {
		return "", apperrors.Newf(apperrors.KindInternal, "project id collision: %s", p.ID)
	}

	s.logger.Debug("project saved", zap.String("project_id", p.ID), zap.Int("files", len(files)))
	return p.ID, nil
}

// Load fetches and decodes a project.
func (s *RedisStore) Load(ctx context.Context, id string) (Project, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Project{}, notFound(id)
	}
	if err != nil {
		return Project{}, apperrors.Wrap(err, apperrors.KindInternal, "failed to load project")
	}

	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		s.logger.Error("corrupt project document", zap.String("project_id", id), zap.Error(err))
		return Project{}, apperrors.Wrap(err, apperrors.KindInternal, "failed to decode project")
	}

	return p, nil
}

// Ping checks connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
