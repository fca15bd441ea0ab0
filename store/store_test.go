package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/isdmx/codelab/apperrors"
	"github.com/isdmx/codelab/config"
	"github.com/isdmx/codelab/project"
)

func sampleFiles() project.Submission {
	return project.Submission{
		project.NewSourceFile("index.html", "<!DOCTYPE html><p>hi</p>"),
		project.NewSourceFile("main.js", "console.log('hi')"),
		{Name: "notes", Content: "no extension, no language"},
	}
}

func newRedisStore(t *testing.T, opts ...Option) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStore(zaptest.NewLogger(t), client, "test:project:", opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s, mr
}

// Both backends must satisfy the same contract.
func TestStoreContract(t *testing.T) {
	backends := map[string]func(t *testing.T) Store{
		"Memory": func(*testing.T) Store { return NewMemoryStore() },
		"Redis": func(t *testing.T) Store {
			s, _ := newRedisStore(t)
			return s
		},
	}

	for name, newStore := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("RoundTrip", func(t *testing.T) {
				s := newStore(t)
				files := sampleFiles()

				id, err := s.Save(ctx, files)
				require.NoError(t, err)
				require.NotEmpty(t, id)

				p, err := s.Load(ctx, id)
				require.NoError(t, err)
				assert.Equal(t, id, p.ID)
				assert.Equal(t, files, p.Files)
				assert.False(t, p.CreatedAt.IsZero())
			})

			t.Run("DistinctIDs", func(t *testing.T) {
				s := newStore(t)
				a, err := s.Save(ctx, sampleFiles())
				require.NoError(t, err)
				b, err := s.Save(ctx, sampleFiles())
				require.NoError(t, err)
				assert.NotEqual(t, a, b)
			})

			t.Run("NotFound", func(t *testing.T) {
				s := newStore(t)
				_, err := s.Load(ctx, "missing")
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperrors.ErrNotFound))
			})

			t.Run("RejectsInvalidSubmission", func(t *testing.T) {
				s := newStore(t)
				_, err := s.Save(ctx, nil)
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperrors.ErrInvalidSubmission))

				_, err = s.Save(ctx, project.Submission{
					project.NewSourceFile("a.js", "1"),
					project.NewSourceFile("a.js", "2"),
				})
				require.Error(t, err)
				assert.True(t, errors.Is(err, apperrors.ErrInvalidSubmission))
			})

			t.Run("Concurrent", func(t *testing.T) {
				s := newStore(t)
				var wg sync.WaitGroup
				ids := make([]string, 16)
				for i := range ids {
					wg.Add(1)
					go func(i int) {
						defer wg.Done()
						id, err := s.Save(ctx, project.Submission{
							project.NewSourceFile("main.py", fmt.Sprintf("print(%d)", i)),
						})
						assert.NoError(t, err)
						ids[i] = id
					}(i)
				}
				wg.Wait()

				for i, id := range ids {
					p, err := s.Load(ctx, id)
					require.NoError(t, err)
					assert.Equal(t, fmt.Sprintf("print(%d)", i), p.Files[0].Content)
				}
			})
		})
	}
}

func TestMemoryStoreIsolation(t *testing.T) {
	s := NewMemoryStore()
	files := sampleFiles()

	id, err := s.Save(context.Background(), files)
	require.NoError(t, err)

	files[0].Content = "mutated after save"
	p, err := s.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "<!DOCTYPE html><p>hi</p>", p.Files[0].Content)

	p.Files[1].Content = "mutated after load"
	again, err := s.Load(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "console.log('hi')", again.Files[1].Content)
}

func TestMemoryStoreTTL(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(WithTTL(time.Minute), WithClock(func() time.Time { return now }))

	id, err := s.Save(context.Background(), sampleFiles())
	require.NoError(t, err)

	now = now.Add(59 * time.Second)
	_, err = s.Load(context.Background(), id)
	require.NoError(t, err)

	now = now.Add(time.Second)
	_, err = s.Load(context.Background(), id)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.Zero(t, s.Len())
}

func TestMemoryStoreSweepsExpiredOnSave(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore(WithTTL(time.Minute), WithClock(func() time.Time { return now }))
	ctx := context.Background()

	stale, err := s.Save(ctx, sampleFiles())
	require.NoError(t, err)

	now = now.Add(30 * time.Second)
	fresh, err := s.Save(ctx, sampleFiles())
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len(), "no sweep within one TTL period")

	now = now.Add(40 * time.Second)
	_, err = s.Save(ctx, sampleFiles())
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len(), "expired project is dropped without being read")

	_, err = s.Load(ctx, stale)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	_, err = s.Load(ctx, fresh)
	assert.NoError(t, err)
}

func TestRedisStore(t *testing.T) {
	t.Run("KeyAndTTL", func(t *testing.T) {
		s, mr := newRedisStore(t, WithTTL(time.Hour), WithIDGenerator(func() string { return "fixed" }))

		id, err := s.Save(context.Background(), sampleFiles())
		require.NoError(t, err)
		assert.Equal(t, "fixed", id)
		assert.True(t, mr.Exists("test:project:fixed"))
		assert.Equal(t, time.Hour, mr.TTL("test:project:fixed"))

		mr.FastForward(time.Hour + time.Second)
		_, err = s.Load(context.Background(), id)
		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	})

	t.Run("NoTTL", func(t *testing.T) {
		s, mr := newRedisStore(t, WithIDGenerator(func() string { return "forever" }))
		_, err := s.Save(context.Background(), sampleFiles())
		require.NoError(t, err)
		assert.Zero(t, mr.TTL("test:project:forever"))
	})

	t.Run("IDCollision", func(t *testing.T) {
		s, _ := newRedisStore(t, WithIDGenerator(func() string { return "same" }))
		_, err := s.Save(context.Background(), sampleFiles())
		require.NoError(t, err)

		_, err = s.Save(context.Background(), sampleFiles())
		require.Error(t, err)
		assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
	})

	t.Run("CorruptDocument", func(t *testing.T) {
		s, mr := newRedisStore(t)
		require.NoError(t, mr.Set("test:project:bad", "{not json"))

		_, err := s.Load(context.Background(), "bad")
		require.Error(t, err)
		assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
	})

	t.Run("ServerDown", func(t *testing.T) {
		s, mr := newRedisStore(t)
		mr.Close()

		_, err := s.Load(context.Background(), "anything")
		require.Error(t, err)
		assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(err))
		assert.Error(t, s.Ping(context.Background()))
	})
}

func TestNew(t *testing.T) {
	logger := zaptest.NewLogger(t)

	t.Run("Memory", func(t *testing.T) {
		s, err := New(logger, &config.Config{Store: config.StoreConfig{Backend: "memory"}})
		require.NoError(t, err)
		assert.IsType(t, &MemoryStore{}, s)
	})

	t.Run("Redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		s, err := New(logger, &config.Config{Store: config.StoreConfig{
			Backend:   "redis",
			KeyPrefix: "p:",
			Redis:     config.RedisConfig{Addr: mr.Addr()},
		}})
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &RedisStore{}, s)
	})

	t.Run("RedisUnreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		_, err := New(logger, &config.Config{Store: config.StoreConfig{
			Backend: "redis",
			Redis:   config.RedisConfig{Addr: addr},
		}})
		require.Error(t, err)
	})

	t.Run("Unknown", func(t *testing.T) {
		_, err := New(logger, &config.Config{Store: config.StoreConfig{Backend: "etcd"}})
		require.Error(t, err)
	})
}
