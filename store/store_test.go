package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func newClock() *clock {
	return &clock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type kvStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Purge(ctx context.Context) (int, error)
	Close() error
}

func stores(t *testing.T) map[string]func(c *clock) kvStore {
	t.Helper()

	return map[string]func(c *clock) kvStore{
		"memory": func(c *clock) kvStore {
			return NewMemory(Options{Now: c.Now})
		},
		"pebble-memory": func(c *clock) kvStore {
			s, err := OpenPebble("", Options{Now: c.Now})
			require.NoError(t, err)
			return s
		},
		"pebble-disk": func(c *clock) kvStore {
			s, err := OpenPebble(filepath.Join(t.TempDir(), "db", "cache"), Options{Now: c.Now})
			require.NoError(t, err)
			return s
		},
	}
}

func TestStore_ShouldExpireEntries(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			c := newClock()
			s := open(c)
			defer s.Close()
			ctx := context.Background()

			_, ok, err := s.Get(ctx, "check_missing")
			assert.NoError(err)
			assert.False(ok)

			require.NoError(t, s.Set(ctx, "short", []byte(`{"status":1}`), 10*time.Minute))
			require.NoError(t, s.Set(ctx, "long", []byte("week"), 7*24*time.Hour))
			require.NoError(t, s.Set(ctx, "forever", []byte("x"), 0))

			v, ok, err := s.Get(ctx, "short")
			assert.NoError(err)
			assert.True(ok)
			assert.Equal(`{"status":1}`, string(v))

			c.Advance(10 * time.Minute)
			_, ok, err = s.Get(ctx, "short")
			assert.NoError(err)
			assert.False(ok, "an entry expires exactly at its deadline")

			v, ok, _ = s.Get(ctx, "long")
			assert.True(ok)
			assert.Equal("week", string(v))

			c.Advance(8 * 24 * time.Hour)
			n, err := s.Purge(ctx)
			assert.NoError(err)
			assert.Equal(1, n)

			_, ok, _ = s.Get(ctx, "long")
			assert.False(ok)
			_, ok, _ = s.Get(ctx, "forever")
			assert.True(ok)
		})
	}
}

func TestStore_SetShouldOverwrite(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := open(newClock())
			defer s.Close()
			ctx := context.Background()

			require.NoError(t, s.Set(ctx, "k", []byte("a"), time.Minute))
			require.NoError(t, s.Set(ctx, "k", []byte("b"), time.Hour))

			v, ok, err := s.Get(ctx, "k")
			assert.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "b", string(v))
		})
	}
}

func TestPebble_ShouldPersistAcrossReopen(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "cache")
	s, err := OpenPebble(path, Options{})
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), "check_abc", []byte("v"), time.Hour))
	require.NoError(t, s.Close())

	_, _, err = s.Get(context.Background(), "check_abc")
	assert.True(errors.Is(err, ErrClosed))

	s, err = OpenPebble(path, Options{})
	require.NoError(t, err)
	defer s.Close()

	v, ok, err := s.Get(context.Background(), "check_abc")
	assert.NoError(err)
	assert.True(ok)
	assert.Equal("v", string(v))
}

func TestFrame(t *testing.T) {
	assert := assert.New(t)

	now := time.Unix(100, 0)
	data := frame([]byte("payload"), time.Second, now)
	assert.Len(data, headerLen+len("payload"))

	v, live, err := unframe(data, now.Add(999*time.Millisecond))
	assert.NoError(err)
	assert.True(live)
	assert.Equal("payload", string(v))

	_, live, err = unframe(data, now.Add(time.Second))
	assert.NoError(err)
	assert.False(live)

	_, _, err = unframe([]byte{1, 2}, now)
	assert.True(errors.Is(err, ErrCorrupt))
}
