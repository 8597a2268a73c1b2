package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"go.uber.org/zap"
)

// Pebble is a durable store backed by a Pebble database.
type Pebble struct {
	db     *pebble.DB
	logger *zap.Logger
	now    func() time.Time
}

// OpenPebble opens (or creates) the database at path. An empty path keeps
// the database in memory.
func OpenPebble(path string, opts Options) (*Pebble, error) {
	opts.defaults()

	popts := &pebble.Options{}
	if path == "" {
		popts.FS = vfs.NewMem()
	} else if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}

	opts.Logger.Info("opening_pebble_db", zap.String("path", path))
	db, err := pebble.Open(path, popts)
	if err != nil {
		opts.Logger.Error("pebble_open_failed", zap.String("path", path), zap.Error(err))
		return nil, err
	}
	return &Pebble{db: db, logger: opts.Logger, now: opts.Now}, nil
}

// Close closes the database.
func (s *Pebble) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.logger.Info("pebble_closed")
	return err
}

// Get returns the live value of key.
func (s *Pebble) Get(_ context.Context, key string) ([]byte, bool, error) {
	if s.db == nil {
		return nil, false, ErrClosed
	}
	data, closer, err := s.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	value, live, err := unframe(data, s.now())
	closer.Close()
	if err != nil {
		return nil, false, err
	}
	if !live {
		if err := s.db.Delete([]byte(key), pebble.NoSync); err != nil {
			s.logger.Warn("pebble_delete_failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false, nil
	}
	return value, true, nil
}

// Set stores value under key for ttl. A non positive ttl never expires.
func (s *Pebble) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if s.db == nil {
		return ErrClosed
	}
	return s.db.Set([]byte(key), frame(value, ttl, s.now()), pebble.Sync)
}

// Purge removes every expired entry and returns how many were dropped.
func (s *Pebble) Purge(ctx context.Context) (int, error) {
	if s.db == nil {
		return 0, ErrClosed
	}
	it, err := s.db.NewIter(nil)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	now := s.now()
	batch := s.db.NewBatch()
	defer batch.Close()

	n := 0
	for ok := it.First(); ok; ok = it.Next() {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		if _, live, err := unframe(it.Value(), now); err == nil && live {
			continue
		}
		if err := batch.Delete(append([]byte(nil), it.Key()...), nil); err != nil {
			return 0, err
		}
		n++
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return 0, err
	}
	s.logger.Debug("pebble_purged", zap.Int("entries", n))
	return n, nil
}
