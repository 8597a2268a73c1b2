package store

import (
	"context"
	"sync"
	"time"
)

// Memory is a durable tier stand-in that lives as long as the process.
// It is meant for development and tests.
type Memory struct {
	mu  sync.Mutex
	m   map[string][]byte
	now func() time.Time
}

// NewMemory returns an empty in-process store.
func NewMemory(opts Options) *Memory {
	opts.defaults()
	return &Memory{m: make(map[string][]byte), now: opts.Now}
}

func (s *Memory) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.m[key]
	if !ok {
		return nil, false, nil
	}
	value, live, err := unframe(data, s.now())
	if err != nil || !live {
		delete(s.m, key)
		return nil, false, err
	}
	return value, true, nil
}

func (s *Memory) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = frame(value, ttl, s.now())
	return nil
}

// Purge drops the expired entries.
func (s *Memory) Purge(context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	n := 0
	for k, data := range s.m {
		if _, live, err := unframe(data, now); err != nil || !live {
			delete(s.m, k)
			n++
		}
	}
	return n, nil
}

// Close is a no-op.
func (s *Memory) Close() error { return nil }
