// Package store implements the durable key/value tier of the validation
// cache. Values carry their own expiration time: an expired entry reads as
// a miss and is removed lazily.
package store

import (
	"encoding/binary"
	"errors"
	"time"

	"go.uber.org/zap"
)

// ErrCorrupt is returned for stored values without a valid expiry header.
var ErrCorrupt = errors.New("corrupt store entry")

// ErrClosed is returned when the store is used after Close.
var ErrClosed = errors.New("store closed")

const headerLen = 8

// Options configures a store.
type Options struct {
	Logger *zap.Logger
	// Now replaces the wall clock, mostly in tests.
	Now func() time.Time
}

func (o *Options) defaults() {
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
}

// frame prefixes value with its big endian expiry in unix nanoseconds.
// A zero expiry never expires.
func frame(value []byte, ttl time.Duration, now time.Time) []byte {
	var exp int64
	if ttl > 0 {
		exp = now.Add(ttl).UnixNano()
	}
	buf := make([]byte, headerLen+len(value))
	binary.BigEndian.PutUint64(buf, uint64(exp))
	copy(buf[headerLen:], value)
	return buf
}

// unframe returns a copy of the payload and reports whether it is still valid.
func unframe(data []byte, now time.Time) (value []byte, live bool, err error) {
	if len(data) < headerLen {
		return nil, false, ErrCorrupt
	}
	exp := int64(binary.BigEndian.Uint64(data))
	if exp != 0 && now.UnixNano() >= exp {
		return nil, false, nil
	}
	value = make([]byte, len(data)-headerLen)
	copy(value, data[headerLen:])
	return value, true, nil
}
