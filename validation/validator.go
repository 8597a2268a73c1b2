package validation

import (
	"context"
	"strings"
	"time"

	"github.com/esimov/avatar/identity"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Store is the durable tier. A missing or expired key reports ok == false.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// TTLFunc may adjust the durable tier lifetime computed for a result.
type TTLFunc func(h identity.Hash, r Result, age, ttl time.Duration) time.Duration

// Options configures a Validator.
type Options struct {
	Logger  *zap.Logger
	Metrics *Metrics
	// TTL overrides the lifetime of the stored results when not nil.
	TTL TTLFunc
}

// Validator runs the tiered existence check.
type Validator struct {
	store   Store
	prober  Prober
	logger  *zap.Logger
	metrics *Metrics
	ttl     TTLFunc

	group singleflight.Group
}

// New creates a validator. A nil store disables the durable tier.
func New(store Store, prober Prober, opts Options) *Validator {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Validator{
		store:   store,
		prober:  prober,
		logger:  opts.Logger,
		metrics: opts.Metrics,
		ttl:     opts.TTL,
	}
}

// Key returns the durable tier key of h.
func Key(h identity.Hash) string {
	return "check_" + string(h)
}

// IsConfirmed reports whether a remote avatar exists for email, along with
// its content type. An empty email is never confirmed.
func (v *Validator) IsConfirmed(ctx context.Context, memo *Memo, email string, age time.Duration) (bool, string) {
	if strings.TrimSpace(email) == "" {
		return false, ""
	}
	r := v.Validate(ctx, memo, identity.FromEmail(email), age)
	return r.Status == Confirmed, r.MimeType
}

// Validate looks h up in the memo, then in the durable store and finally
// probes the remote service. age is the age of the content the avatar is
// shown for; it only affects how long a negative result is kept.
func (v *Validator) Validate(ctx context.Context, memo *Memo, h identity.Hash, age time.Duration) Result {
	if r, ok := memo.Get(h); ok {
		v.metrics.lookup(tierMemo)
		return r
	}

	key := Key(h)
	if r, ok := v.lookup(ctx, key); ok {
		v.metrics.lookup(tierStore)
		memo.Put(h, r)
		return r
	}

	r := v.probe(ctx, h)
	v.metrics.lookup(tierProbe)
	if !r.Cacheable() {
		return r
	}

	v.save(ctx, key, h, r, age)
	memo.Put(h, r)
	return r
}

func (v *Validator) lookup(ctx context.Context, key string) (Result, bool) {
	if v.store == nil {
		return Result{}, false
	}
	data, ok, err := v.store.Get(ctx, key)
	if err != nil {
		v.metrics.storeError()
		v.logger.Warn("store_get_failed", zap.String("key", key), zap.Error(err))
		return Result{}, false
	}
	if !ok {
		return Result{}, false
	}
	r, err := decodeResult(data)
	if err != nil {
		v.logger.Warn("store_value_invalid", zap.String("key", key), zap.Error(err))
		return Result{}, false
	}
	return r, true
}

// probe asks the remote service. Concurrent probes of the same hash share one request.
func (v *Validator) probe(ctx context.Context, h identity.Hash) Result {
	res, _, _ := v.group.Do(string(h), func() (interface{}, error) {
		r, err := v.prober.Probe(ctx, h)
		if err != nil {
			r = Result{Status: Indeterminate}
			v.logger.Info("probe_failed", zap.String("hash", string(h)), zap.Error(err))
		}
		v.metrics.probe(r.Status)
		v.logger.Debug("probe_done", zap.String("hash", string(h)), zap.Stringer("status", r.Status))
		return r, nil
	})
	return res.(Result)
}

func (v *Validator) save(ctx context.Context, key string, h identity.Hash, r Result, age time.Duration) {
	if v.store == nil {
		return
	}
	ttl := TTL(r, age)
	if v.ttl != nil {
		ttl = v.ttl(h, r, age, ttl)
	}
	data, err := r.encode()
	if err != nil {
		v.logger.Error("result_encode_failed", zap.Error(err))
		return
	}
	if err := v.store.Set(ctx, key, data, ttl); err != nil {
		v.metrics.storeError()
		v.logger.Warn("store_set_failed", zap.String("key", key), zap.Error(err))
	}
}
