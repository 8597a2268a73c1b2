// Package validation decides whether a remotely hosted avatar is known to exist
// for an identity hash. Lookups go through three tiers in strict order: a
// per-request memo, a durable store and finally a HEAD probe of the remote
// service. Only definite answers are cached.
package validation

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status is the outcome of an existence check.
type Status int

const (
	// Indeterminate means the remote service could not be asked. It is never cached.
	Indeterminate Status = iota
	// NotFound means the remote service has no image for the hash.
	NotFound
	// Confirmed means the remote service hosts an image for the hash.
	Confirmed
)

func (s Status) String() string {
	switch s {
	case Indeterminate:
		return "indeterminate"
	case NotFound:
		return "not_found"
	case Confirmed:
		return "confirmed"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

// Result is a validation outcome. MimeType is only set for Confirmed results.
type Result struct {
	Status   Status `json:"status"`
	MimeType string `json:"mime_type,omitempty"`
}

// Cacheable reports whether r may be written to the cache tiers.
func (r Result) Cacheable() bool {
	return r.Status == Confirmed || r.Status == NotFound
}

func (r Result) encode() ([]byte, error) {
	return json.Marshal(r)
}

func decodeResult(data []byte) (Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return Result{}, err
	}
	if !r.Cacheable() {
		return Result{}, fmt.Errorf("unexpected cached status %v", r.Status)
	}
	return r, nil
}

const (
	Week = 7 * 24 * time.Hour
	Day  = 24 * time.Hour
)

// TTL returns how long r stays in the durable tier. Negative results of
// recent content expire quickly since the person may sign up soon after
// posting. Each threshold is an exclusive upper bound: an age of exactly
// one hour already gets the one hour lifetime.
func TTL(r Result, age time.Duration) time.Duration {
	switch r.Status {
	case Confirmed:
		return Week
	case NotFound:
		switch {
		case age < time.Hour:
			return 10 * time.Minute
		case age < Day:
			return time.Hour
		case age < Week:
			return Day
		default:
			return Week
		}
	}
	return 0
}
