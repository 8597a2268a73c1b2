package validation

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/esimov/avatar/identity"
	"golang.org/x/time/rate"
)

// ErrThrottled is reported when the probe rate limit is exceeded.
var ErrThrottled = errors.New("probe throttled")

// Prober asks the remote service whether it hosts an image for a hash.
// Any failure must be reported as an Indeterminate result together with
// the cause, never as a definite answer.
type Prober interface {
	Probe(ctx context.Context, h identity.Hash) (Result, error)
}

// DefaultEndpoint is the Gravatar compatible service probed by default.
const DefaultEndpoint = "https://gravatar.com"

// HTTPProber issues HEAD requests against <Endpoint>/avatar/<hash>?d=404.
type HTTPProber struct {
	Endpoint string
	Timeout  time.Duration
	Client   *http.Client
	// Limiter throttles the outgoing probes when not nil.
	Limiter *rate.Limiter
}

// NewHTTPProber returns a prober for the given endpoint.
func NewHTTPProber(endpoint string, timeout time.Duration) *HTTPProber {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPProber{
		Endpoint: strings.TrimRight(endpoint, "/"),
		Timeout:  timeout,
		Client:   &http.Client{Timeout: timeout},
	}
}

// URL returns the probed resource of h.
func (p *HTTPProber) URL(h identity.Hash) string {
	return fmt.Sprintf("%s/avatar/%s?d=404", p.Endpoint, h)
}

// Probe checks the remote image of h.
func (p *HTTPProber) Probe(ctx context.Context, h identity.Hash) (Result, error) {
	if p.Limiter != nil && !p.Limiter.Allow() {
		return Result{Status: Indeterminate}, ErrThrottled
	}

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL(h), nil)
	if err != nil {
		return Result{Status: Indeterminate}, err
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return Result{Status: Indeterminate}, err
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK:
		return Result{Status: Confirmed, MimeType: res.Header.Get("Content-Type")}, nil
	case http.StatusNotFound:
		return Result{Status: NotFound}, nil
	}
	return Result{Status: Indeterminate}, fmt.Errorf("unexpected status code: %d", res.StatusCode)
}
