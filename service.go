package avatar

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/esimov/avatar/canvas"
	"github.com/esimov/avatar/filestore"
	"github.com/esimov/avatar/generator"
	"github.com/esimov/avatar/identity"
	"github.com/esimov/avatar/validation"
	"go.uber.org/zap"
)

// DefaultMimeType is reported for confirmed remote avatars whose content
// type is unknown.
const DefaultMimeType = "image/png"

// ErrNoIdentity is returned by Resolve when the request carries neither an
// email address nor a hash.
var ErrNoIdentity = errors.New("missing identity")

// Options configures a Service.
type Options struct {
	// Generators are the available icon generators, at most one per kind.
	Generators []generator.Generator
	// Default is the kind used when a request does not name one.
	Default generator.Kind
	// RemoteURL is the display URL template of confirmed remote avatars.
	// The {hash} and {size} placeholders are substituted.
	RemoteURL string
	Logger    *zap.Logger
}

// Service decides which avatar to show and produces the procedural ones.
type Service struct {
	validator   *validation.Validator
	files       filestore.Cache
	gens        map[generator.Kind]generator.Generator
	defaultKind generator.Kind
	remoteURL   string
	logger      *zap.Logger
}

// New creates a service. The default kind must be one of the generators.
func New(v *validation.Validator, files filestore.Cache, opts Options) (*Service, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	s := &Service{
		validator:   v,
		files:       files,
		gens:        make(map[generator.Kind]generator.Generator, len(opts.Generators)),
		defaultKind: opts.Default,
		remoteURL:   opts.RemoteURL,
		logger:      opts.Logger,
	}
	for _, g := range opts.Generators {
		if _, ok := s.gens[g.Kind()]; ok {
			return nil, fmt.Errorf("duplicate generator: %s", g.Kind())
		}
		s.gens[g.Kind()] = g
	}
	if _, ok := s.gens[s.defaultKind]; !ok {
		return nil, fmt.Errorf("%w: default %q is not configured", generator.ErrUnknownKind, s.defaultKind)
	}
	return s, nil
}

// Generator returns the generator of kind, or the default one when kind is empty.
func (s *Service) Generator(kind generator.Kind) (generator.Generator, error) {
	if kind == "" {
		kind = s.defaultKind
	}
	g, ok := s.gens[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", generator.ErrUnknownKind, kind)
	}
	return g, nil
}

// Generate builds the icon of h without touching the file cache.
func (s *Service) Generate(kind generator.Kind, h identity.Hash, size int) ([]byte, error) {
	g, err := s.Generator(kind)
	if err != nil {
		return nil, err
	}
	return g.Build(h, size)
}

// IconURL returns the URL of the cached icon of h, generating and storing it
// on the first call. When the generator fails, a transparent placeholder of
// the same size is stored and returned instead.
func (s *Service) IconURL(ctx context.Context, kind generator.Kind, h identity.Hash, size int) (string, error) {
	g, err := s.Generator(kind)
	if err != nil {
		return "", err
	}
	if size <= 0 || size > generator.MaxSize {
		return "", fmt.Errorf("%w: %d", generator.ErrInvalidSize, size)
	}

	d := generator.Descriptor{Kind: g.Kind(), Hash: h, Size: size}
	filename := d.Filename(generator.Extension(g.MimeType()))
	if ok, err := s.files.Exists(ctx, filename); err == nil && ok {
		return s.files.URL(filename), nil
	} else if err != nil {
		// The cache may be unreachable for reads only; keep going.
		s.logger.Warn("file_cache_lookup_failed", zap.String("file", filename), zap.Error(err))
	}

	data, err := g.Build(h, size)
	if err != nil {
		s.logger.Warn("generator_failed",
			zap.String("kind", string(g.Kind())),
			zap.String("hash", string(h)),
			zap.Int("size", size),
			zap.Error(err),
		)
		filename = placeholderName(size)
		if data, err = Placeholder(size); err != nil {
			return "", err
		}
	}

	if err := s.files.Set(ctx, filename, data, false); err != nil {
		return "", fmt.Errorf("could not store icon %s: %w", filename, err)
	}
	return s.files.URL(filename), nil
}

// IsConfirmed reports whether a remote avatar exists for email and its
// content type.
func (s *Service) IsConfirmed(ctx context.Context, memo *validation.Memo, email string, age time.Duration) (bool, string) {
	if s.validator == nil {
		return false, ""
	}
	return s.validator.IsConfirmed(ctx, memo, email, age)
}

// Check runs the existence check for an already hashed identity.
func (s *Service) Check(ctx context.Context, memo *validation.Memo, h identity.Hash, age time.Duration) validation.Result {
	if s.validator == nil {
		return validation.Result{Status: validation.Indeterminate}
	}
	return s.validator.Validate(ctx, memo, h, age)
}

// Request describes the avatar to display.
type Request struct {
	// Email identifies the user. Ignored when Hash is set.
	Email string
	Hash  identity.Hash
	Size  int
	// Kind selects the fallback generator; empty means the default one.
	Kind generator.Kind
	// UseRemote is set when the identity opted in to remote avatars.
	UseRemote bool
	// Age is the age of the content the avatar is shown for.
	Age time.Duration
}

// Avatar is the outcome of Resolve.
type Avatar struct {
	URL      string `json:"url"`
	MimeType string `json:"mime_type"`
	Remote   bool   `json:"remote"`
	Hash     string `json:"hash"`
}

// Resolve picks the remote avatar when the identity opted in and its
// existence is confirmed, and the local procedural icon otherwise.
func (s *Service) Resolve(ctx context.Context, memo *validation.Memo, req Request) (Avatar, error) {
	h := req.Hash
	if h == "" {
		if strings.TrimSpace(req.Email) == "" {
			return Avatar{}, ErrNoIdentity
		}
		h = identity.FromEmail(req.Email)
	} else if !h.Valid() {
		return Avatar{}, fmt.Errorf("%w: %q", identity.ErrInvalidHash, string(h))
	}

	if req.UseRemote {
		if r := s.Check(ctx, memo, h, req.Age); r.Status == validation.Confirmed {
			mimeType := r.MimeType
			if mimeType == "" {
				mimeType = DefaultMimeType
			}
			return Avatar{
				URL:      s.RemoteURL(h, req.Size),
				MimeType: mimeType,
				Remote:   true,
				Hash:     string(h),
			}, nil
		}
	}

	g, err := s.Generator(req.Kind)
	if err != nil {
		return Avatar{}, err
	}
	url, err := s.IconURL(ctx, g.Kind(), h, req.Size)
	if err != nil {
		return Avatar{}, err
	}
	return Avatar{URL: url, MimeType: g.MimeType(), Hash: string(h)}, nil
}

// RemoteURL expands the remote avatar template for h.
func (s *Service) RemoteURL(h identity.Hash, size int) string {
	return strings.NewReplacer(
		"{hash}", string(h),
		"{size}", strconv.Itoa(size),
	).Replace(s.remoteURL)
}

// Placeholder returns a fully transparent PNG of the given size.
func Placeholder(size int) ([]byte, error) {
	c, err := canvas.Create(canvas.Transparent, size, size)
	if err != nil {
		return nil, err
	}
	defer c.Release()
	return c.Encode(canvas.PNG)
}

func placeholderName(size int) string {
	return fmt.Sprintf("placeholder/%d.png", size)
}
