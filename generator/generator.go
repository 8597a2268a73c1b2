// Package generator turns an identity hash into a deterministic procedural icon.
//
// Every generator is a pure function of the hash and the requested size: no
// wall clock, OS randomness or shared state is consulted, so identical
// descriptors always produce byte-identical output.
package generator

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/esimov/avatar/identity"
	"go.uber.org/zap"
)

var (
	// ErrInvalidSize is returned when the requested icon size is not positive.
	ErrInvalidSize = errors.New("invalid icon size")
	// ErrInvalidSeed is returned when the hash is malformed or truncated.
	ErrInvalidSeed = errors.New("invalid icon seed")
	// ErrUnknownKind is returned by New for an unsupported generator kind.
	ErrUnknownKind = errors.New("unknown generator kind")
)

// MaxSize is the largest icon edge a generator accepts.
const MaxSize = 1024

// Kind names a generator.
type Kind string

const (
	Wavatar   Kind = "wavatar"
	MonsterID Kind = "monsterid"
	Retro     Kind = "retro"
	Rings     Kind = "rings"
)

// Kinds lists the supported generators.
var Kinds = []Kind{Wavatar, MonsterID, Retro, Rings}

// ParseKind validates a generator name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// Generator builds the icon of an identity hash.
//
// The set of implementations is closed: only this package can provide one.
type Generator interface {
	// Build renders the icon of h as a size x size image.
	Build(h identity.Hash, size int) ([]byte, error)
	// Kind returns the generator name.
	Kind() Kind
	// MimeType returns the content type of the built icons.
	MimeType() string

	sealed()
}

// Options configures the generators.
type Options struct {
	// Parts holds the sprite layers of the layered generators, under the
	// "wavatars" and "monsterid" directories.
	Parts fs.FS
	// Logger receives the missing layer reports. Defaults to a no-op logger.
	Logger *zap.Logger
	// Rasterize makes the vector generators emit PNG instead of SVG.
	Rasterize bool
}

// New returns the generator of the given kind.
func New(kind Kind, opts Options) (Generator, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	logger := opts.Logger.With(zap.String("generator", string(kind)))

	switch kind {
	case Wavatar:
		return &wavatar{parts: newParts(opts.Parts, "wavatars", logger)}, nil
	case MonsterID:
		return &monsterID{parts: newParts(opts.Parts, "monsterid", logger)}, nil
	case Retro:
		return &retro{vectorOutput: vectorOutput{rasterize: opts.Rasterize}}, nil
	case Rings:
		return &rings{vectorOutput: vectorOutput{rasterize: opts.Rasterize}}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

// All returns one generator of every supported kind.
func All(opts Options) ([]Generator, error) {
	gens := make([]Generator, 0, len(Kinds))
	for _, k := range Kinds {
		g, err := New(k, opts)
		if err != nil {
			return nil, err
		}
		gens = append(gens, g)
	}
	return gens, nil
}

// Descriptor identifies a generated icon.
type Descriptor struct {
	Kind Kind
	Hash identity.Hash
	Size int
}

// Filename returns the file cache path of the icon, e.g.
// "wavatar/0/c/0cc175b9c0f1b6a831c399e269772661-80.png".
func (d Descriptor) Filename(ext string) string {
	return fmt.Sprintf("%s/%s/%s-%d.%s", d.Kind, d.Hash.SubDir(), d.Hash, d.Size, ext)
}

// Extension maps a generator content type to a file extension.
func Extension(mimeType string) string {
	switch mimeType {
	case "image/svg+xml":
		return "svg"
	case "image/jpeg":
		return "jpg"
	case "image/gif":
		return "gif"
	}
	return "png"
}

func validate(h identity.Hash, size int) error {
	if size <= 0 || size > MaxSize {
		return fmt.Errorf("%w: %d", ErrInvalidSize, size)
	}
	if !h.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSeed, string(h))
	}
	return nil
}
