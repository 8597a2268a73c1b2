package filestore

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Local keeps the cached files below a directory served at BaseURL.
type Local struct {
	Dir     string
	BaseURL string

	logger *zap.Logger
}

// NewLocal creates the cache directory if needed.
func NewLocal(dir, baseURL string, logger *zap.Logger) (*Local, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Local{Dir: dir, BaseURL: baseURL, logger: logger}, nil
}

// Path returns the location of filename on disk.
func (l *Local) Path(filename string) (string, error) {
	name, err := clean(filename)
	if err != nil {
		return "", err
	}
	return filepath.Join(l.Dir, filepath.FromSlash(name)), nil
}

func (l *Local) Exists(_ context.Context, filename string) (bool, error) {
	p, err := l.Path(filename)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return err == nil, err
}

// Set writes the file through a temporary file so readers never observe
// partial content.
func (l *Local) Set(ctx context.Context, filename string, data []byte, force bool) error {
	p, err := l.Path(filename)
	if err != nil {
		return err
	}
	if !force {
		if ok, _ := l.Exists(ctx, filename); ok {
			return nil
		}
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(p), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return err
	}
	l.logger.Debug("file_cached", zap.String("file", filename), zap.Int("bytes", len(data)))
	return nil
}

func (l *Local) URL(filename string) string {
	return joinURL(l.BaseURL, filename)
}
