package generator

import (
	"errors"
	"image"
	"io/fs"
	"path"

	"github.com/esimov/avatar/canvas"
	"go.uber.org/zap"
)

// parts loads the sprite layers of a layered generator.
type parts struct {
	fsys   fs.FS
	dir    string
	logger *zap.Logger
}

func newParts(fsys fs.FS, dir string, logger *zap.Logger) *parts {
	return &parts{fsys: fsys, dir: dir, logger: logger}
}

// load returns the named layer, or nil when it is missing or undecodable.
func (p *parts) load(name string) *canvas.Canvas {
	if p.fsys == nil {
		p.logger.Debug("part_missing", zap.String("part", name), zap.String("reason", "no part source"))
		return nil
	}
	file := path.Join(p.dir, name+".png")
	data, err := fs.ReadFile(p.fsys, file)
	if err != nil {
		p.logger.Debug("part_missing", zap.String("part", file), zap.Error(err))
		return nil
	}
	layer, err := canvas.Load(data)
	if err != nil {
		p.logger.Warn("part_undecodable", zap.String("part", file), zap.Error(err))
		return nil
	}
	return layer
}

// apply composes the named layer over base. Layers that cannot be used are
// skipped and never fail the build.
func (p *parts) apply(base *canvas.Canvas, name string) error {
	return p.compose(base, name, p.load(name))
}

func (p *parts) compose(base *canvas.Canvas, name string, layer *canvas.Canvas) error {
	if layer == nil {
		return nil
	}
	err := base.Compose(layer, image.Point{})
	if errors.Is(err, canvas.ErrDimension) {
		p.logger.Warn("part_skipped", zap.String("part", name), zap.Error(err))
		return nil
	}
	return err
}
