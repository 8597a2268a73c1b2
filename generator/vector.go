package generator

import (
	"github.com/esimov/avatar/canvas"
	"github.com/esimov/avatar/shape"
)

// vectorOutput renders the scenes of the vector generators.
type vectorOutput struct {
	rasterize bool
}

func (v vectorOutput) MimeType() string {
	if v.rasterize {
		return "image/png"
	}
	return "image/svg+xml"
}

func (v vectorOutput) render(s *shape.Scene, size int) ([]byte, error) {
	if !v.rasterize {
		return s.SVG(size), nil
	}
	return canvas.FromImage(s.Raster(size)).Encode(canvas.PNG)
}
