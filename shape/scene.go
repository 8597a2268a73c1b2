package shape

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"

	svg "github.com/ajstarks/svgo"
	"golang.org/x/image/vector"
)

// Scene is a square drawing measured in view units. Shapes are painted in
// the order they were added.
type Scene struct {
	View       int
	Background color.NRGBA

	shapes []Shape
}

// NewScene creates an empty scene with a view box of view x view units.
// A zero background leaves the scene transparent.
func NewScene(view int, bg color.NRGBA) *Scene {
	return &Scene{View: view, Background: bg}
}

// Add appends shapes on top of the already added ones.
func (s *Scene) Add(shapes ...Shape) {
	s.shapes = append(s.shapes, shapes...)
}

// Len returns the number of shapes of the scene.
func (s *Scene) Len() int { return len(s.shapes) }

// SVG renders the scene as an SVG document of size x size pixels.
func (s *Scene) SVG(size int) []byte {
	var buf bytes.Buffer
	cv := svg.New(&buf)
	cv.Startview(size, size, 0, 0, s.View, s.View)
	if s.Background.A != 0 {
		Rect{W: s.View, H: s.View, Fill: s.Background}.writeSVG(cv)
	}
	for _, sh := range s.shapes {
		sh.writeSVG(cv)
	}
	cv.End()
	return buf.Bytes()
}

// Raster flattens the scene to a size x size image.
func (s *Scene) Raster(size int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	if s.Background.A != 0 {
		draw.Draw(dst, dst.Bounds(), image.NewUniform(s.Background), image.Point{}, draw.Src)
	}
	scale := float64(size) / float64(s.View)

	z := vector.NewRasterizer(size, size)
	for _, sh := range s.shapes {
		z.Reset(size, size)
		for _, poly := range sh.outline() {
			if len(poly) < 3 {
				continue
			}
			z.MoveTo(float32(poly[0].x*scale), float32(poly[0].y*scale))
			for _, p := range poly[1:] {
				z.LineTo(float32(p.x*scale), float32(p.y*scale))
			}
			z.ClosePath()
		}
		z.Draw(dst, dst.Bounds(), image.NewUniform(sh.Color()), image.Point{})
	}
	return dst
}
