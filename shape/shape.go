// Package shape holds a minimal vector scene model used by the geometric icon
// generators. A scene is rendered either as an SVG document or flattened to a
// raster image of any size.
package shape

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	svg "github.com/ajstarks/svgo"
)

// Shape is a filled primitive placed in the view box of a scene.
type Shape interface {
	// Color returns the fill color of the shape.
	Color() color.NRGBA

	writeSVG(cv *svg.SVG)
	// outline returns the closed polygons covering the shape, in view units.
	outline() [][]point
}

type point struct{ x, y float64 }

// Rect is an axis aligned rectangle.
type Rect struct {
	X, Y, W, H int
	Fill       color.NRGBA
}

func (r Rect) Color() color.NRGBA { return r.Fill }

func (r Rect) writeSVG(cv *svg.SVG) {
	cv.Rect(r.X, r.Y, r.W, r.H, style(r.Fill))
}

func (r Rect) outline() [][]point {
	x0, y0 := float64(r.X), float64(r.Y)
	x1, y1 := x0+float64(r.W), y0+float64(r.H)
	return [][]point{{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}}}
}

// Circle is a filled disc.
type Circle struct {
	CX, CY, R int
	Fill      color.NRGBA
}

func (c Circle) Color() color.NRGBA { return c.Fill }

func (c Circle) writeSVG(cv *svg.SVG) {
	cv.Circle(c.CX, c.CY, c.R, style(c.Fill))
}

func (c Circle) outline() [][]point {
	return [][]point{arcPoints(float64(c.CX), float64(c.CY), float64(c.R), 0, 360)}
}

// Arc is a sector of an annulus centered at (CX, CY). Start and Sweep are
// given in degrees, clockwise from the positive x axis.
type Arc struct {
	CX, CY       int
	Inner, Outer float64
	Start, Sweep float64
	Fill         color.NRGBA
}

// maxSweep keeps the end point of an arc distinct from its start point.
const maxSweep = 359.9

func (a Arc) Color() color.NRGBA { return a.Fill }

func (a Arc) sweep() float64 {
	return math.Min(math.Max(a.Sweep, 0), maxSweep)
}

func (a Arc) writeSVG(cv *svg.SVG) {
	cx, cy := float64(a.CX), float64(a.CY)
	sweep := a.sweep()
	end := a.Start + sweep
	large := 0
	if sweep > 180 {
		large = 1
	}

	o0, o1 := polar(cx, cy, a.Outer, a.Start), polar(cx, cy, a.Outer, end)
	i0, i1 := polar(cx, cy, a.Inner, a.Start), polar(cx, cy, a.Inner, end)

	var d strings.Builder
	fmt.Fprintf(&d, "M%s,%s ", num(o0.x), num(o0.y))
	fmt.Fprintf(&d, "A%s,%s 0 %d 1 %s,%s ", num(a.Outer), num(a.Outer), large, num(o1.x), num(o1.y))
	fmt.Fprintf(&d, "L%s,%s ", num(i1.x), num(i1.y))
	fmt.Fprintf(&d, "A%s,%s 0 %d 0 %s,%s Z", num(a.Inner), num(a.Inner), large, num(i0.x), num(i0.y))
	cv.Path(d.String(), style(a.Fill))
}

func (a Arc) outline() [][]point {
	cx, cy := float64(a.CX), float64(a.CY)
	sweep := a.sweep()
	outer := arcPoints(cx, cy, a.Outer, a.Start, sweep)
	inner := arcPoints(cx, cy, a.Inner, a.Start, sweep)
	poly := make([]point, 0, len(outer)+len(inner))
	poly = append(poly, outer...)
	for i := len(inner) - 1; i >= 0; i-- {
		poly = append(poly, inner[i])
	}
	return [][]point{poly}
}

func polar(cx, cy, r, deg float64) point {
	rad := deg * math.Pi / 180
	return point{cx + r*math.Cos(rad), cy + r*math.Sin(rad)}
}

// arcPoints approximates an arc with segments spanning at most 3 degrees.
func arcPoints(cx, cy, r, start, sweep float64) []point {
	n := int(math.Ceil(sweep/3)) + 1
	pts := make([]point, n)
	for i := 0; i < n; i++ {
		pts[i] = polar(cx, cy, r, start+sweep*float64(i)/float64(n-1))
	}
	return pts
}

// Hex returns the #rrggbb notation of c.
func Hex(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func style(c color.NRGBA) string {
	s := "fill:" + Hex(c)
	if c.A != 0xff {
		s += ";fill-opacity:" + strconv.FormatFloat(float64(c.A)/255, 'f', 3, 64)
	}
	return s
}

func num(v float64) string {
	v = math.Round(v*100) / 100
	if v == 0 {
		v = 0 // normalize -0
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
