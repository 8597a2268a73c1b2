// Package canvas provides the owned raster buffer the icon generators paint on.
// A Canvas is exclusively owned by its creator: it is not safe for concurrent
// use, and Compose transfers the ownership of the source layer to the destination.
package canvas

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/esimov/avatar/hsl"
	"github.com/esimov/avatar/imop"
	"github.com/esimov/avatar/utils"
	"golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// MaxPixels is the largest pixel count a canvas may hold.
const MaxPixels = 4096 * 4096

// Kind is the initial fill of a new canvas.
type Kind int

const (
	White Kind = iota
	Black
	Transparent
)

func (k Kind) String() string {
	switch k {
	case White:
		return "white"
	case Black:
		return "black"
	case Transparent:
		return "transparent"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

func (k Kind) color() (color.NRGBA, error) {
	switch k {
	case White:
		return color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, nil
	case Black:
		return color.NRGBA{A: 0xff}, nil
	case Transparent:
		return color.NRGBA{}, nil
	}
	return color.NRGBA{}, fmt.Errorf("%w: invalid canvas kind %v", ErrAllocation, k)
}

// Format is the serialization format used by Encode.
type Format string

const (
	PNG Format = "png"
	BMP Format = "bmp"
)

// Canvas is a true-color raster buffer. In indexed mode the number of
// distinct colors is bounded, like a palette based image.
type Canvas struct {
	img *image.NRGBA

	maxColors int
	palette   []color.NRGBA
	index     map[color.NRGBA]int
}

// Create allocates a width x height canvas filled according to kind.
func Create(kind Kind, width, height int) (*Canvas, error) {
	bg, err := kind.color()
	if err != nil {
		return nil, err
	}
	img, err := alloc(width, height)
	if err != nil {
		return nil, err
	}
	if bg != (color.NRGBA{}) {
		draw.Draw(img, img.Bounds(), &image.Uniform{bg}, image.Point{}, draw.Src)
	}
	return &Canvas{img: img}, nil
}

// CreateIndexed allocates a canvas whose color table holds at most maxColors
// entries. The background color takes the first slot.
func CreateIndexed(kind Kind, width, height, maxColors int) (*Canvas, error) {
	if maxColors < 1 || maxColors > 256 {
		return nil, fmt.Errorf("%w: invalid color table size %d", ErrAllocation, maxColors)
	}
	c, err := Create(kind, width, height)
	if err != nil {
		return nil, err
	}
	c.maxColors = maxColors
	c.reindex()
	return c, nil
}

func alloc(width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 || width > MaxPixels || height > MaxPixels || width*height > MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrAllocation, width, height)
	}
	return image.NewNRGBA(image.Rect(0, 0, width, height)), nil
}

// Load decodes a PNG, JPEG, GIF, BMP or WebP image into a new true-color canvas.
func Load(data []byte) (*Canvas, error) {
	if !utils.IsImage(data) {
		return nil, fmt.Errorf("%w: unsupported content type %s", ErrDecode, utils.DetectContentType(data))
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return FromImage(src), nil
}

// FromImage wraps a copy of img (or img itself if it already is an
// *image.NRGBA anchored at the origin) into a canvas.
func FromImage(img image.Image) *Canvas {
	return &Canvas{img: imgToNRGBA(img)}
}

// Image returns the underlying pixel buffer, or nil once the canvas was released.
func (c *Canvas) Image() *image.NRGBA {
	return c.img
}

// Bounds returns the canvas rectangle.
func (c *Canvas) Bounds() image.Rectangle {
	if c.img == nil {
		return image.Rectangle{}
	}
	return c.img.Bounds()
}

// Width returns the canvas width in pixels.
func (c *Canvas) Width() int { return c.Bounds().Dx() }

// Height returns the canvas height in pixels.
func (c *Canvas) Height() int { return c.Bounds().Dy() }

// Indexed reports whether the canvas uses a bounded color table.
func (c *Canvas) Indexed() bool { return c.maxColors > 0 }

// Colors returns the number of allocated colors of an indexed canvas.
func (c *Canvas) Colors() int { return len(c.palette) }

// Release drops the pixel buffer. Any later operation returns ErrReleased.
func (c *Canvas) Release() {
	c.img = nil
	c.palette = nil
	c.index = nil
}

// At returns the color of the pixel at (x, y).
func (c *Canvas) At(x, y int) color.NRGBA {
	if c.img == nil {
		return color.NRGBA{}
	}
	return c.img.NRGBAAt(x, y)
}

// Compose draws src over the canvas with its top-left corner at the offset.
// The canvas takes ownership of src: src is released whether or not the
// operation succeeds and must not be used afterwards.
func (c *Canvas) Compose(src *Canvas, at image.Point) error {
	if src == nil {
		return fmt.Errorf("%w: nil layer", ErrDimension)
	}
	defer src.Release()

	if c.img == nil || src.img == nil {
		return ErrReleased
	}
	if !src.img.Bounds().Add(at).In(c.img.Bounds()) {
		return fmt.Errorf("%w: layer %v at %v exceeds canvas %v", ErrDimension, src.img.Bounds().Size(), at, c.img.Bounds())
	}

	if !c.Indexed() {
		imop.InitOp().Draw(c.img, src.img, at, nil)
		return nil
	}

	// Compose on a copy so a failure leaves the canvas untouched.
	out := image.NewNRGBA(c.img.Bounds())
	copy(out.Pix, c.img.Pix)
	imop.InitOp().Draw(out, src.img, at, nil)
	if n := countColors(out, c.maxColors+1); n > c.maxColors {
		return fmt.Errorf("%w: more than %d colors", ErrPaletteExhausted, c.maxColors)
	}
	c.img = out
	c.reindex()
	return nil
}

// Fill flood fills the 4-connected region sharing the color of the seed
// pixel with the color given by the HSL triple.
func (c *Canvas) Fill(hue, saturation, lightness float64, seed image.Point) error {
	if c.img == nil {
		return ErrReleased
	}
	if !seed.In(c.img.Bounds()) {
		return fmt.Errorf("%w: seed %v outside of canvas %v", ErrDimension, seed, c.img.Bounds())
	}
	col := hsl.NRGBA(hue, saturation, lightness)
	if err := c.allocate(col); err != nil {
		return err
	}
	target := c.img.NRGBAAt(seed.X, seed.Y)
	if target == col {
		return nil
	}

	b := c.img.Bounds()
	stack := []image.Point{seed}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !p.In(b) || c.img.NRGBAAt(p.X, p.Y) != target {
			continue
		}
		c.img.SetNRGBA(p.X, p.Y, col)
		stack = append(stack,
			image.Pt(p.X+1, p.Y), image.Pt(p.X-1, p.Y),
			image.Pt(p.X, p.Y+1), image.Pt(p.X, p.Y-1),
		)
	}
	if c.Indexed() {
		c.reindex()
	}
	return nil
}

// Tint multiplies every visible pixel with the HSL color, keeping the alpha channel.
func (c *Canvas) Tint(hue, saturation, lightness float64) error {
	if c.img == nil {
		return ErrReleased
	}
	layer := image.NewNRGBA(c.img.Bounds())
	draw.Draw(layer, layer.Bounds(), &image.Uniform{hsl.NRGBA(hue, saturation, lightness)}, image.Point{}, draw.Src)

	op := imop.InitOp()
	blend := imop.NewBlend()
	if err := op.Set(imop.SrcAtop); err != nil {
		return err
	}
	if err := blend.Set(imop.Multiply); err != nil {
		return err
	}
	op.Draw(c.img, layer, image.Point{}, blend)
	if c.Indexed() {
		c.reindex()
	}
	return nil
}

// Grayscale converts the canvas to shades of gray.
func (c *Canvas) Grayscale() error {
	if c.img == nil {
		return ErrReleased
	}
	grayscale(c.img)
	if c.Indexed() {
		c.reindex()
	}
	return nil
}

// Resize resamples the canvas to the new dimensions. The canvas itself is
// returned when the dimensions already match. Resampling an indexed canvas
// yields a true-color canvas.
func (c *Canvas) Resize(width, height int) (*Canvas, error) {
	if c.img == nil {
		return nil, ErrReleased
	}
	if width == c.Width() && height == c.Height() {
		return c, nil
	}
	if _, err := alloc(width, height); err != nil {
		return nil, err
	}
	return &Canvas{img: imaging.Resize(c.img, width, height, imaging.Lanczos)}, nil
}

// Encode serializes the canvas. PNG keeps the alpha channel; indexed
// canvases are written as paletted PNG images.
func (c *Canvas) Encode(format Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := c.EncodeTo(&buf, format); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeTo writes the serialized canvas into w.
func (c *Canvas) EncodeTo(w io.Writer, format Format) error {
	if c.img == nil {
		return ErrReleased
	}
	switch format {
	case "", PNG:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if c.Indexed() {
			return enc.Encode(w, c.paletted())
		}
		return enc.Encode(w, c.img)
	case BMP:
		return bmp.Encode(w, c.img)
	default:
		return fmt.Errorf("unsupported image format: %q", format)
	}
}

// allocate reserves a color table slot for col on indexed canvases.
func (c *Canvas) allocate(col color.NRGBA) error {
	if !c.Indexed() {
		return nil
	}
	if _, ok := c.index[col]; ok {
		return nil
	}
	if len(c.palette) >= c.maxColors {
		return fmt.Errorf("%w: all %d colors are in use", ErrPaletteExhausted, c.maxColors)
	}
	c.index[col] = len(c.palette)
	c.palette = append(c.palette, col)
	return nil
}

// reindex rebuilds the color table from the pixels in scan order,
// so the palette layout only depends on the image content.
func (c *Canvas) reindex() {
	c.palette = c.palette[:0]
	c.index = make(map[color.NRGBA]int)
	pix := c.img.Pix
	for i := 0; i < len(pix); i += 4 {
		col := color.NRGBA{R: pix[i], G: pix[i+1], B: pix[i+2], A: pix[i+3]}
		if _, ok := c.index[col]; !ok {
			c.index[col] = len(c.palette)
			c.palette = append(c.palette, col)
		}
	}
}

func (c *Canvas) paletted() *image.Paletted {
	pal := make(color.Palette, len(c.palette))
	for i, col := range c.palette {
		pal[i] = col
	}
	b := c.img.Bounds()
	out := image.NewPaletted(b, pal)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.SetColorIndex(x, y, uint8(c.index[c.img.NRGBAAt(x, y)]))
		}
	}
	return out
}

// countColors counts the distinct colors of img, stopping at limit.
func countColors(img *image.NRGBA, limit int) int {
	seen := make(map[color.NRGBA]struct{})
	pix := img.Pix
	for i := 0; i < len(pix) && len(seen) < limit; i += 4 {
		seen[color.NRGBA{R: pix[i], G: pix[i+1], B: pix[i+2], A: pix[i+3]}] = struct{}{}
	}
	return len(seen)
}
