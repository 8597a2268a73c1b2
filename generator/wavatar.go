package generator

import (
	"fmt"
	"image"

	"github.com/esimov/avatar/canvas"
	"github.com/esimov/avatar/identity"
)

const wavatarSize = 80

// Number of available sprites per wavatar part.
const (
	wavatarFades  = 4
	wavatarFaces  = 11
	wavatarBrows  = 8
	wavatarEyes   = 13
	wavatarPupils = 11
	wavatarMouths = 19
)

// wavatarLayout holds the hash derived choices of a wavatar.
type wavatarLayout struct {
	Face, Fade, Brow, Eyes, Pupils, Mouth int
	BackgroundHue, FaceHue                float64
}

func newWavatarLayout(h identity.Hash) wavatarLayout {
	return wavatarLayout{
		Face:          1 + h.Byte(1)%wavatarFaces,
		BackgroundHue: partHue(h.Byte(3)),
		Fade:          1 + h.Byte(5)%wavatarFades,
		FaceHue:       partHue(h.Byte(7)),
		Brow:          1 + h.Byte(9)%wavatarBrows,
		Eyes:          1 + h.Byte(11)%wavatarEyes,
		Pupils:        1 + h.Byte(13)%wavatarPupils,
		Mouth:         1 + h.Byte(15)%wavatarMouths,
	}
}

// partHue maps a hash byte to a hue, leaving out the last sixteenth of the circle.
func partHue(b int) float64 {
	return float64(b%240) / 255 * 360
}

type wavatar struct {
	parts *parts
}

func (*wavatar) sealed()          {}
func (*wavatar) Kind() Kind       { return Wavatar }
func (*wavatar) MimeType() string { return "image/png" }

// Build paints the wavatar of h.
func (w *wavatar) Build(h identity.Hash, size int) ([]byte, error) {
	if err := validate(h, size); err != nil {
		return nil, err
	}
	l := newWavatarLayout(h)

	base, err := canvas.Create(canvas.Black, wavatarSize, wavatarSize)
	if err != nil {
		return nil, err
	}
	if err := base.Fill(l.BackgroundHue, 94, 20, image.Pt(1, 1)); err != nil {
		return nil, err
	}

	layers := []string{
		fmt.Sprintf("fade%d", l.Fade),
		fmt.Sprintf("mask%d", l.Face),
	}
	for _, name := range layers {
		if err := w.parts.apply(base, name); err != nil {
			return nil, err
		}
	}

	center := image.Pt(wavatarSize/2, wavatarSize/2)
	if err := base.Fill(l.FaceHue, 94, 66, center); err != nil {
		return nil, err
	}

	layers = []string{
		fmt.Sprintf("shine%d", l.Face),
		fmt.Sprintf("brow%d", l.Brow),
		fmt.Sprintf("eyes%d", l.Eyes),
		fmt.Sprintf("pupils%d", l.Pupils),
		fmt.Sprintf("mouth%d", l.Mouth),
	}
	for _, name := range layers {
		if err := w.parts.apply(base, name); err != nil {
			return nil, err
		}
	}

	out, err := base.Resize(size, size)
	if err != nil {
		return nil, err
	}
	return out.Encode(canvas.PNG)
}
