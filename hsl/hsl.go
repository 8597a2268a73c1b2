// Package hsl converts hue/saturation/lightness triples to 8-bit RGB.
// Every generator that colors a layer goes through this package, so the
// rounding rule here is part of the determinism contract of the icons.
package hsl

import (
	"image/color"
	"math"

	"github.com/esimov/avatar/utils"
)

// ToRGB converts a color given as hue (degrees), saturation and lightness
// (both in percent) to its RGB components. The hue wraps around 360,
// saturation and lightness are clamped to [0, 100]. Channels are rounded
// half away from zero.
func ToRGB(hue, saturation, lightness float64) (r, g, b uint8) {
	hue = math.Mod(hue, 360)
	if hue < 0 {
		hue += 360
	}
	s := utils.Clamp(saturation, 0, 100) / 100
	l := utils.Clamp(lightness, 0, 100) / 100
	a := s * utils.Min(l, 1-l)

	f := func(n float64) uint8 {
		k := math.Mod(n+hue/30, 12)
		v := l - a*utils.Clamp(utils.Min(k-3, 9-k), -1, 1)
		return uint8(utils.Clamp(math.Round(v*255), 0, 255))
	}

	return f(0), f(8), f(4)
}

// NRGBA returns the opaque color corresponding to the HSL triple.
func NRGBA(hue, saturation, lightness float64) color.NRGBA {
	r, g, b := ToRGB(hue, saturation, lightness)
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}
