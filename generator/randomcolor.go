package generator

import (
	"image/color"
	"math/rand/v2"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// luminosity constrains the saturation and brightness of a random color.
type luminosity int

const (
	anyLuminosity luminosity = iota
	bright
	light
	dark
)

// hueBand describes a named region of the hue circle: its hue range and the
// lower bound of the brightness for increasing saturation values.
type hueBand struct {
	hue    [2]int
	bounds [][2]int
}

// The bands follow the randomColor dictionary. Red wraps around 0.
var hueBands = []hueBand{
	{hue: [2]int{-26, 18}, bounds: [][2]int{{20, 100}, {30, 92}, {40, 89}, {50, 85}, {60, 78}, {70, 70}, {80, 60}, {90, 55}, {100, 50}}},
	{hue: [2]int{19, 46}, bounds: [][2]int{{20, 100}, {30, 93}, {40, 88}, {50, 86}, {60, 85}, {70, 70}, {100, 70}}},
	{hue: [2]int{47, 62}, bounds: [][2]int{{25, 100}, {40, 94}, {50, 89}, {60, 86}, {70, 84}, {80, 82}, {90, 80}, {100, 75}}},
	{hue: [2]int{63, 178}, bounds: [][2]int{{30, 100}, {40, 90}, {50, 85}, {60, 81}, {70, 74}, {80, 64}, {90, 50}, {100, 40}}},
	{hue: [2]int{179, 257}, bounds: [][2]int{{20, 100}, {30, 86}, {40, 80}, {50, 74}, {60, 60}, {70, 52}, {80, 44}, {90, 39}, {100, 35}}},
	{hue: [2]int{258, 282}, bounds: [][2]int{{20, 100}, {30, 87}, {40, 79}, {50, 70}, {60, 65}, {70, 59}, {80, 52}, {90, 45}, {100, 42}}},
	{hue: [2]int{283, 334}, bounds: [][2]int{{20, 100}, {30, 90}, {40, 86}, {60, 84}, {80, 80}, {90, 75}, {100, 73}}},
}

func bandOf(hue int) hueBand {
	if hue >= 334 && hue <= 360 {
		hue -= 360
	}
	for _, b := range hueBands {
		if hue >= b.hue[0] && hue <= b.hue[1] {
			return b
		}
	}
	return hueBands[0]
}

func (b hueBand) saturationRange() [2]int {
	return [2]int{b.bounds[0][0], b.bounds[len(b.bounds)-1][0]}
}

func (b hueBand) minBrightness(s int) int {
	for i := 0; i < len(b.bounds)-1; i++ {
		s1, v1 := b.bounds[i][0], b.bounds[i][1]
		s2, v2 := b.bounds[i+1][0], b.bounds[i+1][1]
		if s >= s1 && s <= s2 {
			m := float64(v2-v1) / float64(s2-s1)
			return int(m*float64(s) + float64(v1) - m*float64(s1))
		}
	}
	return 0
}

// randomColor draws an attractive color from rng, following the luminosity
// model of the randomColor library. rng must be owned by the caller.
func randomColor(rng *rand.Rand, lum luminosity) color.NRGBA {
	h := between(rng, 0, 360)
	band := bandOf(h)

	var s int
	if lum == anyLuminosity {
		s = between(rng, 0, 100)
	} else {
		sr := band.saturationRange()
		switch lum {
		case bright:
			sr[0] = 55
		case dark:
			sr[0] = sr[1] - 10
		case light:
			sr[1] = 55
		}
		s = between(rng, sr[0], sr[1])
	}

	vmin, vmax := band.minBrightness(s), 100
	switch lum {
	case dark:
		vmax = vmin + 20
	case light:
		vmin = (vmax + vmin) / 2
	}
	v := between(rng, vmin, vmax)

	r, g, b := colorful.Hsv(float64(h%360), float64(s)/100, float64(v)/100).Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}
}

// between returns a uniformly distributed integer in [lo, hi].
func between(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.IntN(hi-lo+1)
}
