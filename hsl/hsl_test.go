package hsl

import (
	"fmt"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHSL_ShouldConvertBoundaries(t *testing.T) {
	testCases := []struct {
		h, s, l float64
		want    [3]uint8
	}{
		{0, 0, 0, [3]uint8{0, 0, 0}},
		{0, 0, 100, [3]uint8{255, 255, 255}},
		{360, 0, 100, [3]uint8{255, 255, 255}},
		{360, 100, 0, [3]uint8{0, 0, 0}},
		{0, 100, 50, [3]uint8{255, 0, 0}},
		{360, 100, 50, [3]uint8{255, 0, 0}},
		{120, 100, 50, [3]uint8{0, 255, 0}},
		{240, 100, 50, [3]uint8{0, 0, 255}},
		{60, 100, 50, [3]uint8{255, 255, 0}},
		{180, 100, 25, [3]uint8{0, 128, 128}},
		{300, 50, 75, [3]uint8{223, 159, 223}},
	}

	for _, tc := range testCases {
		t.Run(fmt.Sprintf("%v-%v-%v", tc.h, tc.s, tc.l), func(t *testing.T) {
			r, g, b := ToRGB(tc.h, tc.s, tc.l)
			assert.Equal(t, tc.want, [3]uint8{r, g, b})
		})
	}
}

func TestHSL_GrayShouldIgnoreHue(t *testing.T) {
	assert := assert.New(t)

	for hue := 0.0; hue < 360; hue += 15 {
		r, g, b := ToRGB(hue, 0, 50)
		// 127.5 rounds half away from zero.
		assert.Equal([3]uint8{128, 128, 128}, [3]uint8{r, g, b}, "hue %v", hue)
	}
}

func TestHSL_ShouldClampOutOfRangeInput(t *testing.T) {
	assert := assert.New(t)

	r, g, b := ToRGB(-120, 150, 50)
	assert.Equal([3]uint8{0, 0, 255}, [3]uint8{r, g, b})

	assert.Equal(color.NRGBA{R: 255, G: 255, B: 255, A: 255}, NRGBA(10, 40, 140))
}
