package generator

import (
	"image/color"

	"github.com/esimov/avatar/hsl"
	"github.com/esimov/avatar/identity"
	"github.com/esimov/avatar/shape"
)

const (
	ringView  = 240
	ringCount = 3
	ringStep  = ringView / 2 / (ringCount + 1)
	ringGap   = 6
)

type ringLayout struct {
	Colors [ringCount]color.NRGBA
	Start  [ringCount]float64
	Sweep  [ringCount]float64
	Disc   color.NRGBA
}

func newRingLayout(h identity.Hash) ringLayout {
	var l ringLayout
	for i := 0; i < ringCount; i++ {
		l.Colors[i] = hsl.NRGBA(
			float64(h.Byte(6*i))/255*360,
			float64(45+h.Byte(6*i+2)%40),
			float64(35+h.Byte(6*i+4)%30),
		)
		l.Start[i] = float64(h.Byte(22+2*i)) / 255 * 360
		l.Sweep[i] = float64(180 + h.Byte(28+i)%150)
	}
	l.Disc = hsl.NRGBA(float64(h.Byte(18))/255*360, 70, float64(40+h.Byte(20)%20))
	return l
}

type rings struct {
	vectorOutput
}

func (*rings) sealed()    {}
func (*rings) Kind() Kind { return Rings }

// Build draws three concentric ring arcs around a center disc.
func (r *rings) Build(h identity.Hash, size int) ([]byte, error) {
	if err := validate(h, size); err != nil {
		return nil, err
	}
	l := newRingLayout(h)
	c := ringView / 2

	scene := shape.NewScene(ringView, color.NRGBA{})
	for i := 0; i < ringCount; i++ {
		outer := float64(c - i*ringStep)
		scene.Add(shape.Arc{
			CX: c, CY: c,
			Outer: outer,
			Inner: outer - ringStep + ringGap,
			Start: l.Start[i],
			Sweep: l.Sweep[i],
			Fill:  l.Colors[i],
		})
	}
	scene.Add(shape.Circle{CX: c, CY: c, R: c - ringCount*ringStep - ringGap, Fill: l.Disc})

	return r.render(scene, size)
}
