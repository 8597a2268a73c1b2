package imop

import (
	"fmt"
	"image"
	"math"

	"github.com/esimov/avatar/utils"
)

const (
	Copy    = "copy"
	SrcOver = "src_over"
	DstOver = "dst_over"
	SrcIn   = "src_in"
	DstIn   = "dst_in"
	SrcOut  = "src_out"
	DstOut  = "dst_out"
	SrcAtop = "src_atop"
	DstAtop = "dst_atop"
	Xor     = "xor"
)

// Composite holds the currently active Porter-Duff operation.
type Composite struct {
	current string
	ops     []string
}

// InitOp returns a Composite with source-over activated.
func InitOp() *Composite {
	return &Composite{
		current: SrcOver,
		ops: []string{
			Copy,
			SrcOver,
			DstOver,
			SrcIn,
			DstIn,
			SrcOut,
			DstOut,
			SrcAtop,
			DstAtop,
			Xor,
		},
	}
}

// Set activates one of the supported composite operations.
func (op *Composite) Set(cop string) error {
	if !utils.Contains(op.ops, cop) {
		return fmt.Errorf("unsupported composite operation: %q", cop)
	}
	op.current = cop
	return nil
}

// Get returns the active composite operation.
func (op *Composite) Get() string {
	return op.current
}

// factors returns the Porter-Duff coverage factors of the source and the backdrop.
func (op *Composite) factors(as, ab float64) (fa, fb float64) {
	switch op.current {
	case Copy:
		return 1, 0
	case SrcOver:
		return 1, 1 - as
	case DstOver:
		return 1 - ab, 1
	case SrcIn:
		return ab, 0
	case DstIn:
		return 0, as
	case SrcOut:
		return 1 - ab, 0
	case DstOut:
		return 0, 1 - as
	case SrcAtop:
		return ab, 1 - as
	case DstAtop:
		return 1 - ab, as
	case Xor:
		return 1 - ab, 1 - as
	}
	return 1, 1 - as
}

// Draw composes src onto dst with its top-left corner placed at the offset.
// Pixels falling outside of dst are ignored. When blend is not nil the source
// color is mixed with the backdrop using the blend mode before composition.
func (op *Composite) Draw(dst, src *image.NRGBA, at image.Point, blend *Blend) {
	sb := src.Bounds()
	area := sb.Add(at.Sub(sb.Min)).Intersect(dst.Bounds())
	if area.Empty() {
		return
	}

	var mode string
	if blend != nil {
		mode = blend.Get()
	}

	for y := area.Min.Y; y < area.Max.Y; y++ {
		for x := area.Min.X; x < area.Max.X; x++ {
			si := src.PixOffset(x-at.X+sb.Min.X, y-at.Y+sb.Min.Y)
			di := dst.PixOffset(x, y)
			s := src.Pix[si : si+4 : si+4]
			d := dst.Pix[di : di+4 : di+4]

			as := float64(s[3]) / 255
			ab := float64(d[3]) / 255
			fa, fb := op.factors(as, ab)

			// applying the alpha composition formula
			ao := as*fa + ab*fb
			if ao <= 0 {
				d[0], d[1], d[2], d[3] = 0, 0, 0, 0
				continue
			}
			for c := 0; c < 3; c++ {
				cs := float64(s[c]) / 255
				cb := float64(d[c]) / 255
				if mode != "" {
					cs = (1-ab)*cs + ab*blendChannel(mode, cb, cs)
				}
				co := (as*fa*cs + ab*fb*cb) / ao
				d[c] = toByte(co)
			}
			d[3] = toByte(ao)
		}
	}
}

func toByte(v float64) uint8 {
	return uint8(utils.Clamp(math.Round(v*255), 0, 255))
}
