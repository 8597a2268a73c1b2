// Package imop implements the Porter-Duff composition operations
// used for stacking the icon layers on top of each other.
// The image/draw core package implements only the source-over-destination
// and source operations, and none of the separable blend modes,
// which are needed to tint the grayscale sprite layers.
package imop

import (
	"fmt"

	"github.com/esimov/avatar/utils"
)

const (
	Darken   = "darken"
	Lighten  = "lighten"
	Multiply = "multiply"
	Screen   = "screen"
	Overlay  = "overlay"
)

// Blend holds the currently active blend mode.
type Blend struct {
	OpType string
}

// NewBlend initializes a new Blend.
func NewBlend() *Blend {
	return &Blend{}
}

// Set activates one of the supported blend modes.
func (o *Blend) Set(opType string) error {
	bModes := []string{Darken, Lighten, Multiply, Screen, Overlay}

	if !utils.Contains(bModes, opType) {
		return fmt.Errorf("unsupported blend mode: %q", opType)
	}
	o.OpType = opType
	return nil
}

// Get returns the currently active blend mode.
func (o *Blend) Get() string {
	if len(o.OpType) > 0 {
		return o.OpType
	}
	return ""
}

// blendChannel mixes the normalized backdrop (cb) and source (cs) channel values.
func blendChannel(mode string, cb, cs float64) float64 {
	switch mode {
	case Darken:
		return utils.Min(cb, cs)
	case Lighten:
		return utils.Max(cb, cs)
	case Multiply:
		return cb * cs
	case Screen:
		return cb + cs - cb*cs
	case Overlay:
		if cb <= 0.5 {
			return 2 * cb * cs
		}
		return 1 - 2*(1-cb)*(1-cs)
	}
	return cs
}
