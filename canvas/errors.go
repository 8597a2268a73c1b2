package canvas

import "errors"

var (
	// ErrAllocation is returned when a canvas of the requested size cannot be allocated.
	ErrAllocation = errors.New("canvas allocation failed")
	// ErrDecode is returned when the input is not a decodable raster image.
	ErrDecode = errors.New("image decode failed")
	// ErrDimension is returned when a layer or a seed point does not fit the canvas.
	ErrDimension = errors.New("dimension mismatch")
	// ErrPaletteExhausted is returned when an indexed canvas has no free color slot.
	ErrPaletteExhausted = errors.New("palette exhausted")
	// ErrReleased is returned when a canvas is used after its ownership was transferred.
	ErrReleased = errors.New("canvas already released")
)
