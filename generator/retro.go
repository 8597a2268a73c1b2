package generator

import (
	"math/rand/v2"

	"github.com/esimov/avatar/identity"
	"github.com/esimov/avatar/shape"
)

const retroGrid = 5

// retroCells returns the 5x5 identicon pattern of h. The first digit of each
// digit pair switches three cells of a row: the left half is mirrored on the right.
func retroCells(h identity.Hash) [retroGrid][retroGrid]bool {
	var cells [retroGrid][retroGrid]bool
	mirror := [3][]int{{0, 4}, {1, 3}, {2}}

	for i := 0; i < retroGrid*3; i++ {
		on := h.Hex(2*i, 1) >= 5
		row := i / 3
		for _, col := range mirror[i%3] {
			cells[row][col] = on
		}
	}
	return cells
}

type retro struct {
	vectorOutput
}

func (*retro) sealed()    {}
func (*retro) Kind() Kind { return Retro }

// Build draws the identicon of h. Its two colors come from a generator
// seeded with the first 32 bits of the hash and scoped to this call.
func (r *retro) Build(h identity.Hash, size int) ([]byte, error) {
	if err := validate(h, size); err != nil {
		return nil, err
	}
	seed := uint64(h.Hex(0, 8))
	rng := rand.New(rand.NewPCG(seed, seed))

	fg := randomColor(rng, bright)
	bg := randomColor(rng, light)

	scene := shape.NewScene(retroGrid, bg)
	for y, row := range retroCells(h) {
		for x, on := range row {
			if on {
				scene.Add(shape.Rect{X: x, Y: y, W: 1, H: 1, Fill: fg})
			}
		}
	}
	return r.render(scene, size)
}
