package generator

import (
	"fmt"

	"github.com/esimov/avatar/canvas"
	"github.com/esimov/avatar/identity"
)

const monsterSize = 120

type monsterLayout struct {
	Legs, Hair, Arms, Body, Eyes, Mouth int
	BodyHue                             float64
}

func newMonsterLayout(h identity.Hash) monsterLayout {
	return monsterLayout{
		Legs:    1 + h.Byte(0)%5,
		Hair:    1 + h.Byte(2)%5,
		Arms:    1 + h.Byte(4)%5,
		Body:    1 + h.Byte(6)%15,
		Eyes:    1 + h.Byte(8)%15,
		Mouth:   1 + h.Byte(10)%10,
		BodyHue: float64(h.Byte(12)) / 255 * 360,
	}
}

type monsterID struct {
	parts *parts
}

func (*monsterID) sealed()          {}
func (*monsterID) Kind() Kind       { return MonsterID }
func (*monsterID) MimeType() string { return "image/png" }

// Build assembles the monster of h from its body parts. The body layer is
// converted to gray and tinted with the hash derived hue.
func (m *monsterID) Build(h identity.Hash, size int) ([]byte, error) {
	if err := validate(h, size); err != nil {
		return nil, err
	}
	l := newMonsterLayout(h)

	base, err := canvas.Create(canvas.White, monsterSize, monsterSize)
	if err != nil {
		return nil, err
	}

	for _, name := range []string{
		"back",
		fmt.Sprintf("legs_%d", l.Legs),
		fmt.Sprintf("hair_%d", l.Hair),
		fmt.Sprintf("arms_%d", l.Arms),
	} {
		if err := m.parts.apply(base, name); err != nil {
			return nil, err
		}
	}

	name := fmt.Sprintf("body_%d", l.Body)
	if body := m.parts.load(name); body != nil {
		if err := body.Grayscale(); err != nil {
			return nil, err
		}
		if err := body.Tint(l.BodyHue, 80, 60); err != nil {
			return nil, err
		}
		if err := m.parts.compose(base, name, body); err != nil {
			return nil, err
		}
	}

	for _, name := range []string{
		fmt.Sprintf("eyes_%d", l.Eyes),
		fmt.Sprintf("mouth_%d", l.Mouth),
	} {
		if err := m.parts.apply(base, name); err != nil {
			return nil, err
		}
	}

	out, err := base.Resize(size, size)
	if err != nil {
		return nil, err
	}
	return out.Encode(canvas.PNG)
}
