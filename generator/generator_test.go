package generator

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/esimov/avatar/identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

const scenarioHash = identity.Hash("0cc175b9c0f1b6a831c399e269772661")

var battery = []identity.Hash{
	scenarioHash,
	identity.FromEmail("john@example.org"),
	identity.FromEmail("jane@example.org"),
	identity.FromEmail("admin@example.com"),
	identity.FromEmail("someone@example.net"),
}

// sprite encodes a size x size transparent PNG with a colored square whose
// position depends on the sprite number.
func sprite(t *testing.T, size, n int, c color.NRGBA) *fstest.MapFile {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	off := (n * 3) % (size - 8)
	for y := off; y < off+8; y++ {
		for x := off; x < off+8; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &fstest.MapFile{Data: buf.Bytes()}
}

func wavatarParts(t *testing.T) fstest.MapFS {
	fsys := fstest.MapFS{}
	add := func(name string, count int, c color.NRGBA) {
		for i := 1; i <= count; i++ {
			fsys[fmt.Sprintf("wavatars/%s%d.png", name, i)] = sprite(t, wavatarSize, i, c)
		}
	}
	add("fade", wavatarFades, color.NRGBA{A: 80})
	add("mask", wavatarFaces, color.NRGBA{R: 10, G: 10, B: 10, A: 255})
	add("shine", wavatarFaces, color.NRGBA{R: 255, G: 255, B: 255, A: 120})
	add("brow", wavatarBrows, color.NRGBA{R: 40, G: 20, B: 0, A: 255})
	add("eyes", wavatarEyes, color.NRGBA{R: 250, G: 250, B: 250, A: 255})
	add("pupils", wavatarPupils, color.NRGBA{A: 255})
	add("mouth", wavatarMouths, color.NRGBA{R: 200, A: 255})
	return fsys
}

func monsterParts(t *testing.T) fstest.MapFS {
	fsys := fstest.MapFS{"monsterid/back.png": sprite(t, monsterSize, 0, color.NRGBA{R: 230, G: 230, B: 230, A: 255})}
	add := func(name string, count int, c color.NRGBA) {
		for i := 1; i <= count; i++ {
			fsys[fmt.Sprintf("monsterid/%s_%d.png", name, i)] = sprite(t, monsterSize, i*2, c)
		}
	}
	add("legs", 5, color.NRGBA{R: 90, G: 60, B: 30, A: 255})
	add("hair", 5, color.NRGBA{R: 20, G: 20, B: 20, A: 255})
	add("arms", 5, color.NRGBA{R: 90, G: 60, B: 30, A: 255})
	add("body", 15, color.NRGBA{R: 200, G: 200, B: 200, A: 255})
	add("eyes", 15, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	add("mouth", 10, color.NRGBA{R: 120, A: 255})
	return fsys
}

func newGenerators(t *testing.T) []Generator {
	t.Helper()

	var gens []Generator
	for _, opts := range []struct {
		kind Kind
		opts Options
	}{
		{Wavatar, Options{Parts: wavatarParts(t)}},
		{MonsterID, Options{Parts: monsterParts(t)}},
		{Retro, Options{}},
		{Retro, Options{Rasterize: true}},
		{Rings, Options{}},
		{Rings, Options{Rasterize: true}},
	} {
		g, err := New(opts.kind, opts.opts)
		require.NoError(t, err)
		gens = append(gens, g)
	}
	return gens
}

func TestGenerator_ShouldBeDeterministic(t *testing.T) {
	for _, g := range newGenerators(t) {
		t.Run(fmt.Sprintf("%s-%s", g.Kind(), g.MimeType()), func(t *testing.T) {
			for _, h := range battery {
				first, err := g.Build(h, 64)
				require.NoError(t, err)
				second, err := g.Build(h, 64)
				require.NoError(t, err)
				assert.NotEmpty(t, first)
				assert.Equal(t, first, second)
			}
		})
	}
}

func TestGenerator_ShouldDependOnHash(t *testing.T) {
	for _, g := range newGenerators(t) {
		t.Run(fmt.Sprintf("%s-%s", g.Kind(), g.MimeType()), func(t *testing.T) {
			seen := make(map[string]identity.Hash)
			for _, h := range battery {
				data, err := g.Build(h, 48)
				require.NoError(t, err)
				if prev, ok := seen[string(data)]; ok {
					t.Fatalf("%s and %s produced the same icon", prev, h)
				}
				seen[string(data)] = h
			}
		})
	}
}

func TestGenerator_ShouldRejectInvalidInput(t *testing.T) {
	for _, g := range newGenerators(t) {
		_, err := g.Build(scenarioHash, 0)
		assert.True(t, errors.Is(err, ErrInvalidSize), g.Kind())
		_, err = g.Build(scenarioHash, -10)
		assert.True(t, errors.Is(err, ErrInvalidSize), g.Kind())
		_, err = g.Build(scenarioHash, MaxSize+1)
		assert.True(t, errors.Is(err, ErrInvalidSize), g.Kind())

		_, err = g.Build(scenarioHash[:20], 80)
		assert.True(t, errors.Is(err, ErrInvalidSeed), g.Kind())
		_, err = g.Build("zzc175b9c0f1b6a831c399e269772661", 80)
		assert.True(t, errors.Is(err, ErrInvalidSeed), g.Kind())
	}

	_, err := New(Kind("mystery"), Options{})
	assert.True(t, errors.Is(err, ErrUnknownKind))
}

func TestWavatar_ScenarioLayout(t *testing.T) {
	assert := assert.New(t)

	l := newWavatarLayout(scenarioHash)
	assert.Equal(7, l.Face)
	assert.Equal(4, l.Fade)
	assert.Equal(8, l.Brow)
	assert.Equal(2, l.Eyes)
	assert.Equal(8, l.Pupils)
	assert.Equal(18, l.Mouth)
	assert.InDelta(32.470588, l.BackgroundHue, 1e-6)
	assert.InDelta(220.235294, l.FaceHue, 1e-6)
}

func TestWavatar_ShouldRenderRequestedSize(t *testing.T) {
	assert := assert.New(t)

	g, err := New(Wavatar, Options{Parts: wavatarParts(t)})
	require.NoError(t, err)
	assert.Equal("image/png", g.MimeType())

	for _, size := range []int{80, 32, 128} {
		data, err := g.Build(scenarioHash, size)
		require.NoError(t, err)

		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err)
		assert.Equal(image.Rect(0, 0, size, size), img.Bounds())
	}
}

func TestWavatar_ShouldSkipMissingParts(t *testing.T) {
	assert := assert.New(t)

	core, logs := observer.New(zapcore.DebugLevel)
	fsys := wavatarParts(t)
	delete(fsys, "wavatars/mouth18.png")
	fsys["wavatars/eyes2.png"] = &fstest.MapFile{Data: []byte("not a png")}

	g, err := New(Wavatar, Options{Parts: fsys, Logger: zap.New(core)})
	require.NoError(t, err)

	data, err := g.Build(scenarioHash, 80)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(80, img.Bounds().Dx())

	assert.Equal(1, logs.FilterMessage("part_missing").Len())
	assert.Equal(1, logs.FilterMessage("part_undecodable").Len())

	// Without any part source the two color fills are still painted.
	g, err = New(Wavatar, Options{})
	require.NoError(t, err)
	data, err = g.Build(scenarioHash, 80)
	require.NoError(t, err)
	assert.NotEmpty(data)
}

func TestMonsterID_ScenarioLayout(t *testing.T) {
	assert := assert.New(t)

	l := newMonsterLayout(scenarioHash)
	assert.Equal(3, l.Legs)
	assert.Equal(4, l.Hair)
	assert.Equal(3, l.Arms)
	assert.Equal(6, l.Body)
	assert.Equal(13, l.Eyes)
	assert.Equal(2, l.Mouth)
	assert.InDelta(256.941176, l.BodyHue, 1e-6)
}

func TestMonsterID_ShouldSkipOversizedParts(t *testing.T) {
	assert := assert.New(t)

	core, logs := observer.New(zapcore.WarnLevel)
	fsys := monsterParts(t)
	fsys["monsterid/back.png"] = sprite(t, monsterSize*2, 1, color.NRGBA{A: 255})

	g, err := New(MonsterID, Options{Parts: fsys, Logger: zap.New(core)})
	require.NoError(t, err)

	data, err := g.Build(scenarioHash, 120)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(1, logs.FilterMessage("part_skipped").Len())
	r, gr, b, _ := img.At(119, 0).RGBA()
	assert.Equal([3]uint32{0xffff, 0xffff, 0xffff}, [3]uint32{r, gr, b})
}

func TestRetro_Cells(t *testing.T) {
	cells := retroCells(scenarioHash)
	want := [retroGrid]string{
		".###.",
		"#####",
		"##.##",
		"#####",
		"##.##",
	}
	for y, row := range cells {
		var sb strings.Builder
		for _, on := range row {
			if on {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		assert.Equal(t, want[y], sb.String(), "row %d", y)
		// Every row is mirrored.
		assert.Equal(t, row[0], row[4])
		assert.Equal(t, row[1], row[3])
	}
}

func TestRetro_SVG(t *testing.T) {
	assert := assert.New(t)

	g, err := New(Retro, Options{})
	require.NoError(t, err)
	assert.Equal("image/svg+xml", g.MimeType())

	data, err := g.Build(scenarioHash, 100)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(out, `viewBox="0 0 5 5"`)
	// The background plus one square per active cell.
	assert.Equal(22, strings.Count(out, "<rect"))
}

func TestRetro_ShouldNotShareRandomState(t *testing.T) {
	g, err := New(Retro, Options{Rasterize: true})
	require.NoError(t, err)

	want := make(map[identity.Hash][]byte)
	for _, h := range battery {
		data, err := g.Build(h, 40)
		require.NoError(t, err)
		want[h] = data
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		for _, h := range battery {
			wg.Add(1)
			go func(h identity.Hash) {
				defer wg.Done()
				data, err := g.Build(h, 40)
				assert.NoError(t, err)
				assert.Equal(t, want[h], data)
			}(h)
		}
	}
	wg.Wait()
}

func newTestRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

func TestRandomColor_ShouldRespectLuminosity(t *testing.T) {
	assert := assert.New(t)

	rng := newTestRand(42)
	for i := 0; i < 200; i++ {
		lightColor := randomColor(rng, light)
		lo := min(lightColor.R, lightColor.G, lightColor.B)
		// Light colors have a brightness of at least 50% and a saturation of at most 55%.
		assert.GreaterOrEqual(max(lightColor.R, lightColor.G, lightColor.B), uint8(127))
		assert.Greater(lo, uint8(0))

		brightColor := randomColor(rng, bright)
		hi := max(brightColor.R, brightColor.G, brightColor.B)
		assert.Less(min(brightColor.R, brightColor.G, brightColor.B), hi)
	}
}

func TestRings_Layout(t *testing.T) {
	assert := assert.New(t)

	l := newRingLayout(scenarioHash)
	for i := 0; i < ringCount; i++ {
		assert.GreaterOrEqual(l.Sweep[i], 180.0)
		assert.Less(l.Sweep[i], 330.0)
		assert.Less(l.Start[i], 360.01)
	}

	g, err := New(Rings, Options{})
	require.NoError(t, err)
	data, err := g.Build(scenarioHash, 64)
	require.NoError(t, err)
	assert.Equal(ringCount, strings.Count(string(data), "<path"))
	assert.Equal(1, strings.Count(string(data), "<circle"))
}

func TestDescriptor_Filename(t *testing.T) {
	d := Descriptor{Kind: Wavatar, Hash: scenarioHash, Size: 80}
	assert.Equal(t, "wavatar/0/c/0cc175b9c0f1b6a831c399e269772661-80.png", d.Filename(Extension("image/png")))
	assert.Equal(t, "svg", Extension("image/svg+xml"))

	k, err := ParseKind("rings")
	assert.NoError(t, err)
	assert.Equal(t, Rings, k)
	_, err = ParseKind("identicon")
	assert.True(t, errors.Is(err, ErrUnknownKind))
}
