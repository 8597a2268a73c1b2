package avatar

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/esimov/avatar/filestore"
	"github.com/esimov/avatar/generator"
	"github.com/esimov/avatar/identity"
	"github.com/esimov/avatar/store"
	"github.com/esimov/avatar/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const email = "Jane.Doe@example.org "

type stubProber struct {
	result validation.Result
	calls  atomic.Int32
}

func (p *stubProber) Probe(context.Context, identity.Hash) (validation.Result, error) {
	p.calls.Add(1)
	return p.result, nil
}

func newService(t *testing.T, r validation.Result) (*Service, *stubProber, string) {
	t.Helper()

	prober := &stubProber{result: r}
	v := validation.New(store.NewMemory(store.Options{}), prober, validation.Options{})

	dir := t.TempDir()
	files, err := filestore.NewLocal(dir, "/icons", nil)
	require.NoError(t, err)

	var gens []generator.Generator
	for _, k := range []generator.Kind{generator.Retro, generator.Rings, generator.Wavatar} {
		g, err := generator.New(k, generator.Options{Rasterize: k == generator.Retro})
		require.NoError(t, err)
		gens = append(gens, g)
	}

	svc, err := New(v, files, Options{
		Generators: gens,
		Default:    generator.Rings,
		RemoteURL:  "https://secure.gravatar.com/avatar/{hash}?s={size}",
	})
	require.NoError(t, err)
	return svc, prober, dir
}

func TestService_ResolveShouldUseConfirmedRemoteAvatar(t *testing.T) {
	assert := assert.New(t)

	testCases := []struct {
		name     string
		mimeType string
		expected string
	}{
		{"known type", "image/jpeg", "image/jpeg"},
		{"unknown type", "", DefaultMimeType},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			svc, prober, _ := newService(t, validation.Result{Status: validation.Confirmed, MimeType: tc.mimeType})

			av, err := svc.Resolve(context.Background(), validation.NewMemo(), Request{
				Email:     email,
				Size:      64,
				UseRemote: true,
			})
			require.NoError(t, err)

			h := identity.FromEmail(email)
			assert.True(av.Remote)
			assert.Equal(tc.expected, av.MimeType)
			assert.Equal("https://secure.gravatar.com/avatar/"+string(h)+"?s=64", av.URL)
			assert.Equal(string(h), av.Hash)
			assert.EqualValues(1, prober.calls.Load())
		})
	}
}

func TestService_ResolveShouldFallBackToLocalIcon(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	svc, prober, dir := newService(t, validation.Result{Status: validation.NotFound})
	h := identity.FromEmail(email)

	// Not opted in: the remote service is never asked.
	av, err := svc.Resolve(ctx, nil, Request{Email: email, Size: 48})
	require.NoError(t, err)
	assert.False(av.Remote)
	assert.Equal("image/svg+xml", av.MimeType)
	assert.Equal("/icons/rings/"+h.SubDir()+"/"+string(h)+"-48.svg", av.URL)
	assert.EqualValues(0, prober.calls.Load())

	// Opted in but missing remotely.
	av, err = svc.Resolve(ctx, nil, Request{Hash: h, Size: 48, Kind: generator.Retro, UseRemote: true})
	require.NoError(t, err)
	assert.False(av.Remote)
	assert.Equal("image/png", av.MimeType)
	assert.Equal("/icons/retro/"+h.SubDir()+"/"+string(h)+"-48.png", av.URL)
	assert.EqualValues(1, prober.calls.Load())

	data, err := os.ReadFile(filepath.Join(dir, "retro", filepath.FromSlash(h.SubDir()), string(h)+"-48.png"))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(48, img.Bounds().Dx())
}

func TestService_IconURLShouldGenerateOnce(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()

	svc, _, dir := newService(t, validation.Result{})
	h := identity.FromEmail(email)

	url, err := svc.IconURL(ctx, generator.Wavatar, h, 80)
	require.NoError(t, err)
	assert.Equal("/icons/wavatar/"+h.SubDir()+"/"+string(h)+"-80.png", url)

	path := filepath.Join(dir, "wavatar", filepath.FromSlash(h.SubDir()), string(h)+"-80.png")
	require.NoError(t, os.WriteFile(path, []byte("cached"), 0o644))

	again, err := svc.IconURL(ctx, generator.Wavatar, h, 80)
	require.NoError(t, err)
	assert.Equal(url, again)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal("cached", string(data))
}

func TestService_IconURLShouldStorePlaceholderOnFailure(t *testing.T) {
	assert := assert.New(t)

	svc, _, dir := newService(t, validation.Result{})

	url, err := svc.IconURL(context.Background(), generator.Rings, identity.Hash("not-a-valid-hash"), 40)
	require.NoError(t, err)
	assert.Equal("/icons/placeholder/40.png", url)

	data, err := os.ReadFile(filepath.Join(dir, "placeholder", "40.png"))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(40, img.Bounds().Dx())
	_, _, _, a := img.At(20, 20).RGBA()
	assert.Zero(a)
}

func TestService_ShouldRejectInvalidRequests(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, validation.Result{})
	h := identity.FromEmail(email)

	_, err := svc.Resolve(ctx, nil, Request{Email: "  ", Size: 80})
	assert.True(t, errors.Is(err, ErrNoIdentity))

	_, err = svc.Resolve(ctx, nil, Request{Hash: "xyz", Size: 80})
	assert.True(t, errors.Is(err, identity.ErrInvalidHash))

	_, err = svc.Resolve(ctx, nil, Request{Hash: h, Size: 80, Kind: generator.MonsterID})
	assert.True(t, errors.Is(err, generator.ErrUnknownKind))

	_, err = svc.IconURL(ctx, "", h, 0)
	assert.True(t, errors.Is(err, generator.ErrInvalidSize))

	_, err = svc.Generate(generator.Retro, h, generator.MaxSize+1)
	assert.True(t, errors.Is(err, generator.ErrInvalidSize))
}

func TestService_IsConfirmedShouldDelegateToValidator(t *testing.T) {
	assert := assert.New(t)

	svc, prober, _ := newService(t, validation.Result{Status: validation.Confirmed, MimeType: "image/gif"})
	memo := validation.NewMemo()

	ok, mimeType := svc.IsConfirmed(context.Background(), memo, email, 0)
	assert.True(ok)
	assert.Equal("image/gif", mimeType)

	ok, _ = svc.IsConfirmed(context.Background(), memo, "", 0)
	assert.False(ok)
	assert.EqualValues(1, prober.calls.Load())
}

func TestService_NewShouldRequireDefaultGenerator(t *testing.T) {
	g, err := generator.New(generator.Retro, generator.Options{})
	require.NoError(t, err)

	_, err = New(nil, nil, Options{Generators: []generator.Generator{g}, Default: generator.Wavatar})
	assert.True(t, errors.Is(err, generator.ErrUnknownKind))

	_, err = New(nil, nil, Options{Generators: []generator.Generator{g, g}, Default: generator.Retro})
	assert.Error(t, err)
}
