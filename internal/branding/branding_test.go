package branding

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

func solidPNG(t *testing.T, c color.RGBA, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDominantColorSolidImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 0x33, G: 0x66, B: 0x99, A: 0xFF})
		}
	}
	require.Equal(t, "#336699", DominantColor(img))
}

func TestDominantColorSkipsTransparentPixels(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 10))
	// Mostly transparent, a few opaque red pixels.
	for x := 0; x < 3; x++ {
		img.SetRGBA(x, 0, color.RGBA{R: 0xFF, A: 0xFF})
	}
	require.Equal(t, "#ff0000", DominantColor(img))
}

func TestDominantColorEmptyImage(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4)) // all transparent
	require.Equal(t, DefaultHeaderColor, DominantColor(img))
}

func TestUploadLogoAndRoundTrip(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	require.NoError(t, err)
	svc := NewService(store)
	ctx := context.Background()

	data := solidPNG(t, color.RGBA{R: 0x11, G: 0x22, B: 0x33, A: 0xFF}, 8, 8)

	style, err := svc.UploadLogo(ctx, data)
	require.NoError(t, err)
	require.Equal(t, "#112233", style.DominantColor)
	require.Equal(t, "/api/logo", style.LogoURL)

	logo, err := svc.Logo(ctx)
	require.NoError(t, err)
	require.Equal(t, data, logo)

	require.Equal(t, style, svc.Style(ctx))
}

func TestUploadLogoRejectsGarbage(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	require.NoError(t, err)
	svc := NewService(store)

	_, err = svc.UploadLogo(context.Background(), []byte("not an image"))
	require.Error(t, err)
}

func TestLogoMissing(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	require.NoError(t, err)
	svc := NewService(store)

	_, err = svc.Logo(context.Background())
	require.ErrorIs(t, err, ErrNoLogo)
}

func TestStyleDefaultsWhenMissing(t *testing.T) {
	store, err := NewDirStore(t.TempDir())
	require.NoError(t, err)
	svc := NewService(store)

	style := svc.Style(context.Background())
	require.Equal(t, DefaultHeaderColor, style.DominantColor)
	require.Equal(t, "/api/logo", style.LogoURL)
}
