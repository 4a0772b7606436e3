package imaging

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-transform-mcp/internal/storage"
)

var (
	red   = color.NRGBA{255, 0, 0, 255}
	green = color.NRGBA{0, 255, 0, 255}
	blue  = color.NRGBA{0, 0, 255, 255}
	white = color.NRGBA{255, 255, 255, 255}
	black = color.NRGBA{0, 0, 0, 255}
)

// newSolid returns a w x h image filled with c.
func newSolid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// newQuadrants returns an image with red top-left, green top-right, blue
// bottom-left and white bottom-right quadrants.
func newQuadrants(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			switch {
			case x < w/2 && y < h/2:
				img.SetNRGBA(x, y, red)
			case y < h/2:
				img.SetNRGBA(x, y, green)
			case x < w/2:
				img.SetNRGBA(x, y, blue)
			default:
				img.SetNRGBA(x, y, white)
			}
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeImage(t *testing.T, store storage.Storage, path string, img image.Image) []byte {
	t.Helper()
	data := encodePNG(t, img)
	require.NoError(t, store.WriteFile(context.Background(), path, data))
	return data
}
