package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFilter(t *testing.T) {
	tests := []struct {
		name    string
		want    imaging.ResampleFilter
		wantErr bool
	}{
		{"", imaging.Linear, false},
		{"linear", imaging.Linear, false},
		{"Bilinear", imaging.Linear, false},
		{"lanczos", imaging.Lanczos, false},
		{"catmullrom", imaging.CatmullRom, false},
		{"box", imaging.Box, false},
		{" nearest ", imaging.NearestNeighbor, false},
		{"sinc", imaging.ResampleFilter{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFilter(tt.name)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.Support, got.Support)
		})
	}
}

func TestExtract(t *testing.T) {
	img := newQuadrants(100, 100)

	out := Extract(img, Rect{X: 50, Y: 0, Width: 50, Height: 50})

	require.Equal(t, image.Rect(0, 0, 50, 50), out.Bounds())
	for y := 0; y < 50; y++ {
		for x := 0; x < 50; x++ {
			require.Equal(t, green, out.NRGBAAt(x, y))
		}
	}
}

func TestExtract_SubImageOrigin(t *testing.T) {
	img := newQuadrants(100, 100).SubImage(image.Rect(50, 50, 100, 100))

	out := Extract(img, Rect{X: 0, Y: 0, Width: 10, Height: 10})

	assert.Equal(t, white, out.NRGBAAt(0, 0))
}

func TestResample(t *testing.T) {
	img := newQuadrants(800, 600)
	r, size := ZoomCropRect(800, 600, 100, 100, CutCenter)

	out := Resample(img, r, size.Width, size.Height, imaging.Linear)

	require.Equal(t, image.Rect(0, 0, 100, 100), out.Bounds())
	assert.Equal(t, red, out.NRGBAAt(10, 10))
	assert.Equal(t, green, out.NRGBAAt(90, 10))
	assert.Equal(t, blue, out.NRGBAAt(10, 90))
	assert.Equal(t, white, out.NRGBAAt(90, 90))
}

func TestOverlay_OutsideFootprintUntouched(t *testing.T) {
	base := newQuadrants(100, 100)
	mark := newSolid(20, 10, black)
	at := image.Pt(30, 40)

	out := Overlay(base, mark, at, 80)

	footprint := image.Rect(30, 40, 50, 50)
	for y := 0; y < 100; y++ {
		for x := 0; x < 100; x++ {
			if image.Pt(x, y).In(footprint) {
				continue
			}
			require.Equal(t, base.NRGBAAt(x, y), out.NRGBAAt(x, y), "pixel (%d,%d)", x, y)
		}
	}
	assert.NotEqual(t, base.NRGBAAt(35, 45), out.NRGBAAt(35, 45))
}

func TestOverlay_DoesNotModifyBase(t *testing.T) {
	base := newSolid(10, 10, white)
	before := append([]uint8(nil), base.Pix...)

	Overlay(base, newSolid(5, 5, black), image.Pt(0, 0), 100)

	assert.Equal(t, before, base.Pix)
}

func TestOverlay_TransparentMarkIsNoop(t *testing.T) {
	base := newQuadrants(40, 40)
	mark := newSolid(40, 40, color.NRGBA{255, 255, 0, 0})

	out := Overlay(base, mark, image.Pt(0, 0), 100)

	assert.Equal(t, base.Pix, out.Pix)
}

func TestOverlay_Blend(t *testing.T) {
	tests := []struct {
		name    string
		mark    color.NRGBA
		opacity int
		want    uint8
	}{
		{"opaque full", white, 100, 255},
		{"opaque half", white, 50, 128},
		{"opaque eighty", white, 80, 204},
		{"zero opacity", white, 0, 0},
		{"half alpha full opacity", color.NRGBA{255, 255, 255, 128}, 100, 128},
		{"half alpha half opacity", color.NRGBA{255, 255, 255, 128}, 50, 64},
		{"opacity clamped above 100", white, 150, 255},
		{"opacity clamped below 0", white, -20, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := newSolid(4, 4, black)
			out := Overlay(base, newSolid(4, 4, tt.mark), image.Pt(0, 0), tt.opacity)

			px := out.NRGBAAt(2, 2)
			assert.InDelta(t, tt.want, px.R, 1)
			assert.InDelta(t, tt.want, px.G, 1)
			assert.InDelta(t, tt.want, px.B, 1)
			assert.Equal(t, uint8(255), px.A)
		})
	}
}

func TestOverlay_ClippedToBase(t *testing.T) {
	tests := []struct {
		name   string
		at     image.Point
		inside image.Point
	}{
		{"past bottom right", image.Pt(90, 90), image.Pt(95, 95)},
		{"before top left", image.Pt(-5, -5), image.Pt(2, 2)},
		{"entirely outside", image.Pt(200, 200), image.Point{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := newSolid(100, 100, white)
			out := Overlay(base, newSolid(20, 20, black), tt.at, 100)

			require.Equal(t, base.Bounds(), out.Bounds())
			if tt.inside == (image.Point{}) {
				assert.Equal(t, base.Pix, out.Pix)
				return
			}
			assert.Equal(t, black, out.NRGBAAt(tt.inside.X, tt.inside.Y))
		})
	}
}

func TestOverlay_TransparentBase(t *testing.T) {
	base := newSolid(4, 4, color.NRGBA{})

	out := Overlay(base, newSolid(4, 4, red), image.Pt(0, 0), 100)

	assert.Equal(t, red, out.NRGBAAt(1, 1))
}

func TestFlatten(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{})
	img.SetNRGBA(1, 0, blue)

	out := Flatten(img, color.NRGBA{255, 255, 255, 0})

	assert.Equal(t, white, out.NRGBAAt(0, 0))
	assert.Equal(t, blue, out.NRGBAAt(1, 0))
	assert.True(t, out.Opaque())
}

func BenchmarkOverlay(b *testing.B) {
	base := newQuadrants(1024, 768)
	mark := newSolid(256, 128, color.NRGBA{255, 255, 255, 160})
	at := Anchor(9, 1024, 768, 256, 128)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Overlay(base, mark, at, 80)
	}
}
