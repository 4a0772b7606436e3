package imaging

import (
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
)

// Filter names accepted by ParseFilter.
const (
	FilterLinear     = "linear"
	FilterBox        = "box"
	FilterCatmullRom = "catmullrom"
	FilterLanczos    = "lanczos"
	FilterNearest    = "nearest"
)

// DefaultFilter is the bilinear resample filter.
var DefaultFilter = imaging.Linear

// ParseFilter maps a filter name to a resample filter. An empty name selects
// DefaultFilter.
func ParseFilter(name string) (imaging.ResampleFilter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", FilterLinear, "bilinear":
		return imaging.Linear, nil
	case FilterBox:
		return imaging.Box, nil
	case FilterCatmullRom, "bicubic":
		return imaging.CatmullRom, nil
	case FilterLanczos:
		return imaging.Lanczos, nil
	case FilterNearest, "nearestneighbor":
		return imaging.NearestNeighbor, nil
	}
	return imaging.ResampleFilter{}, fmt.Errorf("unknown resample filter %q", name)
}

// Resample extracts r from src and scales the extracted region to exactly
// dw x dh. Extraction and scaling are separate stages.
func Resample(src image.Image, r Rect, dw, dh int, filter imaging.ResampleFilter) *image.NRGBA {
	return imaging.Resize(Extract(src, r), dw, dh, filter)
}

// Extract returns a 1:1 copy of the pixels of src inside r. The rectangle is
// relative to the top-left corner of src.
func Extract(src image.Image, r Rect) *image.NRGBA {
	return imaging.Crop(src, r.Rectangle().Add(src.Bounds().Min))
}

// Overlay returns a copy of base with mark blended in at the given offset.
//
// Each footprint pixel is blended as dst*(1-a) + mark*a, where a is
// opacity/100 multiplied by the mark pixel's own alpha. Mark pixels with zero
// alpha leave the base untouched, as do all pixels outside the footprint. The
// footprint is clipped to the base bounds. opacity is clamped to [0, 100].
func Overlay(base, mark image.Image, at image.Point, opacity int) *image.NRGBA {
	dst := imaging.Clone(base)
	opacity = max(0, min(opacity, 100))
	if opacity == 0 {
		return dst
	}

	src := imaging.Clone(mark)
	ms := src.Bounds().Size()
	area := image.Rectangle{Min: at, Max: at.Add(ms)}.Intersect(dst.Bounds())
	if area.Empty() {
		return dst
	}

	op := float64(opacity) / 100
	for y := area.Min.Y; y < area.Max.Y; y++ {
		di := dst.PixOffset(area.Min.X, y)
		si := src.PixOffset(area.Min.X-at.X, y-at.Y)
		for x := area.Min.X; x < area.Max.X; x++ {
			d := dst.Pix[di : di+4 : di+4]
			s := src.Pix[si : si+4 : si+4]
			blendPixel(d, s, op)
			di += 4
			si += 4
		}
	}

	return dst
}

// blendPixel composites the non-premultiplied pixel s over d with extra
// opacity op.
func blendPixel(d, s []uint8, op float64) {
	a := op * float64(s[3]) / 255
	if a <= 0 {
		return
	}
	da := float64(d[3]) / 255
	outA := a + da*(1-a)

	for c := 0; c < 3; c++ {
		v := (float64(s[c])*a + float64(d[c])*da*(1-a)) / outA
		d[c] = clamp8(v)
	}
	d[3] = clamp8(outA * 255)
}

func clamp8(v float64) uint8 {
	v += 0.5
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Flatten composites img onto an opaque background of color bg. Used before
// encoding into a format without an alpha channel.
func Flatten(img image.Image, bg color.Color) *image.NRGBA {
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), opaque(bg))
	return Overlay(canvas, img, image.Point{}, 100)
}

func opaque(c color.Color) color.NRGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = 0xff
	return n
}
