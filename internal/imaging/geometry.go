package imaging

import (
	"image"
	"math"
)

// Size is a width/height pair in pixels.
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rect is a crop or placement region in source pixel coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rectangle converts r to an image.Rectangle.
func (r Rect) Rectangle() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Size returns the width and height of r.
func (r Rect) Size() Size {
	return Size{Width: r.Width, Height: r.Height}
}

// CutType selects which part of the source a zoom crop discards.
type CutType int

const (
	// CutLeading trims the leading edge (left or top) and keeps the trailing part.
	CutLeading CutType = 0
	// CutCenter trims both edges equally. Unknown codes behave as CutCenter.
	CutCenter CutType = 1
	// CutTrailing trims the trailing edge (right or bottom) and keeps the leading part.
	CutTrailing CutType = 2
)

// Default watermark ratios applied when a ratio is zero or negative.
const (
	DefaultMarkWidthRatio  = 0.5
	DefaultMarkHeightRatio = 0.2
)

// DefaultAnchor is the bottom-right placement used for unknown anchor codes.
const DefaultAnchor = 9

func round(v float64) int {
	return int(math.Round(v))
}

func atLeastOne(v int) int {
	if v < 1 {
		return 1
	}
	return v
}

// FitScale computes the largest size within (dw, dh) that keeps the aspect
// ratio of (sw, sh). The requested size is first clamped to the source so the
// result never upscales.
func FitScale(sw, sh, dw, dh int) Size {
	dw = min(dw, sw)
	dh = min(dh, sh)

	if sh*dw > sw*dh {
		return Size{
			Width:  atLeastOne(round(float64(dh) * float64(sw) / float64(sh))),
			Height: atLeastOne(dh),
		}
	}
	return Size{
		Width:  atLeastOne(dw),
		Height: atLeastOne(round(float64(dw) * float64(sh) / float64(sw))),
	}
}

// ZoomCropRect computes the source rectangle with the aspect ratio of (dw, dh)
// that a zoom crop extracts, and the clamped size it is then scaled to.
//
// The rectangle spans the full source height when the source is relatively
// wider than the target, and the full source width otherwise. cut decides
// which side is discarded.
func ZoomCropRect(sw, sh, dw, dh int, cut CutType) (Rect, Size) {
	dw = min(dw, sw)
	dh = min(dh, sh)
	target := Size{Width: dw, Height: dh}

	fw, fh := float64(sw), float64(sh)
	tw, th := float64(dw), float64(dh)

	if fw/tw > fh/th {
		cw := round(fh / th * tw)
		r := Rect{Y: 0, Width: cw, Height: sh}
		switch cut {
		case CutLeading:
			r.X = sw - cw
		case CutTrailing:
			r.X = 0
		default:
			r.X = (sw - cw) / 2
		}
		return r, target
	}

	ch := round(fw / tw * th)
	r := Rect{X: 0, Width: sw, Height: ch}
	switch cut {
	case CutLeading:
		r.Y = sh - ch
	case CutTrailing:
		r.Y = 0
	default:
		r.Y = (sh - ch) / 2
	}
	return r, target
}

// ValidateCrop checks that r lies entirely within a sw x sh source and has a
// positive size.
func ValidateCrop(sw, sh int, r Rect) error {
	switch {
	case r.Width <= 0 || r.Height <= 0:
		return outOfRange("crop size %dx%d must be positive", r.Width, r.Height)
	case r.X < 0 || r.Y < 0:
		return outOfRange("crop origin (%d,%d) must not be negative", r.X, r.Y)
	case r.Width > sw-r.X || r.Height > sh-r.Y:
		return outOfRange("new file size out of range: (%d,%d)+%dx%d exceeds %dx%d",
			r.X, r.Y, r.Width, r.Height, sw, sh)
	}
	return nil
}

// FitMark shrinks a mw x mh watermark so it is no wider than sw*wRate and no
// taller than sh*hRate.
//
// The width constraint is applied first and the height constraint is then
// checked against the already-shrunk height. The two passes are not merged
// into a single min() scale; the sequence changes the resulting size.
func FitMark(mw, mh, sw, sh int, wRate, hRate float64) Size {
	if wRate <= 0 {
		wRate = DefaultMarkWidthRatio
	}
	if hRate <= 0 {
		hRate = DefaultMarkHeightRatio
	}

	maxW := float64(sw) * wRate
	if float64(mw) > maxW {
		f := maxW / float64(mw)
		mw = round(maxW)
		mh = round(float64(mh) * f)
	}

	maxH := float64(sh) * hRate
	if float64(mh) > maxH {
		f := maxH / float64(mh)
		mh = round(maxH)
		mw = round(float64(mw) * f)
	}

	return Size{Width: atLeastOne(mw), Height: atLeastOne(mh)}
}

// Anchor returns the top-left position of a mw x mh mark on a sw x sh source.
//
// Codes 1 to 9 walk a 3x3 grid row by row: 1 is top-left, 5 is centered and
// 9 is bottom-right. The side positions sit one twelfth in from the edge. Any
// other code is treated as 9.
func Anchor(code, sw, sh, mw, mh int) image.Point {
	if code < 1 || code > 9 {
		code = DefaultAnchor
	}

	fw, fh := float64(sw), float64(sh)
	xs := [3]int{
		round(fw / 12),
		round(fw/2 - float64(mw)/2),
		round(fw*11/12 - float64(mw)),
	}
	ys := [3]int{
		round(fh / 12),
		round(fh/2 - float64(mh)/2),
		round(fh*11/12 - float64(mh)),
	}

	i := code - 1
	return image.Pt(xs[i%3], ys[i/3])
}
