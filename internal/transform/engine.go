// Package transform implements the four image operations (thumbnail, crop,
// zoom crop and watermark) on top of the imaging building blocks.
//
// Every operation returns its own *Result or error. An Engine keeps no
// per-call state and may be shared by concurrent callers.
package transform

import (
	"context"
	"image"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	img "github.com/ironsheep/image-transform-mcp/internal/imaging"
)

// Defaults applied when a request leaves the field empty.
const (
	DefaultThumbWidth  = 200
	DefaultThumbHeight = 200

	DefaultThumbPrefix     = "th_"
	DefaultCropPrefix      = "cut_"
	DefaultZoomPrefix      = "th_"
	DefaultWatermarkPrefix = "wm_"

	DefaultOpacity = 80
	DefaultCut     = img.CutCenter
)

// Result describes a written output file.
type Result struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// ThumbnailRequest asks for an aspect-preserving scale of Source that fits
// within MaxWidth x MaxHeight. Zero bounds default to 200.
type ThumbnailRequest struct {
	Source    string
	MaxWidth  int
	MaxHeight int
	Prefix    string
	DestDir   string
}

// CropRequest asks for a 1:1 copy of a rectangle of Source.
type CropRequest struct {
	Source  string
	X       int
	Y       int
	Width   int
	Height  int
	Prefix  string
	DestDir string
}

// ZoomCropRequest asks for the aspect-matching part of Source, scaled to
// exactly Width x Height (clamped to the source size).
type ZoomCropRequest struct {
	Source  string
	Width   int
	Height  int
	Cut     img.CutType
	Prefix  string
	DestDir string
}

// WatermarkRequest asks for Mark to be blended onto Source.
//
// Opacity is a percentage in [0, 100]. Anchor selects one of nine positions
// (1 top-left to 9 bottom-right). WidthRatio and HeightRatio bound the mark
// relative to the source and default to 0.5 and 0.2.
type WatermarkRequest struct {
	Source      string
	Mark        string
	Opacity     int
	Anchor      int
	WidthRatio  float64
	HeightRatio float64
	Prefix      string
	DestDir     string
}

// Engine runs transformation operations.
type Engine struct {
	source *img.Source
	writer *img.Writer
	filter imaging.ResampleFilter
	log    *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		e.log = l.Named("engine")
	}
}

// WithFilter sets the resample filter used for scaling.
func WithFilter(f imaging.ResampleFilter) Option {
	return func(e *Engine) {
		e.filter = f
	}
}

// New creates an Engine reading through source and persisting through writer.
func New(source *img.Source, writer *img.Writer, opts ...Option) *Engine {
	e := &Engine{
		source: source,
		writer: writer,
		filter: img.DefaultFilter,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Source returns the image source the engine decodes through.
func (e *Engine) Source() *img.Source {
	return e.source
}

// Thumbnail writes an aspect-preserving reduction of the source. The image
// is never enlarged.
func (e *Engine) Thumbnail(ctx context.Context, req ThumbnailRequest) (*Result, error) {
	const op = "thumbnail"

	if req.MaxWidth == 0 {
		req.MaxWidth = DefaultThumbWidth
	}
	if req.MaxHeight == 0 {
		req.MaxHeight = DefaultThumbHeight
	}
	if req.MaxWidth < 0 || req.MaxHeight < 0 {
		return e.fail(op, req.Source, outOfRange("thumbnail size %dx%d must be positive", req.MaxWidth, req.MaxHeight))
	}

	src, err := e.source.Load(ctx, img.RoleSource, req.Source)
	if err != nil {
		return e.fail(op, req.Source, err)
	}

	size := img.FitScale(src.Width, src.Height, req.MaxWidth, req.MaxHeight)
	full := img.Rect{Width: src.Width, Height: src.Height}
	dst := img.Resample(src.Image, full, size.Width, size.Height, e.filter)

	return e.save(ctx, op, src, dst, prefixOr(req.Prefix, DefaultThumbPrefix), req.DestDir)
}

// Crop writes an exact copy of a rectangle of the source. A rectangle that
// does not lie entirely inside the source is an OutOfRange error; it is
// never truncated.
func (e *Engine) Crop(ctx context.Context, req CropRequest) (*Result, error) {
	const op = "crop"

	src, err := e.source.Load(ctx, img.RoleSource, req.Source)
	if err != nil {
		return e.fail(op, req.Source, err)
	}

	r := img.Rect{X: req.X, Y: req.Y, Width: req.Width, Height: req.Height}
	if err := img.ValidateCrop(src.Width, src.Height, r); err != nil {
		return e.fail(op, req.Source, err)
	}
	dst := img.Extract(src.Image, r)

	return e.save(ctx, op, src, dst, prefixOr(req.Prefix, DefaultCropPrefix), req.DestDir)
}

// ZoomCrop writes a thumbnail of exactly the requested size by first cutting
// the part of the source with the target aspect ratio and then scaling it.
func (e *Engine) ZoomCrop(ctx context.Context, req ZoomCropRequest) (*Result, error) {
	const op = "zoom_crop"

	if req.Width <= 0 || req.Height <= 0 {
		return e.fail(op, req.Source, outOfRange("zoom size %dx%d must be positive", req.Width, req.Height))
	}

	src, err := e.source.Load(ctx, img.RoleSource, req.Source)
	if err != nil {
		return e.fail(op, req.Source, err)
	}

	r, size := img.ZoomCropRect(src.Width, src.Height, req.Width, req.Height, req.Cut)
	e.log.Debug("zoom crop planned",
		zap.String("source", src.Path),
		zap.Int("x", r.X), zap.Int("y", r.Y),
		zap.Int("crop_width", r.Width), zap.Int("crop_height", r.Height))
	dst := img.Resample(src.Image, r, size.Width, size.Height, e.filter)

	return e.save(ctx, op, src, dst, prefixOr(req.Prefix, DefaultZoomPrefix), req.DestDir)
}

// Watermark blends the mark onto the source. The mark is first shrunk to
// fit the width ratio and then the height ratio, and placed at the
// requested anchor. Source and mark are decoded concurrently.
func (e *Engine) Watermark(ctx context.Context, req WatermarkRequest) (*Result, error) {
	const op = "watermark"

	var (
		g               errgroup.Group
		src, mark       *img.Handle
		srcErr, markErr error
	)
	g.Go(func() error {
		src, srcErr = e.source.Load(ctx, img.RoleSource, req.Source)
		return srcErr
	})
	g.Go(func() error {
		mark, markErr = e.source.Load(ctx, img.RoleWatermark, req.Mark)
		return markErr
	})
	if err := g.Wait(); err != nil {
		// Source errors take precedence over mark errors.
		if srcErr != nil {
			return e.fail(op, req.Source, srcErr)
		}
		return e.fail(op, req.Source, markErr)
	}

	size := img.FitMark(mark.Width, mark.Height, src.Width, src.Height, req.WidthRatio, req.HeightRatio)
	var markImg image.Image = mark.Image
	if size != mark.Size() {
		markImg = imaging.Resize(mark.Image, size.Width, size.Height, e.filter)
	}
	at := img.Anchor(req.Anchor, src.Width, src.Height, size.Width, size.Height)

	e.log.Debug("watermark planned",
		zap.String("mark", mark.Path),
		zap.Int("mark_width", size.Width), zap.Int("mark_height", size.Height),
		zap.Int("x", at.X), zap.Int("y", at.Y),
		zap.Int("opacity", req.Opacity))
	dst := img.Overlay(src.Image, markImg, at, req.Opacity)

	return e.save(ctx, op, src, dst, prefixOr(req.Prefix, DefaultWatermarkPrefix), req.DestDir)
}

// Inspect reports metadata about an image without transforming it.
func (e *Engine) Inspect(ctx context.Context, path string) (*img.Info, error) {
	info, err := e.source.Inspect(ctx, path)
	if err != nil {
		e.log.Warn("inspect failed", zap.String("source", path), zap.Error(err))
		return nil, err
	}
	return info, nil
}

func (e *Engine) save(ctx context.Context, op string, src *img.Handle, dst *image.NRGBA, prefix, destDir string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return e.fail(op, src.Path, err)
	}

	out := img.OutputPath(src.Path, prefix, destDir)
	path, err := e.writer.Save(ctx, dst, out)
	if err != nil {
		return e.fail(op, src.Path, err)
	}

	b := dst.Bounds()
	res := &Result{Path: path, Width: b.Dx(), Height: b.Dy()}
	e.log.Info("image written",
		zap.String("op", op),
		zap.String("source", src.Path),
		zap.String("output", res.Path),
		zap.Int("width", res.Width),
		zap.Int("height", res.Height))
	return res, nil
}

func (e *Engine) fail(op, source string, err error) (*Result, error) {
	e.log.Warn("operation failed",
		zap.String("op", op),
		zap.String("source", source),
		zap.Stringer("kind", img.KindOf(err)),
		zap.Error(err))
	return nil, err
}

func prefixOr(prefix, def string) string {
	if prefix == "" {
		return def
	}
	return prefix
}

func outOfRange(format string, args ...any) error {
	return img.NewError(img.KindOutOfRange, format, args...)
}
