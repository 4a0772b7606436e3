package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/imgio"
	"github.com/google/uuid"

	"github.com/ironsheep/image-transform-mcp/internal/storage"
)

// OutputFormat is the container every result is encoded in.
type OutputFormat string

const (
	OutputJPEG OutputFormat = "jpeg"
	OutputPNG  OutputFormat = "png"
	OutputBMP  OutputFormat = "bmp"
)

// DefaultQuality is the JPEG quality used when none is configured.
const DefaultQuality = 100

// ParseOutputFormat maps a format name to an OutputFormat.
func ParseOutputFormat(name string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "jpeg", "jpg":
		return OutputJPEG, nil
	case "png":
		return OutputPNG, nil
	case "bmp":
		return OutputBMP, nil
	}
	return "", fmt.Errorf("unsupported output format %q", name)
}

// HasAlpha reports whether the format can store transparency.
func (f OutputFormat) HasAlpha() bool {
	return f == OutputPNG
}

// Writer encodes results and persists them through storage.
//
// Every result is encoded in the one configured format, whatever extension
// the output filename carries. A PNG source written as "th_photo.png" holds
// JPEG data under the default configuration.
type Writer struct {
	store      storage.Storage
	format     OutputFormat
	quality    int
	background color.NRGBA
	createDirs bool
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithOutputFormat sets the output encoding. quality only applies to JPEG
// and is clamped to [1, 100].
func WithOutputFormat(format OutputFormat, quality int) WriterOption {
	return func(w *Writer) {
		w.format = format
		w.quality = max(1, min(quality, 100))
	}
}

// WithBackground sets the color transparent pixels are flattened onto for
// formats without alpha.
func WithBackground(bg color.NRGBA) WriterOption {
	return func(w *Writer) {
		w.background = bg
	}
}

// WithCreateDirs makes Save create a missing destination directory.
func WithCreateDirs(enabled bool) WriterOption {
	return func(w *Writer) {
		w.createDirs = enabled
	}
}

// NewWriter creates a Writer persisting through store. The defaults are JPEG
// at quality 100 on a black background.
func NewWriter(store storage.Storage, opts ...WriterOption) *Writer {
	w := &Writer{
		store:      store,
		format:     OutputJPEG,
		quality:    DefaultQuality,
		background: DefaultBackground,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Format returns the configured output format.
func (w *Writer) Format() OutputFormat {
	return w.format
}

// OutputPath computes where a result derived from originalPath is written:
// prefix + base name + original extension, inside destDir or, when destDir
// is empty, the directory of originalPath.
func OutputPath(originalPath, prefix, destDir string) string {
	base := filepath.Base(originalPath)
	ext := filepath.Ext(base)
	name := strings.TrimSuffix(base, ext)

	dir := destDir
	if dir == "" {
		dir = filepath.Dir(originalPath)
	}
	return filepath.Join(dir, prefix+name+ext)
}

func (w *Writer) encoder() imgio.Encoder {
	switch w.format {
	case OutputPNG:
		return imgio.PNGEncoder()
	case OutputBMP:
		return imgio.BMPEncoder()
	default:
		return imgio.JPEGEncoder(w.quality)
	}
}

// Encode serializes img in the configured format. Images with transparency
// are flattened onto the background first when the format has no alpha.
func (w *Writer) Encode(img image.Image) ([]byte, error) {
	if !w.format.HasAlpha() && !isOpaque(img) {
		img = Flatten(img, w.background)
	}

	var buf bytes.Buffer
	if err := w.encoder()(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", w.format, err)
	}
	return buf.Bytes(), nil
}

// Save encodes img and writes it to path, returning path on success.
//
// The data is written to a temporary file next to path and renamed into
// place, so readers never observe a partial file. The result is confirmed to
// exist before Save returns. Every failure is a WriteFailure error.
func (w *Writer) Save(ctx context.Context, img image.Image, path string) (string, error) {
	data, err := w.Encode(img)
	if err != nil {
		return "", writeFailure(path, err)
	}

	dir := filepath.Dir(path)
	if w.createDirs {
		if err := w.store.MkdirAll(ctx, dir); err != nil {
			return "", writeFailure(path, err)
		}
	}

	tmp := filepath.Join(dir, "."+filepath.Base(path)+"."+uuid.NewString()+".tmp")
	if err := w.store.WriteFile(ctx, tmp, data); err != nil {
		_ = w.store.Remove(ctx, tmp)
		return "", writeFailure(path, err)
	}
	if err := w.store.Rename(ctx, tmp, path); err != nil {
		_ = w.store.Remove(ctx, tmp)
		return "", writeFailure(path, err)
	}

	ok, err := w.store.IsFile(ctx, path)
	if err != nil {
		return "", writeFailure(path, err)
	}
	if !ok {
		return "", writeFailure(path, errors.New("output file missing after write"))
	}
	return path, nil
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}
