package imaging

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/image-transform-mcp/internal/storage"
)

// Format is a supported source container format.
type Format string

const (
	FormatGIF  Format = "gif"
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

var (
	sigGIF87a = []byte("GIF87a")
	sigGIF89a = []byte("GIF89a")
	sigJPEG   = []byte{0xff, 0xd8, 0xff}
	sigPNG    = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}
)

var errUnknownSignature = errors.New("unrecognized file signature")

// DetectFormat identifies GIF, JPEG and PNG data by its leading bytes.
func DetectFormat(data []byte) (Format, bool) {
	switch {
	case bytes.HasPrefix(data, sigGIF87a), bytes.HasPrefix(data, sigGIF89a):
		return FormatGIF, true
	case bytes.HasPrefix(data, sigJPEG):
		return FormatJPEG, true
	case bytes.HasPrefix(data, sigPNG):
		return FormatPNG, true
	}
	return "", false
}

// Handle is a decoded image together with its natural size. A Handle is not
// modified after Load returns it.
type Handle struct {
	Image  image.Image
	Width  int
	Height int
	Path   string
	Format Format
}

// Size returns the natural size of the image.
func (h *Handle) Size() Size {
	return Size{Width: h.Width, Height: h.Height}
}

// HandleCache provides thread-safe caching of decoded handles keyed by
// resolved path. It is used for watermark images, which tend to be reused
// across many operations.
//
// Cached handles remain in memory until removed via Evict or Clear.
type HandleCache struct {
	mu      sync.RWMutex
	handles map[string]*Handle
}

// NewHandleCache creates an empty cache.
func NewHandleCache() *HandleCache {
	return &HandleCache{
		handles: make(map[string]*Handle),
	}
}

// Get returns the cached handle for path, if present.
func (c *HandleCache) Get(path string) (*Handle, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	h, ok := c.handles[path]
	return h, ok
}

// Put stores h under path.
func (c *HandleCache) Put(path string, h *Handle) {
	c.mu.Lock()
	c.handles[path] = h
	c.mu.Unlock()
}

// Evict removes the entry for path. Missing entries are ignored.
func (c *HandleCache) Evict(path string) {
	c.mu.Lock()
	delete(c.handles, path)
	c.mu.Unlock()
}

// Clear removes every entry.
func (c *HandleCache) Clear() {
	c.mu.Lock()
	c.handles = make(map[string]*Handle)
	c.mu.Unlock()
}

// Len returns the number of cached handles.
func (c *HandleCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.handles)
}

// Source resolves image paths and decodes them into handles.
//
// A Source is safe for concurrent use. The only shared state is the optional
// watermark cache, which is internally synchronized.
type Source struct {
	store      storage.Storage
	baseDir    string
	autoOrient bool
	marks      *HandleCache
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithBaseDir sets the directory relative paths are resolved against when
// they do not name an existing file.
func WithBaseDir(dir string) SourceOption {
	return func(s *Source) {
		s.baseDir = dir
	}
}

// WithAutoOrient applies the EXIF orientation tag of JPEG sources on decode.
func WithAutoOrient(enabled bool) SourceOption {
	return func(s *Source) {
		s.autoOrient = enabled
	}
}

// WithMarkCache keeps decoded watermark handles in cache. A nil cache
// disables caching.
func WithMarkCache(cache *HandleCache) SourceOption {
	return func(s *Source) {
		s.marks = cache
	}
}

// NewSource creates a Source reading through store.
func NewSource(store storage.Storage, opts ...SourceOption) *Source {
	s := &Source{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MarkCache returns the watermark cache, or nil when caching is disabled.
func (s *Source) MarkCache() *HandleCache {
	return s.marks
}

// Resolve maps a caller-supplied path to the path that is actually read.
//
// Absolute paths and relative paths naming an existing file are returned
// unchanged. Anything else is joined onto the base directory.
func (s *Source) Resolve(ctx context.Context, path string) string {
	if filepath.IsAbs(path) || s.baseDir == "" {
		return path
	}
	if ok, err := s.store.IsFile(ctx, path); err == nil && ok {
		return path
	}
	return filepath.Join(s.baseDir, path)
}

// Load reads and decodes the image at path. role is recorded on any error so
// callers can tell a failing source from a failing watermark.
//
// A missing file, an unrecognized signature or a decode failure all yield an
// UnsupportedFormat error. Only the first frame of a GIF is decoded.
func (s *Source) Load(ctx context.Context, role Role, path string) (*Handle, error) {
	resolved := s.Resolve(ctx, path)

	useCache := role == RoleWatermark && s.marks != nil
	if useCache {
		if h, ok := s.marks.Get(resolved); ok {
			return h, nil
		}
	}

	data, err := s.store.ReadFile(ctx, resolved)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, unsupported(role, resolved, err)
	}

	format, ok := DetectFormat(data)
	if !ok {
		return nil, unsupported(role, resolved, errUnknownSignature)
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(s.autoOrient))
	if err != nil {
		return nil, unsupported(role, resolved, fmt.Errorf("failed to decode %s: %w", format, err))
	}

	b := img.Bounds()
	h := &Handle{
		Image:  img,
		Width:  b.Dx(),
		Height: b.Dy(),
		Path:   resolved,
		Format: format,
	}
	if useCache {
		s.marks.Put(resolved, h)
	}
	return h, nil
}

// Info contains metadata about an image file.
type Info struct {
	// Path is the resolved path that was read.
	Path string `json:"path"`

	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the container format detected from the file signature.
	Format Format `json:"format"`

	// ColorDepth is "8-bit" or "16-bit" per channel.
	ColorDepth string `json:"color_depth"`

	// HasAlpha reports whether the decoded image carries an alpha channel.
	HasAlpha bool `json:"has_alpha"`

	// FileSizeBytes is the size of the file in bytes.
	FileSizeBytes int64 `json:"file_size_bytes"`
}

// Inspect loads the image at path and reports its metadata.
//
// Color depth and alpha presence are derived from the decoded Go image type:
//   - *image.RGBA, *image.NRGBA -> alpha, 8-bit
//   - *image.RGBA64, *image.NRGBA64 -> alpha, 16-bit
//   - *image.Gray16 -> 16-bit
//   - *image.Paletted -> alpha when any palette entry is not opaque
func (s *Source) Inspect(ctx context.Context, path string) (*Info, error) {
	h, err := s.Load(ctx, RoleSource, path)
	if err != nil {
		return nil, err
	}

	stat, err := s.store.Stat(ctx, h.Path)
	if err != nil {
		return nil, unsupported(RoleSource, h.Path, err)
	}

	hasAlpha := false
	colorDepth := "8-bit"
	switch img := h.Image.(type) {
	case *image.RGBA, *image.NRGBA:
		hasAlpha = true
	case *image.RGBA64, *image.NRGBA64:
		hasAlpha = true
		colorDepth = "16-bit"
	case *image.Gray16:
		colorDepth = "16-bit"
	case *image.Paletted:
		for _, c := range img.Palette {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				hasAlpha = true
				break
			}
		}
	}

	return &Info{
		Path:          h.Path,
		Width:         h.Width,
		Height:        h.Height,
		Format:        h.Format,
		ColorDepth:    colorDepth,
		HasAlpha:      hasAlpha,
		FileSizeBytes: stat.Size(),
	}, nil
}
