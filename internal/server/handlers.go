package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ironsheep/image-transform-mcp/internal/imaging"
	"github.com/ironsheep/image-transform-mcp/internal/transform"
)

// JSON-RPC error codes.
const (
	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeToolFailed     = -32000
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_thumbnail", "image_crop").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// argsError marks a malformed or incomplete argument object.
type argsError struct {
	err error
}

func (e *argsError) Error() string { return e.err.Error() }
func (e *argsError) Unwrap() error { return e.err }

func decodeArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := json.Unmarshal(args, v); err != nil {
		return &argsError{err: err}
	}
	return nil
}

func requirePath(name, value string) error {
	if value == "" {
		return &argsError{err: fmt.Errorf("%s is required", name)}
	}
	return nil
}

// ToolErrorData is the data member of a failed tools/call response.
type ToolErrorData struct {
	// Kind is "unsupported_format", "out_of_range", "write_failure" or
	// "internal".
	Kind string `json:"kind"`

	// Role is "source" or "watermark" when the failure concerns an input.
	Role string `json:"role,omitempty"`

	// Path is the file the failure refers to, if any.
	Path string `json:"path,omitempty"`

	// Message is the human-readable error.
	Message string `json:"message"`
}

func toolErrorData(err error) ToolErrorData {
	var e *imaging.Error
	if errors.As(err, &e) {
		return ToolErrorData{
			Kind:    e.Kind.String(),
			Role:    string(e.Role),
			Path:    e.Path,
			Message: err.Error(),
		}
	}
	return ToolErrorData{Kind: "internal", Message: err.Error()}
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Malformed arguments return code -32602. Operation failures return code
// -32000 with a ToolErrorData payload.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	result, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		var ae *argsError
		if errors.As(err, &ae) {
			return s.errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
		}
		s.log.Info("tool failed", zap.String("tool", params.Name), zap.Error(err))
		return s.errorResponse(req.ID, codeToolFailed, "Tool execution failed", toolErrorData(err))
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Image information
	case "image_load":
		return s.handleImageLoad(ctx, args)
	case "image_dimensions":
		return s.handleImageDimensions(ctx, args)

	// Transformations
	case "image_thumbnail":
		return s.handleImageThumbnail(ctx, args)
	case "image_crop":
		return s.handleImageCrop(ctx, args)
	case "image_zoom_crop":
		return s.handleImageZoomCrop(ctx, args)
	case "image_watermark":
		return s.handleImageWatermark(ctx, args)

	default:
		return nil, &argsError{err: fmt.Errorf("unknown tool: %s", name)}
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Image Information Handlers ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("path", a.Path); err != nil {
		return nil, err
	}
	return s.engine.Inspect(ctx, a.Path)
}

func (s *Server) handleImageDimensions(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("path", a.Path); err != nil {
		return nil, err
	}
	info, err := s.engine.Inspect(ctx, a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.Size{Width: info.Width, Height: info.Height}, nil
}

// === Transformation Handlers ===

type outputArgs struct {
	Prefix  string `json:"prefix"`
	DestDir string `json:"dest_dir"`
}

type imageThumbnailArgs struct {
	Path      string `json:"path"`
	MaxWidth  int    `json:"max_width"`
	MaxHeight int    `json:"max_height"`
	outputArgs
}

func (s *Server) handleImageThumbnail(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageThumbnailArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("path", a.Path); err != nil {
		return nil, err
	}
	return s.engine.Thumbnail(ctx, transform.ThumbnailRequest{
		Source:    a.Path,
		MaxWidth:  a.MaxWidth,
		MaxHeight: a.MaxHeight,
		Prefix:    a.Prefix,
		DestDir:   a.DestDir,
	})
}

type imageCropArgs struct {
	Path   string `json:"path"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	outputArgs
}

func (s *Server) handleImageCrop(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageCropArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("path", a.Path); err != nil {
		return nil, err
	}
	return s.engine.Crop(ctx, transform.CropRequest{
		Source:  a.Path,
		X:       a.X,
		Y:       a.Y,
		Width:   a.Width,
		Height:  a.Height,
		Prefix:  a.Prefix,
		DestDir: a.DestDir,
	})
}

type imageZoomCropArgs struct {
	Path   string `json:"path"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Cut    *int   `json:"cut"`
	outputArgs
}

func (s *Server) handleImageZoomCrop(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageZoomCropArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("path", a.Path); err != nil {
		return nil, err
	}
	cut := transform.DefaultCut
	if a.Cut != nil {
		cut = imaging.CutType(*a.Cut)
	}
	return s.engine.ZoomCrop(ctx, transform.ZoomCropRequest{
		Source:  a.Path,
		Width:   a.Width,
		Height:  a.Height,
		Cut:     cut,
		Prefix:  a.Prefix,
		DestDir: a.DestDir,
	})
}

type imageWatermarkArgs struct {
	Path        string  `json:"path"`
	Mark        string  `json:"mark"`
	Opacity     *int    `json:"opacity"`
	Anchor      int     `json:"anchor"`
	WidthRatio  float64 `json:"width_ratio"`
	HeightRatio float64 `json:"height_ratio"`
	outputArgs
}

func (s *Server) handleImageWatermark(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a imageWatermarkArgs
	if err := decodeArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath("path", a.Path); err != nil {
		return nil, err
	}
	if err := requirePath("mark", a.Mark); err != nil {
		return nil, err
	}
	opacity := transform.DefaultOpacity
	if a.Opacity != nil {
		opacity = *a.Opacity
	}
	if a.Anchor == 0 {
		a.Anchor = imaging.DefaultAnchor
	}
	return s.engine.Watermark(ctx, transform.WatermarkRequest{
		Source:      a.Path,
		Mark:        a.Mark,
		Opacity:     opacity,
		Anchor:      a.Anchor,
		WidthRatio:  a.WidthRatio,
		HeightRatio: a.HeightRatio,
		Prefix:      a.Prefix,
		DestDir:     a.DestDir,
	})
}
