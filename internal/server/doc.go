// Package server implements the MCP (Model Context Protocol) server for the
// image transformation tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the transform
// engine through the MCP protocol, so MCP-compatible clients can produce
// thumbnails, crops and watermarked copies of images on disk.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image Information:
//   - image_load: Load image and get metadata
//   - image_dimensions: Get width and height
//
// Transformations:
//   - image_thumbnail: Scale to fit a bounding box, preserving aspect ratio
//   - image_crop: Copy a rectangular region 1:1
//   - image_zoom_crop: Crop to the target aspect ratio, then scale
//   - image_watermark: Blend a mark image at one of nine anchors
//
// Every transformation writes a new file named prefix + original filename,
// next to the source or in dest_dir, and returns its path and size.
//
// # Error Handling
//
// Malformed arguments and unknown tools return code -32602. Failed
// operations return code -32000 with a ToolErrorData payload whose kind is
// one of "unsupported_format", "out_of_range" or "write_failure". For
// unsupported inputs the role tells a bad source apart from a bad watermark.
//
// # Usage
//
//	engine, err := cfg.NewEngine(storage.NewOSStorage(), logger)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv := server.New(engine, server.WithLogger(logger))
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server
