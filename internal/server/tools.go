package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func prop(typ, description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        typ,
		"description": description,
	}
}

func propDefault(typ, description string, def interface{}) map[string]interface{} {
	p := prop(typ, description)
	p["default"] = def
	return p
}

func objectSchema(props map[string]interface{}, required ...string) map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

const pathDescription = "Path to a GIF, JPEG or PNG file. Relative paths that do not exist are resolved against the configured base directory."

// withOutput adds the prefix and dest_dir properties shared by every
// transformation tool.
func withOutput(props map[string]interface{}, defaultPrefix string) map[string]interface{} {
	props["prefix"] = propDefault("string", "Prepended to the source file name to form the output name", defaultPrefix)
	props["dest_dir"] = prop("string", "Directory to write the output to. Defaults to the source file's directory")
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, detected format, color depth, alpha presence and file size.",
			InputSchema: objectSchema(map[string]interface{}{
				"path": prop("string", pathDescription),
			}, "path"),
		},
		{
			Name:        "image_dimensions",
			Description: "Get the width and height of an image file.",
			InputSchema: objectSchema(map[string]interface{}{
				"path": prop("string", pathDescription),
			}, "path"),
		},

		// Transformations
		{
			Name: "image_thumbnail",
			Description: "Write an aspect-preserving thumbnail that fits within max_width x max_height. " +
				"Images are never enlarged. Returns the written path and its size.",
			InputSchema: objectSchema(withOutput(map[string]interface{}{
				"path":       prop("string", pathDescription),
				"max_width":  propDefault("integer", "Maximum output width in pixels", 200),
				"max_height": propDefault("integer", "Maximum output height in pixels", 200),
			}, "th_"), "path"),
		},
		{
			Name: "image_crop",
			Description: "Write an exact 1:1 copy of a rectangle of the image. " +
				"Fails with out_of_range if the rectangle does not lie inside the image.",
			InputSchema: objectSchema(withOutput(map[string]interface{}{
				"path":   prop("string", pathDescription),
				"x":      prop("integer", "Left edge X coordinate (0-based)"),
				"y":      prop("integer", "Top edge Y coordinate (0-based)"),
				"width":  prop("integer", "Rectangle width in pixels"),
				"height": prop("integer", "Rectangle height in pixels"),
			}, "cut_"), "path", "x", "y", "width", "height"),
		},
		{
			Name: "image_zoom_crop",
			Description: "Write a thumbnail of exactly width x height by cutting the part of the image with " +
				"that aspect ratio and scaling it. The size is clamped to the source size.",
			InputSchema: objectSchema(withOutput(map[string]interface{}{
				"path":   prop("string", pathDescription),
				"width":  prop("integer", "Output width in pixels"),
				"height": prop("integer", "Output height in pixels"),
				"cut": map[string]interface{}{
					"type":        "integer",
					"description": "Which side to discard: 0 the leading edge (left or top), 1 both edges equally, 2 the trailing edge (right or bottom)",
					"enum":        []int{0, 1, 2},
					"default":     1,
				},
			}, "th_"), "path", "width", "height"),
		},
		{
			Name: "image_watermark",
			Description: "Blend a watermark image onto the source. The mark is shrunk to at most width_ratio of the " +
				"source width and then height_ratio of the source height, and placed at one of nine anchors.",
			InputSchema: objectSchema(withOutput(map[string]interface{}{
				"path": prop("string", pathDescription),
				"mark": prop("string", "Path to the watermark image"),
				"opacity": map[string]interface{}{
					"type":        "integer",
					"description": "Blend strength in percent. 0 leaves the source unchanged, 100 is fully opaque",
					"minimum":     0,
					"maximum":     100,
					"default":     80,
				},
				"anchor": map[string]interface{}{
					"type":        "integer",
					"description": "Position on a 3x3 grid, row by row: 1 top-left, 5 center, 9 bottom-right",
					"minimum":     1,
					"maximum":     9,
					"default":     9,
				},
				"width_ratio":  propDefault("number", "Maximum mark width as a fraction of the source width", 0.5),
				"height_ratio": propDefault("number", "Maximum mark height as a fraction of the source height", 0.2),
			}, "wm_"), "path", "mark"),
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
