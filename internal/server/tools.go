package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func pathProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Absolute path to the image file",
	}
}

// detectionProperties are the optional per-call overrides of the configured
// detection parameters.
func detectionProperties() map[string]interface{} {
	return map[string]interface{}{
		"blur_kernel": map[string]interface{}{
			"type":        "integer",
			"description": "Odd Gaussian kernel size (default from config, usually 5)",
		},
		"canny_low": map[string]interface{}{
			"type":        "number",
			"description": "Canny low threshold (default from config, usually 50)",
		},
		"canny_high": map[string]interface{}{
			"type":        "number",
			"description": "Canny high threshold (default from config, usually 150)",
		},
		"min_area": map[string]interface{}{
			"type":        "number",
			"description": "Contour area a candidate must exceed (default from config, usually 1000)",
		},
	}
}

func withPath(props map[string]interface{}) map[string]interface{} {
	props["path"] = pathProperty()
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions and format.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "plate_detect",
			Description: "Find candidate license-plate regions. Returns every box that survives the area filter, in discovery order. An empty list means no plate was detected.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": withPath(detectionProperties()),
				"required":   []string{"path"},
			},
		},
		{
			Name:        "plate_annotate",
			Description: "Detect plates, outline every one on a copy of the image and save it under <output_dir>/DETECTED_AND_CROPPED_FILES/ with the input's file name. Fails without writing when no plate is detected.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"output_dir": map[string]interface{}{
						"type":        "string",
						"description": "Base directory for the output folder (default from config)",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "plate_crop",
			Description: "Detect plates, select one and return it cropped from the original image as base64-encoded PNG. Optionally also writes the crop to output_path.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"selection": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"largest", "first", "last"},
						"description": "Which plate to crop (default from config, usually largest)",
					},
					"scale": map[string]interface{}{
						"type":        "number",
						"description": "Scale factor for the crop (default: 1.0)",
					},
					"output_path": map[string]interface{}{
						"type":        "string",
						"description": "File to save the crop to; unknown extensions are saved as PNG",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_edge_detect",
			Description: "Return the Canny edge map the detector works on, as base64-encoded PNG. Useful for tuning thresholds.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":        pathProperty(),
					"blur_kernel": detectionProperties()["blur_kernel"],
					"canny_low":   detectionProperties()["canny_low"],
					"canny_high":  detectionProperties()["canny_high"],
				},
				"required": []string{"path"},
			},
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
