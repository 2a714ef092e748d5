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

func annotateProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "boolean",
		"description": "Also return the image with detection boxes drawn, as base64 PNG. Default false",
		"default":     false,
	}
}

// GetToolDefinitions returns the tools served. image_ocr_words is listed only
// when withWords is set.
func GetToolDefinitions(withWords bool) []Tool {
	tools := []Tool{
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions. The normalized image is cached until the file changes.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_forget",
			Description: "Drop an image from the cache to free memory. Changed files are reloaded automatically.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name: "image_detect_objects",
			Description: "Detect objects in an image. Returns detected_objects, boxes as [x1,y1,x2,y2] pixel coordinates, " +
				"labels and confidences in detection order.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty(),
					"annotate": annotateProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "image_ocr",
			Description: "Extract all text from an image. ocr_text is empty when the image has no text.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
				},
				"required": []string{"path"},
			},
		},
		{
			Name: "image_analyze",
			Description: "Run object detection and OCR on an image, then generate up to three follow-up questions " +
				"with answers about it. Failed stages leave their fields empty.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":     pathProperty(),
					"annotate": annotateProperty(),
					"mode": map[string]interface{}{
						"type":        "string",
						"description": "Which result the response is judged by: detect, ocr or analyze. Default analyze",
						"enum":        []string{"detect", "ocr", "analyze"},
					},
				},
				"required": []string{"path"},
			},
		},
	}

	if withWords {
		tools = append(tools, Tool{
			Name:        "image_ocr_words",
			Description: "Find each word in an image with its bounding box [x1,y1,x2,y2] and confidence (0-1).",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty(),
					"min_confidence": map[string]interface{}{
						"type":        "number",
						"description": "Drop words below this confidence. Default 0",
						"default":     0.0,
					},
				},
				"required": []string{"path"},
			},
		})
	}
	return tools
}

func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return result(req.ID, map[string]interface{}{
		"tools": GetToolDefinitions(s.words != nil),
	})
}
