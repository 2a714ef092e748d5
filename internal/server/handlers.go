package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/apex/log"

	"github.com/ironsheep/image-insight/internal/annotate"
	"github.com/ironsheep/image-insight/internal/pipeline"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_analyze").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with codeToolFailed.
func (s *Server) handleToolsCall(ctx context.Context, req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return errorResponse(req.ID, codeInvalidParams, "Invalid params", err.Error())
	}

	ctx = log.NewContext(ctx, log.FromContext(ctx).WithField("tool", params.Name))
	out, err := s.executeTool(ctx, params.Name, params.Arguments)
	if err != nil {
		log.FromContext(ctx).WithError(err).Warn("tool failed")
		return errorResponse(req.ID, codeToolFailed, "Tool execution failed", err.Error())
	}

	return result(req.ID, map[string]interface{}{
		"content": []map[string]interface{}{
			{"type": "text", "text": mustMarshalJSON(out)},
		},
	})
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "image_forget":
		return s.handleImageForget(args)
	case "image_detect_objects":
		return s.handleAnalyze(ctx, pipeline.ModeDetect, args)
	case "image_ocr":
		return s.handleAnalyze(ctx, pipeline.ModeOCR, args)
	case "image_analyze":
		return s.handleAnalyze(ctx, pipeline.ModeAnalyze, args)
	case "image_ocr_words":
		if s.words != nil {
			return s.handleOCRWords(ctx, args)
		}
	}
	return nil, fmt.Errorf("unknown tool: %s", name)
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

type pathArgs struct {
	Path string `json:"path"`
}

func (a pathArgs) validate() error {
	if a.Path == "" {
		return errors.New("path is required")
	}
	return nil
}

// ImageInfo is the result of image_load.
type ImageInfo struct {
	Path         string `json:"path"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	CachedImages int    `json:"cached_images"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return &ImageInfo{
		Path:         a.Path,
		Width:        img.Width(),
		Height:       img.Height(),
		CachedImages: s.cache.Len(),
	}, nil
}

func (s *Server) handleImageForget(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	s.cache.Evict(a.Path)
	return map[string]interface{}{
		"path":          a.Path,
		"cached_images": s.cache.Len(),
	}, nil
}

type analyzeArgs struct {
	Path     string `json:"path"`
	Annotate bool   `json:"annotate"`
	Mode     string `json:"mode"`
}

func (s *Server) handleAnalyze(ctx context.Context, mode pipeline.Mode, args json.RawMessage) (interface{}, error) {
	var a analyzeArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := (pathArgs{Path: a.Path}).validate(); err != nil {
		return nil, err
	}
	if a.Mode != "" {
		m, err := pipeline.ParseMode(a.Mode)
		if err != nil {
			return nil, err
		}
		mode = m
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	analysis := s.analyzer.Analyze(ctx, mode, img)
	resp := analysis.Response
	if a.Annotate {
		encoded, err := annotate.EncodeBase64(img, analysis.Detection.Value)
		if err != nil {
			return nil, fmt.Errorf("annotate: %w", err)
		}
		resp.AnnotatedImage = encoded
	}
	return &resp, nil
}

type ocrWordsArgs struct {
	Path          string  `json:"path"`
	MinConfidence float64 `json:"min_confidence"`
}

// Word is one entry of the image_ocr_words result.
type Word struct {
	Text       string  `json:"text"`
	Box        [4]int  `json:"box"`
	Confidence float64 `json:"confidence"`
}

// WordsResult is the result of image_ocr_words.
type WordsResult struct {
	Words []Word `json:"words"`
	Count int    `json:"count"`
}

func (s *Server) handleOCRWords(ctx context.Context, args json.RawMessage) (interface{}, error) {
	var a ocrWordsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := (pathArgs{Path: a.Path}).validate(); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}

	found, err := s.words.Words(ctx, img)
	if err != nil {
		return nil, err
	}

	res := &WordsResult{Words: []Word{}}
	for _, w := range found {
		if w.Confidence < a.MinConfidence {
			continue
		}
		res.Words = append(res.Words, Word{
			Text:       w.Text,
			Box:        [4]int{w.Box.Min.X, w.Box.Min.Y, w.Box.Max.X, w.Box.Max.Y},
			Confidence: w.Confidence,
		})
	}
	res.Count = len(res.Words)
	return res, nil
}
