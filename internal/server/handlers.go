package server

import (
	"encoding/json"
	"fmt"

	"github.com/ironsheep/plate-detect/internal/detection"
	"github.com/ironsheep/plate-detect/internal/imaging"
	"github.com/ironsheep/plate-detect/internal/workflow"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "plate_detect").
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
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.log.WithError(err).WithField("tool", params.Name).Warn("tool failed")
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
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
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	case "image_load":
		return s.handleImageLoad(args)
	case "plate_detect":
		return s.handlePlateDetect(args)
	case "plate_annotate":
		return s.handlePlateAnnotate(args)
	case "plate_crop":
		return s.handlePlateCrop(args)
	case "image_edge_detect":
		return s.handleImageEdgeDetect(args)
	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	resp := &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
		},
	}
	if data != "" {
		resp.Error.Data = data
	}
	return resp
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// On marshal failure it returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// unmarshalArgs decodes tool arguments, treating absent arguments as an
// empty object so that required-field checks report the real problem.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	return json.Unmarshal(args, v)
}

func requirePath(path string) error {
	if path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

// detectionOverrides holds optional per-call replacements for the configured
// detection parameters. Nil fields keep the configured value.
type detectionOverrides struct {
	BlurKernel *int     `json:"blur_kernel"`
	CannyLow   *float64 `json:"canny_low"`
	CannyHigh  *float64 `json:"canny_high"`
	MinArea    *float64 `json:"min_area"`
}

func (o detectionOverrides) empty() bool {
	return o.BlurKernel == nil && o.CannyLow == nil && o.CannyHigh == nil && o.MinArea == nil
}

func (o detectionOverrides) apply(p detection.Params) detection.Params {
	if o.BlurKernel != nil {
		p.BlurKernel = *o.BlurKernel
	}
	if o.CannyLow != nil {
		p.CannyLow = *o.CannyLow
	}
	if o.CannyHigh != nil {
		p.CannyHigh = *o.CannyHigh
	}
	if o.MinArea != nil {
		p.MinArea = *o.MinArea
	}
	return p
}

// runnerFor returns the shared runner, or a one-off runner with a detector
// built from the overridden parameters.
func (s *Server) runnerFor(o detectionOverrides) (*workflow.Runner, error) {
	if o.empty() {
		return s.runner, nil
	}
	d, err := detection.New(s.cfg.Detection.Backend, o.apply(s.cfg.Params()))
	if err != nil {
		return nil, err
	}
	return workflow.NewRunner(s.cfg, s.log, workflow.WithLoader(s.cache), workflow.WithDetector(d))
}

// === Image Information ===

type imageLoadArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a imageLoadArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

// === Plate Detection ===

type plateDetectArgs struct {
	Path string `json:"path"`
	detectionOverrides
}

type plateDetectResult struct {
	Path   string            `json:"path"`
	Found  bool              `json:"found"`
	Count  int               `json:"count"`
	Width  int               `json:"width"`
	Height int               `json:"height"`
	Plates []detection.Plate `json:"plates"`
}

func (s *Server) handlePlateDetect(args json.RawMessage) (interface{}, error) {
	var a plateDetectArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}
	runner, err := s.runnerFor(a.detectionOverrides)
	if err != nil {
		return nil, err
	}

	res, err := runner.Detect(a.Path)
	if err != nil {
		return nil, err
	}
	return &plateDetectResult{
		Path:   a.Path,
		Found:  res.Found(),
		Count:  res.Count(),
		Width:  res.Width,
		Height: res.Height,
		Plates: res.Plates,
	}, nil
}

type plateAnnotateArgs struct {
	Path      string `json:"path"`
	OutputDir string `json:"output_dir"`
}

func (s *Server) handlePlateAnnotate(args json.RawMessage) (interface{}, error) {
	var a plateAnnotateArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}

	runner := s.runner
	if a.OutputDir != "" {
		runner = runner.WithBaseDir(a.OutputDir)
	}
	ann, err := runner.AnnotateAndSave(a.Path)
	if err != nil {
		return nil, err
	}
	// A stale decode of a previous output must not be served from the cache.
	s.cache.Evict(ann.Output)
	return ann, nil
}

type plateCropArgs struct {
	Path       string  `json:"path"`
	Selection  string  `json:"selection"`
	Scale      float64 `json:"scale"`
	OutputPath string  `json:"output_path"`
}

type plateCropResult struct {
	Plate       detection.Plate `json:"plate"`
	Width       int             `json:"width"`
	Height      int             `json:"height"`
	ImageBase64 string          `json:"image_base64"`
	MimeType    string          `json:"mime_type"`
	Output      string          `json:"output,omitempty"`
}

func (s *Server) handlePlateCrop(args json.RawMessage) (interface{}, error) {
	var a plateCropArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}

	policy, err := s.cfg.Selection()
	if err != nil {
		return nil, err
	}
	if a.Selection != "" {
		if policy, err = detection.ParseSelectionPolicy(a.Selection); err != nil {
			return nil, err
		}
	}
	if a.Scale == 0 {
		a.Scale = s.cfg.Crop.Scale
	}

	sess, err := s.runner.Open(a.Path)
	if err != nil {
		return nil, err
	}
	cropped, err := s.runner.CropWith(sess, policy, a.Scale)
	if err != nil {
		return nil, err
	}

	encoded, err := imaging.EncodePNGBase64(cropped)
	if err != nil {
		return nil, fmt.Errorf("failed to encode cropped image: %w", err)
	}
	result := &plateCropResult{
		Plate:       *sess.Selected,
		Width:       cropped.Bounds().Dx(),
		Height:      cropped.Bounds().Dy(),
		ImageBase64: encoded,
		MimeType:    "image/png",
	}

	if a.OutputPath != "" {
		out, err := s.runner.SaveCrop(sess, cropped, a.OutputPath)
		if err != nil {
			return nil, err
		}
		s.cache.Evict(out)
		result.Output = out
	}
	return result, nil
}

// === Tuning ===

type imageEdgeDetectArgs struct {
	Path string `json:"path"`
	detectionOverrides
}

func (s *Server) handleImageEdgeDetect(args json.RawMessage) (interface{}, error) {
	var a imageEdgeDetectArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if err := requirePath(a.Path); err != nil {
		return nil, err
	}

	p := a.apply(s.cfg.Params())
	if err := p.Validate(); err != nil {
		return nil, err
	}
	img, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	return imaging.EdgeDetect(img, p.BlurKernel, p.CannyLow, p.CannyHigh)
}
