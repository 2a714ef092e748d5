package server

import (
	"bufio"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ironsheep/image-insight/internal/detection"
	"github.com/ironsheep/image-insight/internal/followup"
	"github.com/ironsheep/image-insight/internal/llm/stub"
	"github.com/ironsheep/image-insight/internal/ocr"
	"github.com/ironsheep/image-insight/internal/ocr/tesseract"
	"github.com/ironsheep/image-insight/internal/pipeline"
)

type fakeDetector struct {
	dets []detection.RawDetection
	err  error
}

func (f fakeDetector) Name() string              { return "fake" }
func (f fakeDetector) Names() detection.LabelMap { return detection.COCOLabels() }
func (f fakeDetector) Predict(context.Context, image.Image) (*detection.RawOutput, error) {
	return detection.NewRawOutput(f.dets), f.err
}

type fakeReader struct {
	text string
	err  error
}

func (f fakeReader) Name() string { return "fake" }
func (f fakeReader) Text(context.Context, image.Image) (string, error) {
	return f.text, f.err
}

type fakeWords struct {
	words []tesseract.Word
	err   error
}

func (f fakeWords) Words(context.Context, image.Image) ([]tesseract.Word, error) {
	return f.words, f.err
}

// newTestServer serves an analyzer that finds one cup and reads "SALE".
func newTestServer(opts ...Option) *Server {
	a := pipeline.New(pipeline.Config{
		Detector: detection.NewAdapter(fakeDetector{dets: []detection.RawDetection{
			{Box: [4]float64{4, 4, 40, 30}, Class: 41, Confidence: 0.88},
		}}, detection.LabelMap{}),
		Reader:        ocr.NewAdapter(fakeReader{text: "SALE\n"}),
		Followups:     followup.NewGenerator(stub.NewClient()),
		FeatureParity: true,
	})
	return New(a, opts...)
}

// createTestImageFile writes a solid PNG into the test's temp dir and returns its path
func createTestImageFile(t *testing.T, width, height int, c color.Color) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, c)
		}
	}

	path := filepath.Join(t.TempDir(), "test.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create file: %v", err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode image: %v", err)
	}
	return path
}

func TestNew(t *testing.T) {
	s := newTestServer()
	if s.cache == nil {
		t.Fatal("New() did not initialize cache")
	}
	if s.version != "dev" {
		t.Errorf("version: got %q, want dev", s.version)
	}
	if s.words != nil {
		t.Error("word finder should be nil by default")
	}

	s = newTestServer(WithVersion("1.2.3"), WithWordFinder(fakeWords{}))
	if s.version != "1.2.3" {
		t.Errorf("version: got %q, want 1.2.3", s.version)
	}
	if s.words == nil {
		t.Error("WithWordFinder did not set the word finder")
	}
}

func TestMCPRequest_Unmarshal(t *testing.T) {
	tests := []struct {
		name       string
		json       string
		wantID     interface{}
		wantMethod string
	}{
		{
			"string id",
			`{"jsonrpc":"2.0","id":"test-1","method":"tools/list"}`,
			"test-1",
			"tools/list",
		},
		{
			"number id",
			`{"jsonrpc":"2.0","id":42,"method":"ping"}`,
			float64(42), // JSON numbers decode as float64
			"ping",
		},
		{
			"null id",
			`{"jsonrpc":"2.0","id":null,"method":"initialize"}`,
			nil,
			"initialize",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req MCPRequest
			if err := json.Unmarshal([]byte(tt.json), &req); err != nil {
				t.Fatalf("Failed to unmarshal: %v", err)
			}
			if req.ID != tt.wantID {
				t.Errorf("ID: got %v (%T), want %v (%T)", req.ID, req.ID, tt.wantID, tt.wantID)
			}
			if req.Method != tt.wantMethod {
				t.Errorf("Method: got %s, want %s", req.Method, tt.wantMethod)
			}
		})
	}
}

func TestHandleRequest_Initialize(t *testing.T) {
	s := newTestServer(WithVersion("0.9.0"))
	resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 1, Method: "initialize"})
	if resp == nil {
		t.Fatal("initialize returned nil")
	}
	if resp.Error != nil {
		t.Fatalf("unexpected error: %+v", resp.Error)
	}

	result := resp.Result.(map[string]interface{})
	if result["protocolVersion"] != "2024-11-05" {
		t.Errorf("protocolVersion: got %v", result["protocolVersion"])
	}
	info := result["serverInfo"].(map[string]interface{})
	if info["name"] != "image-insight" || info["version"] != "0.9.0" {
		t.Errorf("serverInfo: got %v", info)
	}
}

func TestHandleRequest_Methods(t *testing.T) {
	s := newTestServer()

	tests := []struct {
		method    string
		wantNil   bool
		wantError int
	}{
		{method: "notifications/initialized", wantNil: true},
		{method: "ping"},
		{method: "tools/list"},
		{method: "resources/list", wantError: -32601},
		{method: "", wantError: -32601},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			resp := s.handleRequest(context.Background(), &MCPRequest{JSONRPC: "2.0", ID: 7, Method: tt.method})
			if tt.wantNil {
				if resp != nil {
					t.Errorf("expected no response, got %+v", resp)
				}
				return
			}
			if resp == nil {
				t.Fatal("handleRequest returned nil")
			}
			if resp.ID != 7 {
				t.Errorf("ID: got %v, want 7", resp.ID)
			}
			if tt.wantError == 0 {
				if resp.Error != nil {
					t.Errorf("unexpected error: %+v", resp.Error)
				}
				return
			}
			if resp.Error == nil || resp.Error.Code != tt.wantError {
				t.Errorf("error: got %+v, want code %d", resp.Error, tt.wantError)
			}
		})
	}
}

func TestServe_Session(t *testing.T) {
	s := newTestServer()
	imgPath := createTestImageFile(t, 48, 36, color.RGBA{200, 30, 30, 255})

	callArgs, _ := json.Marshal(map[string]interface{}{
		"name":      "image_analyze",
		"arguments": map[string]interface{}{"path": imgPath},
	})
	input := strings.Join([]string{
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		``,
		`this is not json`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":` + string(callArgs) + `}`,
		`{"jsonrpc":"2.0","id":3,"method":"ping"}`,
	}, "\n")

	var out strings.Builder
	if err := s.Serve(context.Background(), strings.NewReader(input), &out); err != nil {
		t.Fatalf("Serve: %v", err)
	}

	var responses []MCPResponse
	scanner := bufio.NewScanner(strings.NewReader(out.String()))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var resp MCPResponse
		if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
			t.Fatalf("bad response line %q: %v", scanner.Text(), err)
		}
		responses = append(responses, resp)
	}

	// initialize, tools/call, ping; the notification and the bad line get nothing
	if len(responses) != 3 {
		t.Fatalf("got %d responses, want 3:\n%s", len(responses), out.String())
	}
	for i, want := range []float64{1, 2, 3} {
		if responses[i].ID != want {
			t.Errorf("response %d: ID got %v, want %v", i, responses[i].ID, want)
		}
		if responses[i].Error != nil {
			t.Errorf("response %d: unexpected error %+v", i, responses[i].Error)
		}
	}

	resp := toolResponse(t, responses[1].Result)
	if len(resp.DetectedObjects) != 1 || resp.DetectedObjects[0] != "cup" {
		t.Errorf("detected_objects: got %v", resp.DetectedObjects)
	}
	if resp.OCRText != "SALE" {
		t.Errorf("ocr_text: got %q", resp.OCRText)
	}
	if len(resp.Followups) != 3 {
		t.Errorf("followups: got %d, want 3", len(resp.Followups))
	}
}

func TestServe_CancelledContext(t *testing.T) {
	s := newTestServer()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var out strings.Builder
	err := s.Serve(ctx, strings.NewReader(`{"jsonrpc":"2.0","id":1,"method":"ping"}`+"\n"), &out)
	if err != context.Canceled {
		t.Errorf("Serve: got %v, want context.Canceled", err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no output, got %q", out.String())
	}
}

// toolResponse decodes the JSON text content of a tools/call result. It
// accepts both the in-process map and a result that went through JSON.
func toolResponse(t *testing.T, result interface{}) pipeline.Response {
	t.Helper()
	var resp pipeline.Response
	decodeToolResult(t, result, &resp)
	return resp
}

func decodeToolResult(t *testing.T, result interface{}, v interface{}) {
	t.Helper()
	raw, err := json.Marshal(result)
	if err != nil {
		t.Fatalf("marshal result: %v", err)
	}
	var wrapped struct {
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if len(wrapped.Content) != 1 || wrapped.Content[0].Type != "text" {
		t.Fatalf("unexpected content: %s", raw)
	}
	if err := json.Unmarshal([]byte(wrapped.Content[0].Text), v); err != nil {
		t.Fatalf("unmarshal tool text: %v\n%s", err, wrapped.Content[0].Text)
	}
}
