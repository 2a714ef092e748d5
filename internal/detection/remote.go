package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/ironsheep/image-insight/internal/imaging"
)

// RemoteEngine runs detection on an external inference service (typically a
// YOLO model behind a small HTTP wrapper).
//
// The image is posted as JPEG in the multipart field "image" and the service
// answers with parallel arrays:
//
//	{"boxes": [[x1, y1, x2, y2], ...], "classes": [0, ...], "scores": [0.92, ...]}
type RemoteEngine struct {
	url     string
	client  *http.Client
	labels  LabelMap
	quality int
}

// RemoteConfig configures a RemoteEngine.
type RemoteConfig struct {
	// URL is the prediction endpoint, e.g. http://localhost:8000/predict.
	URL string

	// Timeout bounds each prediction call. Zero means 30s.
	Timeout time.Duration

	// Labels resolves the service's class indexes. Defaults to the COCO names.
	Labels LabelMap

	// JPEGQuality used for the upload. Zero means 90.
	JPEGQuality int
}

// NewRemoteEngine creates an engine for the service at cfg.URL.
func NewRemoteEngine(cfg RemoteConfig) (*RemoteEngine, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("inference url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.JPEGQuality <= 0 || cfg.JPEGQuality > 100 {
		cfg.JPEGQuality = 90
	}
	labels := cfg.Labels
	if labels.Len() == 0 {
		labels = COCOLabels()
	}
	return &RemoteEngine{
		url:     cfg.URL,
		client:  &http.Client{Timeout: cfg.Timeout},
		labels:  labels,
		quality: cfg.JPEGQuality,
	}, nil
}

// Name implements Engine.
func (e *RemoteEngine) Name() string { return "remote" }

// Names implements Engine.
func (e *RemoteEngine) Names() LabelMap { return e.labels }

type predictResponse struct {
	Boxes   [][]float64 `json:"boxes"`
	Classes []float64   `json:"classes"`
	Scores  []float64   `json:"scores"`
}

// Predict implements Engine.
func (e *RemoteEngine) Predict(ctx context.Context, img image.Image) (*RawOutput, error) {
	data, err := imaging.EncodeJPEG(img, e.quality)
	if err != nil {
		return nil, err
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("image", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.url, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("inference failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var pr predictResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return pr.raw()
}

func (pr predictResponse) raw() (*RawOutput, error) {
	if len(pr.Boxes) != len(pr.Classes) || len(pr.Boxes) != len(pr.Scores) {
		return nil, fmt.Errorf("malformed response: %d boxes, %d classes, %d scores",
			len(pr.Boxes), len(pr.Classes), len(pr.Scores))
	}

	dets := make([]RawDetection, 0, len(pr.Boxes))
	for i, b := range pr.Boxes {
		if len(b) != 4 {
			return nil, fmt.Errorf("malformed response: box %d has %d coordinates", i, len(b))
		}
		dets = append(dets, RawDetection{
			Box:        [4]float64{b[0], b[1], b[2], b[3]},
			Class:      int(pr.Classes[i]),
			Confidence: pr.Scores[i],
		})
	}
	return NewRawOutput(dets), nil
}

// CheckHealth calls the service's /health endpoint next to the prediction URL.
func (e *RemoteEngine) CheckHealth(ctx context.Context) error {
	u, err := url.Parse(e.url)
	if err != nil {
		return err
	}
	u.Path = path.Join(path.Dir(u.Path), "health")
	u.RawQuery = ""

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return err
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("inference service unhealthy: %d", resp.StatusCode)
	}
	return nil
}
