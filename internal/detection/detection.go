package detection

import (
	"context"
	"image"
)

// Detection is one recognized object instance.
//
// Box is (x1, y1, x2, y2) in pixel coordinates with x1 <= x2 and y1 <= y2.
type Detection struct {
	Box        [4]float64 `json:"box"`
	Label      string     `json:"label"`
	Confidence float64    `json:"confidence"`
}

// Result holds the detections for one image together with the same data laid
// out as parallel slices. Boxes, Labels and Confidences always have the same
// length as Detections, and none of the slices is ever nil.
type Result struct {
	Detections  []Detection
	Boxes       [][4]float64
	Labels      []string
	Confidences []float64
}

// EmptyResult returns a Result with zero detections.
func EmptyResult() Result {
	return Result{
		Detections:  []Detection{},
		Boxes:       [][4]float64{},
		Labels:      []string{},
		Confidences: []float64{},
	}
}

// Len returns the number of detections.
func (r Result) Len() int { return len(r.Detections) }

func (r *Result) add(d Detection) {
	r.Detections = append(r.Detections, d)
	r.Boxes = append(r.Boxes, d.Box)
	r.Labels = append(r.Labels, d.Label)
	r.Confidences = append(r.Confidences, d.Confidence)
}

// Status tags what an engine call produced.
type Status int

const (
	// StatusEmpty means the engine ran and found nothing.
	StatusEmpty Status = iota
	// StatusOK means Detections holds at least one entry.
	StatusOK
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

// RawDetection is a single engine prediction before label resolution.
type RawDetection struct {
	Box        [4]float64
	Class      int
	Confidence float64
}

// RawOutput is the container an Engine returns. A nil *RawOutput is treated
// the same as StatusEmpty.
type RawOutput struct {
	Status     Status
	Detections []RawDetection
}

// NewRawOutput wraps predictions, tagging the container as empty when there
// are none.
func NewRawOutput(dets []RawDetection) *RawOutput {
	if len(dets) == 0 {
		return &RawOutput{Status: StatusEmpty}
	}
	return &RawOutput{Status: StatusOK, Detections: dets}
}

// Engine is an object detector.
//
// Implementations are built once at startup and must be safe for concurrent
// use; Predict must not modify img.
type Engine interface {
	// Name identifies the engine in logs and metrics.
	Name() string

	// Names returns the class index to name mapping for Predict's classes.
	Names() LabelMap

	// Predict runs the detector once.
	Predict(ctx context.Context, img image.Image) (*RawOutput, error)
}
