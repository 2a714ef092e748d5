package detection

import (
	"context"
	"fmt"
	"image"
	"math"

	"github.com/apex/log"
)

// Adapter turns an Engine's raw predictions into a Result.
//
// An Adapter holds only immutable state and may be shared by concurrent requests.
type Adapter struct {
	engine Engine
	labels LabelMap
}

// NewAdapter creates an adapter for engine. Entries in labels override the
// engine's own names; pass an empty LabelMap to use the engine's names as is.
func NewAdapter(engine Engine, labels LabelMap) *Adapter {
	return &Adapter{
		engine: engine,
		labels: engine.Names().Merge(labels),
	}
}

// Engine returns the wrapped engine's name.
func (a *Adapter) Engine() string { return a.engine.Name() }

// Labels returns the label map used for resolution.
func (a *Adapter) Labels() LabelMap { return a.labels }

// Detect runs the engine once on img.
//
// Zero detections and an empty or missing container are both a successful
// empty Result. If the engine fails (or panics) Detect returns an empty Result
// together with the error so the caller can log it and carry on. Detections
// whose class index does not resolve are dropped individually and logged to
// the context's logger.
func (a *Adapter) Detect(ctx context.Context, img image.Image) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res = EmptyResult()
			err = fmt.Errorf("detection engine %s panicked: %v", a.engine.Name(), r)
		}
	}()

	out, err := a.engine.Predict(ctx, img)
	if err != nil {
		return EmptyResult(), fmt.Errorf("detection engine %s: %w", a.engine.Name(), err)
	}
	if out == nil || out.Status == StatusEmpty || len(out.Detections) == 0 {
		return EmptyResult(), nil
	}

	logger := log.FromContext(ctx)
	res = EmptyResult()
	for i, raw := range out.Detections {
		label, err := a.labels.Lookup(raw.Class)
		if err != nil {
			logger.WithFields(log.Fields{
				"engine": a.engine.Name(),
				"index":  i,
				"class":  raw.Class,
			}).WithError(err).Warn("dropping detection with unknown class")
			continue
		}

		box, ok := normalizeBox(raw.Box)
		if !ok {
			logger.WithFields(log.Fields{
				"engine": a.engine.Name(),
				"index":  i,
				"label":  label,
			}).Warn("dropping detection with non-finite box")
			continue
		}

		res.add(Detection{
			Box:        box,
			Label:      label,
			Confidence: clamp01(raw.Confidence),
		})
	}

	return res, nil
}

// normalizeBox orders the corners so x1 <= x2 and y1 <= y2.
func normalizeBox(b [4]float64) ([4]float64, bool) {
	for _, v := range b {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return b, false
		}
	}
	x1, y1, x2, y2 := b[0], b[1], b[2], b[3]
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return [4]float64{x1, y1, x2, y2}, true
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
