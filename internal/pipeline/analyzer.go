package pipeline

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/apex/log"

	"github.com/ironsheep/image-insight/internal/detection"
	"github.com/ironsheep/image-insight/internal/followup"
	"github.com/ironsheep/image-insight/internal/metrics"
	"github.com/ironsheep/image-insight/internal/ocr"
)

// Stage names used in logs and metrics.
const (
	StageDetect    = "detect"
	StageOCR       = "ocr"
	StageFollowups = "followups"
)

var errStageDisabled = errors.New("stage not configured")

// Config wires the stages of an Analyzer. A nil stage is treated as failing
// on every request.
type Config struct {
	Detector  *detection.Adapter
	Reader    *ocr.Adapter
	Followups *followup.Generator

	// FeatureParity runs every stage for every mode.
	FeatureParity bool
}

// Analyzer runs the pipeline for one image at a time. It holds no
// per-request state and may be shared by concurrent requests.
type Analyzer struct {
	cfg Config
}

func New(cfg Config) *Analyzer {
	return &Analyzer{cfg: cfg}
}

// Engines names the backend behind each stage; unconfigured stages are
// reported as "none".
func (a *Analyzer) Engines() map[string]string {
	out := map[string]string{StageDetect: "none", StageOCR: "none", StageFollowups: "none"}
	if a.cfg.Detector != nil {
		out[StageDetect] = a.cfg.Detector.Engine()
	}
	if a.cfg.Reader != nil {
		out[StageOCR] = a.cfg.Reader.Engine()
	}
	if a.cfg.Followups != nil && a.cfg.Followups.Completer != nil {
		out[StageFollowups] = a.cfg.Followups.Completer.Name()
	}
	return out
}

// FeatureParity reports whether every mode runs all stages.
func (a *Analyzer) FeatureParity() bool { return a.cfg.FeatureParity }

// Analysis is a finished request: the wire response plus the stage outcomes
// it was built from.
type Analysis struct {
	Response  Response
	Detection Outcome[detection.Result]
	Text      Outcome[string]
	Followups Outcome[[]followup.Pair]
}

// Analyze runs the stages mode calls for on img.
//
// Detection and OCR run concurrently; follow-ups start once both are done.
// Stage failures are logged and replaced by zero values, so Analyze itself
// never fails.
func (a *Analyzer) Analyze(ctx context.Context, mode Mode, img image.Image) *Analysis {
	metrics.InFlight.Inc()
	defer metrics.InFlight.Dec()

	stages := mode.Requested(a.cfg.FeatureParity)
	logger := log.FromContext(ctx).WithField("mode", string(mode))
	ctx = log.NewContext(ctx, logger)

	det := Skipped(detection.EmptyResult())
	text := Skipped("")

	var wg sync.WaitGroup
	if stages.Detect {
		wg.Add(1)
		go func() {
			defer wg.Done()
			det = a.detect(ctx, img)
		}()
	} else {
		metrics.ObserveStage(StageDetect, metrics.ResultDisabled, time.Now())
	}
	if stages.OCR {
		wg.Add(1)
		go func() {
			defer wg.Done()
			text = a.extract(ctx, img)
		}()
	} else {
		metrics.ObserveStage(StageOCR, metrics.ResultDisabled, time.Now())
	}
	wg.Wait()

	fu := Skipped([]followup.Pair{})
	if stages.Followups {
		fu = a.followups(ctx, det.Value.Labels, text.Value)
	} else {
		metrics.ObserveStage(StageFollowups, metrics.ResultDisabled, time.Now())
	}

	resp := Assemble(mode, det, text, fu)
	logger.WithFields(log.Fields{
		"detections": len(resp.DetectedObjects),
		"ocr_chars":  len(resp.OCRText),
		"followups":  len(resp.Followups),
	}).Info("analysis complete")

	return &Analysis{
		Response:  resp,
		Detection: det,
		Text:      text,
		Followups: fu,
	}
}

func (a *Analyzer) detect(ctx context.Context, img image.Image) Outcome[detection.Result] {
	start := time.Now()
	if a.cfg.Detector == nil {
		metrics.ObserveStage(StageDetect, metrics.ResultError, start)
		return Failed(detection.EmptyResult(), errStageDisabled)
	}

	res, err := a.cfg.Detector.Detect(ctx, img)
	if err != nil {
		log.FromContext(ctx).WithError(err).Warn("object detection failed")
		metrics.ObserveStage(StageDetect, metrics.ResultError, start)
		return Failed(detection.EmptyResult(), err)
	}

	result := metrics.ResultOK
	if res.Len() == 0 {
		result = metrics.ResultEmpty
	}
	metrics.ObserveStage(StageDetect, result, start)
	return Succeeded(res)
}

func (a *Analyzer) extract(ctx context.Context, img image.Image) Outcome[string] {
	start := time.Now()
	if a.cfg.Reader == nil {
		metrics.ObserveStage(StageOCR, metrics.ResultError, start)
		return Failed("", errStageDisabled)
	}

	text, err := a.cfg.Reader.Extract(ctx, img)
	if err != nil {
		log.FromContext(ctx).WithError(err).Warn("text extraction failed")
		metrics.ObserveStage(StageOCR, metrics.ResultError, start)
		return Failed("", err)
	}

	result := metrics.ResultOK
	if text == "" {
		result = metrics.ResultEmpty
	}
	metrics.ObserveStage(StageOCR, result, start)
	return Succeeded(text)
}

func (a *Analyzer) followups(ctx context.Context, names []string, text string) Outcome[[]followup.Pair] {
	start := time.Now()

	pairs, err := a.cfg.Followups.Generate(ctx, names, text)
	if err != nil {
		log.FromContext(ctx).WithError(err).Warn("follow-up generation failed")
		metrics.ObserveStage(StageFollowups, metrics.ResultError, start)
		return Failed([]followup.Pair{}, err)
	}

	result := metrics.ResultOK
	if len(pairs) == 0 {
		result = metrics.ResultEmpty
	}
	metrics.ObserveStage(StageFollowups, result, start)
	return Succeeded(pairs)
}
