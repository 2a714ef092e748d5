package pipeline

import (
	"strings"

	"github.com/ironsheep/image-insight/internal/detection"
	"github.com/ironsheep/image-insight/internal/followup"
)

// Response is the JSON body returned for an analysis.
//
// Every data field is always present; a stage that failed or did not run
// contributes an empty list or empty string.
type Response struct {
	DetectedObjects []string        `json:"detected_objects"`
	Boxes           [][4]float64    `json:"boxes"`
	Labels          []string        `json:"labels"`
	Confidences     []float64       `json:"confidences"`
	OCRText         string          `json:"ocr_text"`
	Followups       []followup.Pair `json:"followups"`

	// Detected is the comma-joined label list of the legacy /caption reply.
	Detected string `json:"detected"`

	AnnotatedImage string `json:"annotated_image,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Error messages for a mode whose primary stages all failed.
const (
	ErrMsgDetection = "object detection unavailable"
	ErrMsgOCR       = "text extraction unavailable"
	ErrMsgAnalysis  = "object detection and text extraction unavailable"
)

// Assemble merges stage outcomes into a Response. It does no I/O.
func Assemble(mode Mode, det Outcome[detection.Result], text Outcome[string], fu Outcome[[]followup.Pair]) Response {
	resp := Response{
		DetectedObjects: []string{},
		Boxes:           [][4]float64{},
		Labels:          []string{},
		Confidences:     []float64{},
		Followups:       []followup.Pair{},
	}

	if det.Ran && det.Value.Len() > 0 {
		r := det.Value
		resp.DetectedObjects = append(resp.DetectedObjects, r.Labels...)
		resp.Labels = append(resp.Labels, r.Labels...)
		resp.Boxes = append(resp.Boxes, r.Boxes...)
		resp.Confidences = append(resp.Confidences, r.Confidences...)
	}
	if text.Ran {
		resp.OCRText = text.Value
	}
	if fu.Ran && len(fu.Value) > 0 {
		resp.Followups = append(resp.Followups, fu.Value...)
	}

	resp.Detected = strings.Join(resp.DetectedObjects, ", ")
	resp.Error = failureMessage(mode, det, text)
	return resp
}

// failureMessage is non-empty only when every primary stage of the mode ran
// and failed.
func failureMessage(mode Mode, det Outcome[detection.Result], text Outcome[string]) string {
	p := mode.primary()
	detFailed := det.Ran && det.Err != nil
	textFailed := text.Ran && text.Err != nil

	switch {
	case p.Detect && p.OCR:
		if detFailed && textFailed {
			return ErrMsgAnalysis
		}
	case p.Detect:
		if detFailed {
			return ErrMsgDetection
		}
	case p.OCR:
		if textFailed {
			return ErrMsgOCR
		}
	}
	return ""
}
