package pipeline

import (
	"fmt"
	"strings"
)

// Mode selects which parts of the analysis a caller asked for.
type Mode string

const (
	ModeDetect  Mode = "detect"
	ModeOCR     Mode = "ocr"
	ModeAnalyze Mode = "analyze"
)

// ParseMode accepts a mode name in any case. "caption" is the legacy name of
// ModeDetect and "both" of ModeAnalyze.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "detect", "caption":
		return ModeDetect, nil
	case "ocr":
		return ModeOCR, nil
	case "analyze", "both", "":
		return ModeAnalyze, nil
	default:
		return "", fmt.Errorf("unknown mode %q", s)
	}
}

// Stages lists which stages run for one request.
type Stages struct {
	Detect    bool
	OCR       bool
	Followups bool
}

// Requested returns the stages a mode asks for. With parity every mode runs
// all three stages and the response carries every group.
func (m Mode) Requested(parity bool) Stages {
	if parity {
		return Stages{Detect: true, OCR: true, Followups: true}
	}
	switch m {
	case ModeDetect:
		return Stages{Detect: true}
	case ModeOCR:
		return Stages{OCR: true}
	default:
		return Stages{Detect: true, OCR: true, Followups: true}
	}
}

// primary reports which stages a mode is judged by when deciding whether the
// request as a whole produced nothing.
func (m Mode) primary() Stages {
	switch m {
	case ModeDetect:
		return Stages{Detect: true}
	case ModeOCR:
		return Stages{OCR: true}
	default:
		return Stages{Detect: true, OCR: true}
	}
}
