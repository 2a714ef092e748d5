package ocr

import (
	"context"
	"fmt"
	"image"
	"strings"
)

// Engine extracts text from an image.
//
// Implementations must be safe for concurrent use and must not modify img.
type Engine interface {
	// Name identifies the engine in logs and metrics.
	Name() string

	// Text returns all text found in img. No text is "" with a nil error.
	Text(ctx context.Context, img image.Image) (string, error)
}

// Adapter normalizes an Engine's output.
type Adapter struct {
	engine Engine
}

// NewAdapter wraps engine.
func NewAdapter(engine Engine) *Adapter {
	return &Adapter{engine: engine}
}

// Engine returns the wrapped engine's name.
func (a *Adapter) Engine() string { return a.engine.Name() }

// Extract runs the engine once and trims the result.
//
// An empty string with a nil error means the image has no text. When the
// engine fails (or panics) Extract returns "" and the error; callers log it
// and continue with the empty text.
func (a *Adapter) Extract(ctx context.Context, img image.Image) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("ocr engine %s panicked: %v", a.engine.Name(), r)
		}
	}()

	raw, err := a.engine.Text(ctx, img)
	if err != nil {
		return "", fmt.Errorf("ocr engine %s: %w", a.engine.Name(), err)
	}
	return strings.TrimSpace(raw), nil
}
