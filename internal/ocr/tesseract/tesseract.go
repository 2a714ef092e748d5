// Package tesseract is an ocr.Engine backed by the Tesseract library through
// gosseract.
package tesseract

import (
	"context"
	"fmt"
	"image"

	"github.com/otiai10/gosseract/v2"

	"github.com/ironsheep/image-insight/internal/imaging"
)

// Config configures an Engine.
type Config struct {
	// Languages are Tesseract language codes, e.g. "eng" or "deu". The
	// language data must be installed. Default ["eng"].
	Languages []string

	// TessdataPrefix overrides the directory Tesseract loads language data from.
	TessdataPrefix string

	// PageSegMode selects Tesseract's page segmentation. Zero leaves
	// Tesseract's default (fully automatic).
	PageSegMode gosseract.PageSegMode
}

// Engine runs Tesseract OCR.
//
// A gosseract client is not safe for concurrent use, so every call creates
// and closes its own client. The Engine itself holds only configuration.
type Engine struct {
	cfg Config
}

// New creates an Engine.
func New(cfg Config) *Engine {
	if len(cfg.Languages) == 0 {
		cfg.Languages = []string{"eng"}
	}
	return &Engine{cfg: cfg}
}

// Name implements ocr.Engine.
func (e *Engine) Name() string { return "tesseract" }

// Languages returns the configured language codes.
func (e *Engine) Languages() []string {
	return append([]string(nil), e.cfg.Languages...)
}

// Text implements ocr.Engine.
//
// The image is encoded as PNG and handed to Tesseract in memory; no temporary
// files are written. Tesseract itself cannot be interrupted, so ctx is only
// checked before the call starts.
func (e *Engine) Text(ctx context.Context, img image.Image) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := imaging.EncodePNG(img)
	if err != nil {
		return "", err
	}

	client, err := e.newClient()
	if err != nil {
		return "", err
	}
	defer client.Close()

	if err := client.SetImageFromBytes(data); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}

// Word is one recognized word with its location.
type Word struct {
	Text string

	// Confidence is Tesseract's confidence score (0.0 to 1.0).
	Confidence float64

	// Box is the word's bounding box in image coordinates.
	Box image.Rectangle
}

// Words runs OCR at word level and returns each non-empty word with its
// bounding box and confidence.
func (e *Engine) Words(ctx context.Context, img image.Image) ([]Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := imaging.EncodePNG(img)
	if err != nil {
		return nil, err
	}

	client, err := e.newClient()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	if err := client.SetImageFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("failed to get word boxes: %w", err)
	}

	origin := img.Bounds().Min
	words := make([]Word, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		words = append(words, Word{
			Text:       box.Word,
			Confidence: box.Confidence / 100.0,
			Box:        box.Box.Add(origin),
		})
	}
	return words, nil
}

func (e *Engine) newClient() (*gosseract.Client, error) {
	client := gosseract.NewClient()

	if err := client.SetLanguage(e.cfg.Languages...); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set language: %w", err)
	}
	if e.cfg.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(e.cfg.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}
	if e.cfg.PageSegMode != 0 {
		if err := client.SetPageSegMode(e.cfg.PageSegMode); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
		}
	}
	return client, nil
}
