package followup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/apex/log"

	"github.com/ironsheep/image-insight/internal/llm"
)

// Defaults for Generator fields left at their zero value.
const (
	DefaultTimeout     = 20 * time.Second
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 300
)

// Generator asks a completion service for follow-up pairs.
type Generator struct {
	Completer   llm.Completer
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

// NewGenerator returns a Generator with the default limits.
func NewGenerator(c llm.Completer) *Generator {
	return &Generator{
		Completer:   c,
		Timeout:     DefaultTimeout,
		Temperature: DefaultTemperature,
		MaxTokens:   DefaultMaxTokens,
	}
}

// Request returns the completion request Generate would send.
func (g *Generator) Request(objectNames []string, ocrText string) llm.Request {
	maxTokens := g.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	return llm.Request{
		System:      SystemMessage,
		User:        BuildPrompt(objectNames, ocrText),
		Temperature: g.Temperature,
		MaxTokens:   maxTokens,
	}
}

// Generate returns the parsed follow-up pairs. The completion is attempted
// once under the generator's timeout. On failure the returned slice is empty,
// never nil, and the error says why.
func (g *Generator) Generate(ctx context.Context, objectNames []string, ocrText string) (pairs []Pair, err error) {
	pairs = []Pair{}
	if g == nil || g.Completer == nil {
		return pairs, errors.New("no completion service configured")
	}

	defer func() {
		if r := recover(); r != nil {
			pairs, err = []Pair{}, fmt.Errorf("completion service %s panicked: %v", g.Completer.Name(), r)
		}
	}()

	timeout := g.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	reply, err := g.Completer.Complete(ctx, g.Request(objectNames, ocrText))
	if err != nil {
		return pairs, fmt.Errorf("completion service %s: %w", g.Completer.Name(), err)
	}

	pairs = Parse(reply)
	log.FromContext(ctx).WithFields(log.Fields{
		"provider": g.Completer.Name(),
		"pairs":    len(pairs),
		"duration": time.Since(start).Round(time.Millisecond).String(),
	}).Debug("follow-ups generated")
	return pairs, nil
}
