// Package stub is a deterministic, no-network llm.Completer intended for CI
// and local end-to-end runs.
package stub

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync/atomic"

	"github.com/ironsheep/image-insight/internal/llm"
)

// Client returns canned follow-up text derived from the prompt, so the same
// input always produces the same output.
type Client struct {
	// Reply, when set, is returned verbatim instead of the generated text.
	Reply string

	// Err, when set, is returned from every call.
	Err error

	calls atomic.Int64
	last  atomic.Pointer[llm.Request]
}

func NewClient() *Client { return &Client{} }

// Failing returns a client whose every call fails with err.
func Failing(err error) *Client { return &Client{Err: err} }

// Replying returns a client that always answers with reply.
func Replying(reply string) *Client { return &Client{Reply: reply} }

func (c *Client) Name() string { return "stub" }

// Complete implements llm.Completer.
func (c *Client) Complete(ctx context.Context, req llm.Request) (string, error) {
	c.calls.Add(1)
	c.last.Store(&req)

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if c.Err != nil {
		return "", c.Err
	}
	if c.Reply != "" {
		return c.Reply, nil
	}

	sum := sha256.Sum256([]byte(req.System + "\x00" + req.User))
	short := hex.EncodeToString(sum[:4])

	return fmt.Sprintf(
		"- Question: What is the main subject of the image?\n"+
			"  Answer: Stubbed answer %s-1.\n"+
			"- Question: Is there any readable text?\n"+
			"  Answer: Stubbed answer %s-2.\n"+
			"- Question: What could this image be used for?\n"+
			"  Answer: Stubbed answer %s-3.\n",
		short, short, short), nil
}

// Calls returns how many times Complete was called.
func (c *Client) Calls() int { return int(c.calls.Load()) }

// LastRequest returns the most recent request, or nil if there was none.
func (c *Client) LastRequest() *llm.Request { return c.last.Load() }
