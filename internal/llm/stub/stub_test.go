package stub

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/image-insight/internal/llm"
)

func TestClient_Deterministic(t *testing.T) {
	c := NewClient()
	req := llm.Request{System: "sys", User: "Objects: cup"}

	a, err := c.Complete(context.Background(), req)
	require.NoError(t, err)
	b, err := c.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	other, err := c.Complete(context.Background(), llm.Request{System: "sys", User: "Objects: None"})
	require.NoError(t, err)
	assert.NotEqual(t, a, other)

	assert.Equal(t, 3, strings.Count(a, "Question:"))
	assert.Equal(t, 3, strings.Count(a, "Answer:"))
	assert.Equal(t, 3, c.Calls())
	assert.Equal(t, "Objects: None", c.LastRequest().User)
}

func TestClient_FailingAndReplying(t *testing.T) {
	boom := errors.New("rate limited")
	_, err := Failing(boom).Complete(context.Background(), llm.Request{})
	assert.ErrorIs(t, err, boom)

	out, err := Replying("Question: A?\nAnswer: B").Complete(context.Background(), llm.Request{})
	require.NoError(t, err)
	assert.Equal(t, "Question: A?\nAnswer: B", out)
}

func TestClient_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient().Complete(ctx, llm.Request{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, NewClient().LastRequest())
}

var _ llm.Completer = (*Client)(nil)
