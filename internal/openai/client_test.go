package openai

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteRejectsEmptyPrompt(t *testing.T) {
	t.Parallel()

	client := NewClient("sk-test")

	_, err := client.Complete(context.Background(), "system", "")
	require.ErrorIs(t, err, ErrEmptyPrompt)

	_, err = client.Complete(context.Background(), "system", "   \n\t ")
	require.ErrorIs(t, err, ErrEmptyPrompt)
}

func TestClientOptions(t *testing.T) {
	t.Parallel()

	client := NewClient("sk-test", WithModel("gpt-4o"), WithRateLimit(10))
	assert.Equal(t, "gpt-4o", string(client.model))
	assert.InDelta(t, 10, float64(client.limiter.Limit()), 0.001)

	// Empty or non-positive overrides keep the defaults.
	client = NewClient("sk-test", WithModel(""), WithRateLimit(0))
	assert.Equal(t, defaultModel, client.model)
	assert.InDelta(t, 2, float64(client.limiter.Limit()), 0.001)
}
