package tokens

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/persona-chat/pkg/llm"
)

func TestCounter_Count(t *testing.T) {
	c, err := NewCounter("")
	require.NoError(t, err)
	require.Equal(t, DefaultEncoding, c.Encoding())

	n, err := c.Count("")
	require.NoError(t, err)
	require.Equal(t, 0, n)

	n, err = c.Count("What is relativity?")
	require.NoError(t, err)
	require.Greater(t, n, 0)
}

func TestCounter_CountRequestIsSumOfParts(t *testing.T) {
	c, err := NewCounter(DefaultEncoding)
	require.NoError(t, err)

	req := llm.Request{
		PersonaInstruction: "You are Einstein.",
		History: []llm.Message{
			{Kind: llm.KindHuman, Content: "What is relativity?"},
			{Kind: llm.KindAI, Content: "Ah, my theory!"},
		},
		NewInput: "Tell me more",
	}
	total, err := c.CountRequest(req)
	require.NoError(t, err)

	sum := 0
	for _, s := range []string{"You are Einstein.", "What is relativity?", "Ah, my theory!", "Tell me more"} {
		n, err := c.Count(s)
		require.NoError(t, err)
		sum += n
	}
	require.Equal(t, sum, total)
}

func TestNewCounter_UnknownEncoding(t *testing.T) {
	_, err := NewCounter("not-an-encoding")
	require.Error(t, err)
}
