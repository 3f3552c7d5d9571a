package echo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/persona-chat/pkg/llm"
)

func TestEcho(t *testing.T) {
	inv := New()
	out, err := inv.Invoke(context.Background(), llm.Request{NewInput: "E=mc² 🚀"})
	require.NoError(t, err)
	require.Equal(t, "You said: E=mc² 🚀", out)
	require.Equal(t, 1, inv.Calls())
}

func TestEmptyInput(t *testing.T) {
	inv := New(WithPrefix("> "))
	out, err := inv.Invoke(context.Background(), llm.Request{
		History: []llm.Message{{Kind: llm.KindHuman, Content: "hi"}},
	})
	require.NoError(t, err)
	require.Equal(t, "> (nothing) [1 earlier messages]", out)
}

func TestScriptThenEcho(t *testing.T) {
	inv := New(WithScript("Ah, my theory!", "Fine."))

	for _, want := range []string{"Ah, my theory!", "Fine.", "You said: again"} {
		out, err := inv.Invoke(context.Background(), llm.Request{NewInput: "again"})
		require.NoError(t, err)
		require.Equal(t, want, out)
	}
	require.Equal(t, 3, inv.Calls())
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New().Invoke(ctx, llm.Request{NewInput: "x"})
	require.Error(t, err)
	require.True(t, llm.IsUpstream(err))
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, New().Calls())
}
