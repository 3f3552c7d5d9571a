// Package llm describes the boundary to a hosted chat-completion service.
//
// The core only ever sees an Invoker: it hands over a Request made of the persona
// instruction, the role-tagged history and the new input, and gets back the reply text.
// Concrete backends live in sub-packages (gemini, openai, echo).
package llm

import (
	"context"
)

// Kind tags a history message with the side of the conversation it came from.
type Kind string

const (
	KindHuman Kind = "human"
	KindAI    Kind = "ai"
)

// Message is one role-tagged entry of the model-call history.
type Message struct {
	Kind    Kind   `json:"kind"`
	Content string `json:"content"`
}

// Request is the ephemeral value passed to an Invoker for a single exchange.
type Request struct {
	PersonaInstruction string    `json:"persona_instruction"`
	History            []Message `json:"history"`
	NewInput           string    `json:"new_input"`
}

// Invoker performs one blocking model call.
type Invoker interface {
	Invoke(ctx context.Context, req Request) (string, error)
}

// InvokerFunc adapts a plain function to the Invoker interface.
type InvokerFunc func(ctx context.Context, req Request) (string, error)

func (f InvokerFunc) Invoke(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
