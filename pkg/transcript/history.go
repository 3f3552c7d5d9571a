package transcript

import (
	"github.com/go-go-golems/persona-chat/pkg/llm"
)

// ToHistory converts a transcript into model-call history. Order is preserved,
// user maps to a human message and assistant to an AI message. Turns with any
// other role are dropped without error.
func ToHistory(t Transcript) []llm.Message {
	out := make([]llm.Message, 0, len(t))
	for _, turn := range t {
		switch turn.Role {
		case RoleUser:
			out = append(out, llm.Message{Kind: llm.KindHuman, Content: turn.Content})
		case RoleAssistant:
			out = append(out, llm.Message{Kind: llm.KindAI, Content: turn.Content})
		}
	}
	return out
}

// Dropped counts the turns ToHistory would skip.
func Dropped(t Transcript) int {
	n := 0
	for _, turn := range t {
		if !turn.Role.IsKnown() {
			n++
		}
	}
	return n
}
