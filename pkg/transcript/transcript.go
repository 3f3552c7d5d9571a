// Package transcript holds the UI-facing conversation representation and its translation
// into model-call history.
package transcript

import (
	"encoding/json"
)

// Role identifies who produced a Turn. Only RoleUser and RoleAssistant are understood;
// any other value is carried as-is and skipped by ToHistory.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) IsKnown() bool {
	return r == RoleUser || r == RoleAssistant
}

// Turn is one message in the visible conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

func UserTurn(content string) Turn {
	return Turn{Role: RoleUser, Content: content}
}

func AssistantTurn(content string) Turn {
	return Turn{Role: RoleAssistant, Content: content}
}

// Transcript is the chronological list of turns. Methods never modify the receiver.
type Transcript []Turn

// Clone returns a copy with its own backing array.
func (t Transcript) Clone() Transcript {
	out := make(Transcript, len(t))
	copy(out, t)
	return out
}

// Append returns a new transcript made of t followed by turns.
func (t Transcript) Append(turns ...Turn) Transcript {
	out := make(Transcript, 0, len(t)+len(turns))
	out = append(out, t...)
	return append(out, turns...)
}

// Last returns the most recent turn with the given role.
func (t Transcript) Last(role Role) (Turn, bool) {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Role == role {
			return t[i], true
		}
	}
	return Turn{}, false
}

// MarshalJSON encodes an empty transcript as [] so the browser never sees null.
func (t Transcript) MarshalJSON() ([]byte, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Turn(t))
}
