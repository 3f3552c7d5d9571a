package webchat

import (
	"context"

	"github.com/go-go-golems/persona-chat/pkg/transcript"
)

// ChatService is the exchange surface used by the handlers. *chat.Orchestrator satisfies it.
type ChatService interface {
	Submit(ctx context.Context, input string, history transcript.Transcript) (string, transcript.Transcript, error)
	Reset() (string, transcript.Transcript)
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Input      string                `json:"input"`
	Transcript transcript.Transcript `json:"transcript"`
}

// ChatResponse carries the new widget state: the input field value and the transcript.
type ChatResponse struct {
	Input      string                `json:"input"`
	Transcript transcript.Transcript `json:"transcript"`
}

const (
	ErrorKindUpstream   = "upstream"
	ErrorKindBadRequest = "bad_request"
	ErrorKindInternal   = "internal"
)

// ErrorResponse is returned on failure. Input and Transcript echo what the client sent so the
// page can keep them.
type ErrorResponse struct {
	Error      string                `json:"error"`
	Kind       string                `json:"kind"`
	Input      string                `json:"input"`
	Transcript transcript.Transcript `json:"transcript"`
}

const (
	FrameSubmit     = "submit"
	FrameClear      = "clear"
	FrameTranscript = "transcript"
	FrameError      = "error"
)

// ClientFrame is a websocket message sent by the browser.
type ClientFrame struct {
	Type       string                `json:"type"`
	Input      string                `json:"input"`
	Transcript transcript.Transcript `json:"transcript"`
}

// ServerFrame answers exactly one ClientFrame.
type ServerFrame struct {
	Type       string                `json:"type"`
	Input      string                `json:"input"`
	Transcript transcript.Transcript `json:"transcript"`
	Error      string                `json:"error,omitempty"`
	Kind       string                `json:"kind,omitempty"`
}
