// Package chat produces conversational exchanges: it assembles the model request from the
// persona instruction, the adapted history and the new input, performs exactly one model call
// and returns a new transcript. Transcripts are values; nothing here holds conversation state.
package chat

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/persona-chat/pkg/llm"
	"github.com/go-go-golems/persona-chat/pkg/tokens"
	"github.com/go-go-golems/persona-chat/pkg/transcript"
)

// Config is built once at startup and shared by reference.
type Config struct {
	PersonaInstruction string
}

type Orchestrator struct {
	cfg     *Config
	invoker llm.Invoker
	counter *tokens.Counter
	logger  zerolog.Logger
}

type Option func(*Orchestrator)

func WithLogger(logger zerolog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// WithTokenCounter enables prompt size estimates in the debug log.
func WithTokenCounter(c *tokens.Counter) Option {
	return func(o *Orchestrator) {
		o.counter = c
	}
}

func New(cfg *Config, invoker llm.Invoker, opts ...Option) (*Orchestrator, error) {
	if cfg == nil {
		return nil, errors.New("chat config is nil")
	}
	if invoker == nil {
		return nil, errors.New("model invoker is nil")
	}
	o := &Orchestrator{
		cfg:     cfg,
		invoker: invoker,
		logger:  log.With().Str("component", "chat").Logger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// BuildRequest assembles the model request for one exchange.
func (o *Orchestrator) BuildRequest(input string, history transcript.Transcript) llm.Request {
	return llm.Request{
		PersonaInstruction: o.cfg.PersonaInstruction,
		History:            transcript.ToHistory(history),
		NewInput:           input,
	}
}

// Submit runs one exchange. On success it returns an empty string (the cleared input field)
// and history followed by the user turn and the assistant turn. history is never modified.
//
// On failure nothing is appended: it returns input and history as they were, together with
// an error that always satisfies errors.As(err, **llm.UpstreamError). There are no retries.
func (o *Orchestrator) Submit(ctx context.Context, input string, history transcript.Transcript) (string, transcript.Transcript, error) {
	req := o.BuildRequest(input, history)

	logger := o.logger.With().Str("request_id", uuid.NewString()).Logger()
	ev := logger.Debug().
		Int("history_turns", len(history)).
		Int("history_messages", len(req.History)).
		Int("input_bytes", len(input))
	if dropped := transcript.Dropped(history); dropped > 0 {
		ev = ev.Int("dropped_turns", dropped)
	}
	if o.counter != nil && ev.Enabled() {
		if n, err := o.counter.CountRequest(req); err == nil {
			ev = ev.Int("prompt_tokens_estimate", n)
		}
	}
	ev.Msg("invoking model")

	start := time.Now()
	response, err := o.invoker.Invoke(ctx, req)
	if err != nil {
		err = llm.NewUpstreamError("", "", err)
		logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("model call failed")
		return input, history, err
	}

	logger.Debug().
		Dur("duration", time.Since(start)).
		Int("response_bytes", len(response)).
		Msg("model call finished")

	return "", history.Append(
		transcript.UserTurn(input),
		transcript.AssistantTurn(response),
	), nil
}

// Reset returns a cleared input field and an empty transcript.
func (o *Orchestrator) Reset() (string, transcript.Transcript) {
	return Reset()
}

// Reset is stateless, so it is usable without an orchestrator.
func Reset() (string, transcript.Transcript) {
	return "", transcript.Transcript{}
}
