// Package openai talks to any OpenAI-compatible chat-completions endpoint.
package openai

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/go-go-golems/persona-chat/pkg/llm"
)

const Provider = "openai"

type Settings struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	// Timeout bounds a single call. Zero means no limit beyond ctx.
	Timeout time.Duration
}

type Invoker struct {
	client   *openai.Client
	settings Settings
	logger   zerolog.Logger
}

func New(s Settings) (*Invoker, error) {
	if s.Model == "" {
		return nil, errors.New("openai model name is empty")
	}
	cfg := openai.DefaultConfig(s.APIKey)
	if s.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(s.BaseURL, "/")
	}
	return &Invoker{
		client:   openai.NewClientWithConfig(cfg),
		settings: s,
		logger:   log.With().Str("component", "llm").Str("provider", Provider).Logger(),
	}, nil
}

// Messages converts a request into the chat-completions message list: the persona as the
// system message, then the history, then the new input as the final user message.
func Messages(req llm.Request) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.History)+2)
	if req.PersonaInstruction != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.PersonaInstruction,
		})
	}
	for _, m := range req.History {
		role := openai.ChatMessageRoleUser
		if m.Kind == llm.KindAI {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}
	return append(msgs, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.NewInput,
	})
}

// Temperature converts the configured temperature for the request. The request field is
// omitempty, so 0 is sent as the smallest positive float32 to keep it on the wire.
func Temperature(t float64) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return float32(t)
}

func (i *Invoker) Invoke(ctx context.Context, req llm.Request) (string, error) {
	if i.settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.settings.Timeout)
		defer cancel()
	}

	resp, err := i.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       i.settings.Model,
		Temperature: Temperature(i.settings.Temperature),
		Messages:    Messages(req),
	})
	if err != nil {
		return "", i.wrap(errors.Wrap(err, "chat completion request failed"))
	}
	if len(resp.Choices) == 0 {
		return "", i.wrap(errors.New("response contained no choices"))
	}

	i.logger.Debug().
		Str("model", resp.Model).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Str("finish_reason", string(resp.Choices[0].FinishReason)).
		Msg("chat completion finished")

	return resp.Choices[0].Message.Content, nil
}

func (i *Invoker) wrap(err error) error {
	return &llm.UpstreamError{Provider: Provider, Model: i.settings.Model, Err: err}
}
