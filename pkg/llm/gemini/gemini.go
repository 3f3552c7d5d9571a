// Package gemini calls Google's Gemini models through the generative-ai-go client.
package gemini

import (
	"context"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"

	"github.com/go-go-golems/persona-chat/pkg/llm"
)

const (
	Provider = "gemini"

	roleUser  = "user"
	roleModel = "model"
)

type Settings struct {
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// Invoker owns a genai client. Close it when the process shuts down.
type Invoker struct {
	client   *genai.Client
	settings Settings
	logger   zerolog.Logger
}

func New(ctx context.Context, s Settings, opts ...option.ClientOption) (*Invoker, error) {
	if s.APIKey == "" {
		return nil, errors.New("gemini api key is empty")
	}
	if s.Model == "" {
		return nil, errors.New("gemini model name is empty")
	}
	opts = append([]option.ClientOption{option.WithAPIKey(s.APIKey)}, opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "could not create gemini client")
	}
	return &Invoker{
		client:   client,
		settings: s,
		logger:   log.With().Str("component", "llm").Str("provider", Provider).Logger(),
	}, nil
}

func (i *Invoker) Close() error {
	return i.client.Close()
}

// History converts the role-tagged history into genai contents. Gemini names the
// assistant side "model".
func History(msgs []llm.Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(msgs))
	for _, m := range msgs {
		role := roleUser
		if m.Kind == llm.KindAI {
			role = roleModel
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(m.Content)},
		})
	}
	return out
}

// SystemInstruction wraps the persona text, or returns nil when there is none.
func SystemInstruction(persona string) *genai.Content {
	if persona == "" {
		return nil
	}
	return &genai.Content{Parts: []genai.Part{genai.Text(persona)}}
}

// ResponseText concatenates the text parts of the first candidate.
func ResponseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("response contained no candidates")
	}
	c := resp.Candidates[0]
	if c.Content == nil {
		return "", errors.Errorf("candidate has no content (finish reason %s)", c.FinishReason)
	}
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		if t, ok := p.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String(), nil
}

func (i *Invoker) Invoke(ctx context.Context, req llm.Request) (string, error) {
	if i.settings.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.settings.Timeout)
		defer cancel()
	}

	model := i.client.GenerativeModel(i.settings.Model)
	model.SetTemperature(float32(i.settings.Temperature))
	model.SystemInstruction = SystemInstruction(req.PersonaInstruction)

	cs := model.StartChat()
	cs.History = History(req.History)

	resp, err := cs.SendMessage(ctx, genai.Text(req.NewInput))
	if err != nil {
		return "", i.wrap(errors.Wrap(err, "send message failed"))
	}
	text, err := ResponseText(resp)
	if err != nil {
		return "", i.wrap(err)
	}

	ev := i.logger.Debug().Str("model", i.settings.Model)
	if resp.UsageMetadata != nil {
		ev = ev.Int32("prompt_tokens", resp.UsageMetadata.PromptTokenCount).
			Int32("completion_tokens", resp.UsageMetadata.CandidatesTokenCount)
	}
	ev.Msg("gemini call finished")

	return text, nil
}

func (i *Invoker) wrap(err error) error {
	return &llm.UpstreamError{Provider: Provider, Model: i.settings.Model, Err: err}
}
