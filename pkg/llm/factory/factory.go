// Package factory builds the configured model backend.
package factory

import (
	"context"
	"io"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/persona-chat/pkg/config"
	"github.com/go-go-golems/persona-chat/pkg/llm"
	"github.com/go-go-golems/persona-chat/pkg/llm/echo"
	"github.com/go-go-golems/persona-chat/pkg/llm/gemini"
	"github.com/go-go-golems/persona-chat/pkg/llm/openai"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New returns the invoker selected by s.Provider and a closer releasing its resources.
// The closer is never nil when err is nil.
func New(ctx context.Context, s *config.Settings) (llm.Invoker, io.Closer, error) {
	log.Debug().
		Str("component", "llm").
		Str("provider", s.Provider).
		Str("model", s.ModelName).
		Float64("temperature", s.Temperature).
		Msg("creating model backend")

	switch s.Provider {
	case config.ProviderGemini:
		inv, err := gemini.New(ctx, gemini.Settings{
			APIKey:      s.APIKey,
			Model:       s.ModelName,
			Temperature: s.Temperature,
			Timeout:     s.Timeout,
		})
		if err != nil {
			return nil, nil, &config.ConfigurationError{Key: "provider", Reason: "could not initialise gemini", Err: err}
		}
		return inv, inv, nil

	case config.ProviderOpenAI:
		inv, err := openai.New(openai.Settings{
			APIKey:      s.APIKey,
			BaseURL:     s.BaseURL,
			Model:       s.ModelName,
			Temperature: s.Temperature,
			Timeout:     s.Timeout,
		})
		if err != nil {
			return nil, nil, &config.ConfigurationError{Key: "provider", Reason: "could not initialise openai", Err: err}
		}
		return inv, nopCloser{}, nil

	case config.ProviderEcho:
		return echo.New(), nopCloser{}, nil

	default:
		return nil, nil, &config.ConfigurationError{Key: "provider", Reason: "unknown provider " + strconv.Quote(s.Provider)}
	}
}
