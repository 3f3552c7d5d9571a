package cmds

import (
	"context"
	"io"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/go-go-golems/persona-chat/pkg/chat"
	"github.com/go-go-golems/persona-chat/pkg/config"
	"github.com/go-go-golems/persona-chat/pkg/llm/factory"
	"github.com/go-go-golems/persona-chat/pkg/persona"
	"github.com/go-go-golems/persona-chat/pkg/tokens"
)

type viperKey struct{}

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           config.AppName,
		Short:         "Chat with a persona backed by a hosted language model",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			v, err := config.NewViper(cmd.Flags())
			if err != nil {
				return err
			}
			if err := InitLogger(v.GetString("log-level"), v.GetString("log-format"), cmd.ErrOrStderr()); err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), viperKey{}, v))
			return nil
		},
	}
	config.AddFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		NewServeCommand(),
		NewTUICommand(),
		NewREPLCommand(),
		NewAskCommand(),
		NewTokensCommand(),
		NewPersonaCommand(),
	)
	return rootCmd
}

func viperFrom(cmd *cobra.Command) (*viper.Viper, error) {
	if v, ok := cmd.Context().Value(viperKey{}).(*viper.Viper); ok {
		return v, nil
	}
	return config.NewViper(cmd.Flags())
}

// app is everything a chatting command needs, built once at startup.
type app struct {
	settings     *config.Settings
	persona      *persona.Persona
	orchestrator *chat.Orchestrator
	closer       io.Closer
}

func (a *app) Close() {
	if a.closer == nil {
		return
	}
	if err := a.closer.Close(); err != nil {
		log.Warn().Err(err).Msg("could not close model backend")
	}
}

// newApp loads and validates the configuration, then wires the backend into an
// orchestrator. Configuration problems surface here, before anything is served.
func newApp(cmd *cobra.Command) (*app, error) {
	v, err := viperFrom(cmd)
	if err != nil {
		return nil, err
	}
	s, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	p, err := s.ResolvePersona()
	if err != nil {
		return nil, err
	}

	invoker, closer, err := factory.New(cmd.Context(), s)
	if err != nil {
		return nil, err
	}

	opts := []chat.Option{}
	if counter, err := tokens.NewCounter(s.TokenEncoding); err != nil {
		log.Warn().Err(err).Str("encoding", s.TokenEncoding).Msg("token estimates disabled")
	} else {
		opts = append(opts, chat.WithTokenCounter(counter))
	}

	o, err := chat.New(&chat.Config{PersonaInstruction: p.Instruction}, invoker, opts...)
	if err != nil {
		_ = closer.Close()
		return nil, errors.Wrap(err, "could not create chat orchestrator")
	}

	log.Info().
		Str("provider", s.Provider).
		Str("model", s.ModelName).
		Str("persona", p.DisplayName()).
		Msg("chat ready")

	return &app{settings: s, persona: p, orchestrator: o, closer: closer}, nil
}

// loadSettings decodes the configuration without requiring a credential.
func loadSettings(cmd *cobra.Command) (*config.Settings, error) {
	v, err := viperFrom(cmd)
	if err != nil {
		return nil, err
	}
	return config.Decode(v)
}
