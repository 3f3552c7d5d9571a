// Package config loads the static process configuration: which model backend to call,
// its credential and sampling settings, the persona, and the ambient logging/server knobs.
//
// Precedence (highest first): command line flags, PERSONA_CHAT_* environment variables,
// the YAML config file, the dotenv file, defaults.
package config

import (
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/go-go-golems/persona-chat/pkg/persona"
)

const (
	AppName   = "persona-chat"
	EnvPrefix = "PERSONA_CHAT"

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderEcho   = "echo"
)

var defaultModels = map[string]string{
	ProviderGemini: "gemini-2.5-flash",
	ProviderOpenAI: "gpt-4o-mini",
	ProviderEcho:   "echo",
}

var credentialEnv = map[string]string{
	ProviderGemini: "GEMINI_API_KEY",
	ProviderOpenAI: "OPENAI_API_KEY",
}

// Settings stores the whole static configuration of a run.
type Settings struct {
	Provider           string        `mapstructure:"provider"`
	ModelName          string        `mapstructure:"model-name"`
	Temperature        float64       `mapstructure:"temperature"`
	APIKey             string        `mapstructure:"api-key"`
	BaseURL            string        `mapstructure:"base-url"`
	Timeout            time.Duration `mapstructure:"timeout"`
	Persona            string        `mapstructure:"persona"`
	PersonaFile        string        `mapstructure:"persona-file"`
	PersonaInstruction string        `mapstructure:"persona-instruction"`
	TokenEncoding      string        `mapstructure:"token-encoding"`
	Addr               string        `mapstructure:"addr"`
	LogLevel           string        `mapstructure:"log-level"`
	LogFormat          string        `mapstructure:"log-format"`
	EnvFile            string        `mapstructure:"env-file"`
}

// AddFlags registers every setting as a flag. Flags left unset fall through to the
// lower-precedence sources.
func AddFlags(flags *pflag.FlagSet) {
	flags.String("config", "", "Path to a YAML config file (default $HOME/.persona-chat/config.yaml)")
	flags.String("provider", ProviderGemini, "Model backend: gemini, openai or echo")
	flags.String("model-name", "", "Backend model variant (defaults per provider)")
	flags.Float64("temperature", 0.5, "Sampling temperature, 0.0-1.0")
	flags.String("api-key", "", "API credential (falls back to GEMINI_API_KEY / OPENAI_API_KEY)")
	flags.String("base-url", "", "Override the backend endpoint (OpenAI-compatible servers)")
	flags.Duration("timeout", 60*time.Second, "Per-call timeout for the model request, 0 disables")
	flags.String("persona", persona.DefaultName, "Builtin persona name")
	flags.String("persona-file", "", "Load the persona from a YAML file instead of a builtin")
	flags.String("persona-instruction", "", "Override the persona instruction text")
	flags.String("token-encoding", "cl100k_base", "Tokenizer encoding used for prompt size estimates")
	flags.String("addr", ":8080", "HTTP listen address for the web UI")
	flags.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	flags.String("log-format", "console", "Log format (console, json)")
	flags.String("env-file", ".env", "Dotenv file consulted for credentials, ignored when missing")
}

// NewViper builds a viper instance bound to the given flags and to the environment.
func NewViper(flags *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, errors.Wrap(err, "could not bind flags")
		}
	}
	return v, nil
}

// Load reads the config file (explicit path or the per-user default), then unmarshals,
// resolves credentials and validates.
func Load(v *viper.Viper) (*Settings, error) {
	s, err := Decode(v)
	if err != nil {
		return nil, err
	}

	if s.APIKey == "" {
		key, err := lookupCredential(s.Provider, s.EnvFile)
		if err != nil {
			return nil, err
		}
		s.APIKey = key
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Decode reads the config file and unmarshals the settings without resolving credentials
// or validating. Commands that never call a model use it directly.
func Decode(v *viper.Viper) (*Settings, error) {
	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, errors.Wrap(err, "could not decode settings")
	}

	s.Provider = strings.ToLower(strings.TrimSpace(s.Provider))
	if s.ModelName == "" {
		s.ModelName = defaultModels[s.Provider]
	}
	return s, nil
}

func readConfigFile(v *viper.Viper) error {
	explicit := v.GetString("config")
	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(home + "/." + AppName)
	}

	if err := v.ReadInConfig(); err != nil {
		if explicit != "" {
			return &ConfigurationError{Key: "config", Reason: "could not read config file", Err: err}
		}
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return &ConfigurationError{Key: "config", Reason: "could not read config file", Err: err}
	}
	return nil
}

// lookupCredential reads the provider's conventional env var, falling back to the
// dotenv file. A missing dotenv file is not an error.
func lookupCredential(provider, envFile string) (string, error) {
	name, ok := credentialEnv[provider]
	if !ok {
		return "", nil
	}
	if val, ok := os.LookupEnv(name); ok && val != "" {
		return val, nil
	}
	dotenv, err := ReadDotenv(envFile)
	if err != nil {
		return "", err
	}
	return dotenv[name], nil
}

// ReadDotenv parses a KEY=VALUE file. Keys are returned upper-cased.
func ReadDotenv(path string) (map[string]string, error) {
	if path == "" {
		return map[string]string{}, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, &ConfigurationError{Key: "env-file", Reason: "could not stat dotenv file", Err: err}
	}

	dv := viper.New()
	dv.SetConfigFile(path)
	dv.SetConfigType("env")
	if err := dv.ReadInConfig(); err != nil {
		return nil, &ConfigurationError{Key: "env-file", Reason: "could not parse dotenv file", Err: err}
	}

	out := make(map[string]string, len(dv.AllKeys()))
	for _, k := range dv.AllKeys() {
		out[strings.ToUpper(k)] = dv.GetString(k)
	}
	return out, nil
}

func (s *Settings) Validate() error {
	if _, ok := defaultModels[s.Provider]; !ok {
		return &ConfigurationError{Key: "provider", Reason: "unknown provider " + strconv.Quote(s.Provider)}
	}
	if s.Temperature < 0 || s.Temperature > 1 {
		return &ConfigurationError{Key: "temperature", Reason: "must be between 0.0 and 1.0"}
	}
	if s.Timeout < 0 {
		return &ConfigurationError{Key: "timeout", Reason: "must not be negative"}
	}
	if s.RequiresCredential() && s.APIKey == "" {
		return &ConfigurationError{
			Key:    "api-key",
			Reason: "missing credential, set --api-key or " + credentialEnv[s.Provider],
		}
	}
	switch s.LogFormat {
	case "", "console", "json":
	default:
		return &ConfigurationError{Key: "log-format", Reason: "must be console or json"}
	}
	return nil
}

// RequiresCredential reports whether the provider needs an API key. OpenAI-compatible
// servers reached through a custom base URL (local gateways) may run without one.
func (s *Settings) RequiresCredential() bool {
	switch s.Provider {
	case ProviderGemini:
		return true
	case ProviderOpenAI:
		return s.BaseURL == ""
	default:
		return false
	}
}

// ResolvePersona loads the configured persona and applies the instruction override.
func (s *Settings) ResolvePersona() (*persona.Persona, error) {
	var (
		p   *persona.Persona
		err error
	)
	if s.PersonaFile != "" {
		p, err = persona.Load(s.PersonaFile)
		if err != nil {
			return nil, &ConfigurationError{Key: "persona-file", Reason: "could not load persona", Err: err}
		}
	} else {
		name := s.Persona
		if name == "" {
			name = persona.DefaultName
		}
		p, err = persona.Builtin(name)
		if err != nil {
			return nil, &ConfigurationError{Key: "persona", Reason: "could not load persona", Err: err}
		}
	}
	if strings.TrimSpace(s.PersonaInstruction) != "" {
		p.Instruction = s.PersonaInstruction
	}
	return p, nil
}
