package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type ConfigTestSuite struct {
	suite.Suite
	tempDir string
}

func TestConfigSuite(t *testing.T) {
	suite.Run(t, new(ConfigTestSuite))
}

func (s *ConfigTestSuite) SetupTest() {
	s.tempDir = s.T().TempDir()
	// keep the developer's real credentials and config out of the tests
	s.T().Setenv("HOME", s.tempDir)
	s.T().Setenv("GEMINI_API_KEY", "")
	s.T().Setenv("OPENAI_API_KEY", "")
}

func (s *ConfigTestSuite) load(args ...string) (*Settings, error) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(flags)
	// never pick up a .env from the package directory
	all := append([]string{"--env-file", filepath.Join(s.tempDir, ".env")}, args...)
	require.NoError(s.T(), flags.Parse(all))
	v, err := NewViper(flags)
	require.NoError(s.T(), err)
	return Load(v)
}

func (s *ConfigTestSuite) TestDefaults() {
	s.T().Setenv("GEMINI_API_KEY", "test_api_key_12345")

	cfg, err := s.load()
	require.NoError(s.T(), err)
	s.Equal(ProviderGemini, cfg.Provider)
	s.Equal("gemini-2.5-flash", cfg.ModelName)
	s.InDelta(0.5, cfg.Temperature, 1e-9)
	s.Equal("test_api_key_12345", cfg.APIKey)
	s.Equal(60*time.Second, cfg.Timeout)
	s.Equal(":8080", cfg.Addr)
	s.Equal("einstein", cfg.Persona)
}

func (s *ConfigTestSuite) TestMissingAPIKeyIsConfigurationError() {
	_, err := s.load()
	require.Error(s.T(), err)
	s.True(IsConfigurationError(err))
	s.Contains(err.Error(), "GEMINI_API_KEY")
}

func (s *ConfigTestSuite) TestAPIKeyFromDotenv() {
	envFile := filepath.Join(s.tempDir, ".env")
	require.NoError(s.T(), os.WriteFile(envFile, []byte("GEMINI_API_KEY=from_dotenv\n"), 0o600))

	cfg, err := s.load()
	require.NoError(s.T(), err)
	s.Equal("from_dotenv", cfg.APIKey)
}

func (s *ConfigTestSuite) TestProcessEnvWinsOverDotenv() {
	envFile := filepath.Join(s.tempDir, ".env")
	require.NoError(s.T(), os.WriteFile(envFile, []byte("GEMINI_API_KEY=from_dotenv\n"), 0o600))
	s.T().Setenv("GEMINI_API_KEY", "from_env")

	cfg, err := s.load()
	require.NoError(s.T(), err)
	s.Equal("from_env", cfg.APIKey)
}

func (s *ConfigTestSuite) TestFlagsOverride() {
	cfg, err := s.load(
		"--provider", "openai",
		"--api-key", "sk-test",
		"--model-name", "gpt-4.1-mini",
		"--temperature", "0.9",
		"--timeout", "5s",
	)
	require.NoError(s.T(), err)
	s.Equal(ProviderOpenAI, cfg.Provider)
	s.Equal("sk-test", cfg.APIKey)
	s.Equal("gpt-4.1-mini", cfg.ModelName)
	s.InDelta(0.9, cfg.Temperature, 1e-9)
	s.Equal(5*time.Second, cfg.Timeout)
}

func (s *ConfigTestSuite) TestEnvPrefix() {
	s.T().Setenv("PERSONA_CHAT_PROVIDER", "echo")
	s.T().Setenv("PERSONA_CHAT_MODEL_NAME", "parrot")

	cfg, err := s.load()
	require.NoError(s.T(), err)
	s.Equal(ProviderEcho, cfg.Provider)
	s.Equal("parrot", cfg.ModelName)
	s.Empty(cfg.APIKey)
}

func (s *ConfigTestSuite) TestConfigFile() {
	path := filepath.Join(s.tempDir, "persona-chat.yaml")
	require.NoError(s.T(), os.WriteFile(path, []byte(`
provider: openai
base-url: http://localhost:11434/v1
model-name: llama3.2
temperature: 0.2
`), 0o600))

	cfg, err := s.load("--config", path)
	require.NoError(s.T(), err)
	s.Equal(ProviderOpenAI, cfg.Provider)
	s.Equal("http://localhost:11434/v1", cfg.BaseURL)
	s.Equal("llama3.2", cfg.ModelName)
	s.InDelta(0.2, cfg.Temperature, 1e-9)
	s.False(cfg.RequiresCredential())
}

func (s *ConfigTestSuite) TestMissingExplicitConfigFile() {
	_, err := s.load("--config", filepath.Join(s.tempDir, "missing.yaml"), "--provider", "echo")
	require.Error(s.T(), err)
	s.True(IsConfigurationError(err))
}

func (s *ConfigTestSuite) TestTemperatureOutOfRange() {
	_, err := s.load("--provider", "echo", "--temperature", "1.5")
	require.Error(s.T(), err)
	s.Contains(err.Error(), "temperature")
}

func (s *ConfigTestSuite) TestUnknownProvider() {
	_, err := s.load("--provider", "palm")
	require.Error(s.T(), err)
	s.True(IsConfigurationError(err))
	s.Contains(err.Error(), `"palm"`)
}

func (s *ConfigTestSuite) TestResolvePersona() {
	cfg, err := s.load("--provider", "echo")
	require.NoError(s.T(), err)

	p, err := cfg.ResolvePersona()
	require.NoError(s.T(), err)
	s.Contains(p.Instruction, "You are Einstein.")

	cfg.PersonaInstruction = "You are a pirate."
	p, err = cfg.ResolvePersona()
	require.NoError(s.T(), err)
	s.Equal("You are a pirate.", p.Instruction)
	s.Equal("Chat with Mean Einstein", p.Title)
}

func (s *ConfigTestSuite) TestResolvePersonaMissingFile() {
	cfg, err := s.load("--provider", "echo", "--persona-file", filepath.Join(s.tempDir, "nope.yaml"))
	require.NoError(s.T(), err)

	_, err = cfg.ResolvePersona()
	require.Error(s.T(), err)
	s.True(IsConfigurationError(err))
}

func TestReadDotenv_MissingFileIsEmpty(t *testing.T) {
	m, err := ReadDotenv(filepath.Join(t.TempDir(), ".env"))
	require.NoError(t, err)
	require.Empty(t, m)
}

func (s *ConfigTestSuite) TestDecodeSkipsCredentialCheck() {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddFlags(flags)
	require.NoError(s.T(), flags.Parse([]string{"--env-file", filepath.Join(s.tempDir, ".env")}))
	v, err := NewViper(flags)
	require.NoError(s.T(), err)

	cfg, err := Decode(v)
	require.NoError(s.T(), err)
	s.Equal(ProviderGemini, cfg.Provider)
	s.Empty(cfg.APIKey)
	s.Equal("cl100k_base", cfg.TokenEncoding)
}
