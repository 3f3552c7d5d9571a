// Package persona loads the character a chat session speaks as: the steering instruction
// sent with every model request plus the texts the front-ends show around the transcript.
package persona

import (
	"bytes"
	"embed"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed personas/*.yaml
var personasFS embed.FS

const DefaultName = "einstein"

type Persona struct {
	Name        string `yaml:"name"`
	Title       string `yaml:"title"`
	Header      string `yaml:"header,omitempty"`
	Greeting    string `yaml:"greeting,omitempty"`
	Placeholder string `yaml:"placeholder,omitempty"`
	Avatar      string `yaml:"avatar,omitempty"`
	Instruction string `yaml:"instruction"`
}

// Parse decodes a persona from YAML. Unknown fields are rejected so typos surface early.
func Parse(data []byte) (*Persona, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	p := &Persona{}
	if err := dec.Decode(p); err != nil {
		return nil, errors.Wrap(err, "could not decode persona")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Load reads a persona file from disk.
func Load(path string) (*Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read persona file %s", path)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid persona file %s", path)
	}
	return p, nil
}

// Builtin returns one of the personas shipped with the binary.
func Builtin(name string) (*Persona, error) {
	data, err := personasFS.ReadFile("personas/" + name + ".yaml")
	if err != nil {
		return nil, errors.Errorf("unknown builtin persona %q", name)
	}
	return Parse(data)
}

// Default returns the builtin Einstein persona.
func Default() *Persona {
	p, err := Builtin(DefaultName)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Persona) Validate() error {
	if p == nil {
		return errors.New("persona is nil")
	}
	if strings.TrimSpace(p.Instruction) == "" {
		return errors.New("persona instruction must not be empty")
	}
	return nil
}

// DisplayName falls back to the title when no name is set.
func (p *Persona) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	if p.Title != "" {
		return p.Title
	}
	return "assistant"
}

func (p *Persona) YAML() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(p); err != nil {
		return nil, errors.Wrap(err, "could not encode persona")
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
