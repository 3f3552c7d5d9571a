package tokens

import (
	"github.com/pkg/errors"
	"github.com/tiktoken-go/tokenizer"

	"github.com/go-go-golems/persona-chat/pkg/llm"
)

const DefaultEncoding = "cl100k_base"

// Counter estimates prompt sizes. Counts are informational only; hosted models use
// their own tokenizers.
type Counter struct {
	encoding string
	codec    tokenizer.Codec
}

func NewCounter(encoding string) (*Counter, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	codec, err := tokenizer.Get(tokenizer.Encoding(encoding))
	if err != nil {
		return nil, errors.Wrapf(err, "unsupported token encoding %q", encoding)
	}
	return &Counter{encoding: encoding, codec: codec}, nil
}

func (c *Counter) Encoding() string {
	return c.encoding
}

func (c *Counter) Count(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	ids, _, err := c.codec.Encode(text)
	if err != nil {
		return 0, errors.Wrap(err, "error encoding input")
	}
	return len(ids), nil
}

// CountRequest sums the tokens of the persona instruction, every history message and the
// new input.
func (c *Counter) CountRequest(req llm.Request) (int, error) {
	total, err := c.Count(req.PersonaInstruction)
	if err != nil {
		return 0, err
	}
	for _, m := range req.History {
		n, err := c.Count(m.Content)
		if err != nil {
			return 0, err
		}
		total += n
	}
	n, err := c.Count(req.NewInput)
	if err != nil {
		return 0, err
	}
	return total + n, nil
}
