package ui

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	input "github.com/tcnksm/go-input"

	"github.com/go-go-golems/persona-chat/pkg/persona"
	"github.com/go-go-golems/persona-chat/pkg/transcript"
)

const (
	cmdClear = "/clear"
	cmdQuit  = "/quit"
	cmdExit  = "/exit"
)

// REPL is a line-mode chat for terminals where the full-screen UI is unwanted.
type REPL struct {
	svc        ChatService
	persona    *persona.Persona
	in         io.Reader
	out        io.Writer
	transcript transcript.Transcript
}

func NewREPL(svc ChatService, p *persona.Persona, in io.Reader, out io.Writer) *REPL {
	return &REPL{
		svc:        svc,
		persona:    p,
		in:         in,
		out:        out,
		transcript: transcript.Transcript{},
	}
}

func (r *REPL) Transcript() transcript.Transcript {
	return r.transcript
}

// Handle processes one input line. It reports whether the session should end.
func (r *REPL) Handle(ctx context.Context, line string) bool {
	switch strings.TrimSpace(line) {
	case cmdQuit, cmdExit:
		return true
	case cmdClear:
		_, r.transcript = r.svc.Reset()
		_, _ = fmt.Fprintln(r.out, "(conversation cleared)")
		return false
	}

	_, out, err := r.svc.Submit(ctx, line, r.transcript)
	if err != nil {
		_, _ = fmt.Fprintf(r.out, "error: %v\n", err)
		return false
	}
	r.transcript = out
	if reply, ok := out.Last(transcript.RoleAssistant); ok {
		_, _ = fmt.Fprintf(r.out, "%s: %s\n\n", r.persona.DisplayName(), reply.Content)
	}
	return false
}

// Run reads lines until /quit, end of input or an interrupt.
func (r *REPL) Run(ctx context.Context) error {
	ui := &input.UI{
		Writer: r.out,
		Reader: r.in,
	}
	if r.persona.Greeting != "" {
		_, _ = fmt.Fprintf(r.out, "%s: %s\n", r.persona.DisplayName(), r.persona.Greeting)
	}
	_, _ = fmt.Fprintf(r.out, "(%s to start over, %s to leave)\n\n", cmdClear, cmdQuit)

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		line, err := ui.Ask("You", &input.Options{
			HideOrder: true,
			Loop:      false,
		})
		if err != nil {
			if errors.Is(err, input.ErrInterrupted) || errors.Is(err, io.EOF) {
				log.Debug().Str("component", "ui").Err(err).Msg("repl input closed")
				return nil
			}
			return errors.Wrap(err, "failed to read input")
		}
		if r.Handle(ctx, line) {
			return nil
		}
	}
}
