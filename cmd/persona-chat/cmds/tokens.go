package cmds

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-go-golems/persona-chat/pkg/llm"
	"github.com/go-go-golems/persona-chat/pkg/tokens"
)

func NewTokensCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tokens [text...]",
		Short: "Estimate the prompt tokens of the persona instruction plus a text",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			p, err := s.ResolvePersona()
			if err != nil {
				return err
			}
			text, err := readQuestion(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			counter, err := tokens.NewCounter(s.TokenEncoding)
			if err != nil {
				return err
			}
			personaTokens, err := counter.Count(p.Instruction)
			if err != nil {
				return err
			}
			inputTokens, err := counter.Count(text)
			if err != nil {
				return err
			}
			total, err := counter.CountRequest(llm.Request{PersonaInstruction: p.Instruction, NewInput: text})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "encoding: %s\n", counter.Encoding())
			_, _ = fmt.Fprintf(w, "persona:  %d\n", personaTokens)
			_, _ = fmt.Fprintf(w, "input:    %d\n", inputTokens)
			_, _ = fmt.Fprintf(w, "total:    %d\n", total)
			return nil
		},
	}
}
