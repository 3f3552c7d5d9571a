package cmds

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/go-go-golems/persona-chat/pkg/transcript"
)

func NewAskCommand() *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Ask a single question and print the reply",
		Long:  "Ask a single question. Without arguments the question is read from stdin.",
		RunE: func(cmd *cobra.Command, args []string) error {
			question, err := readQuestion(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}

			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			_, out, err := a.orchestrator.Submit(cmd.Context(), question, transcript.Transcript{})
			if err != nil {
				return err
			}
			reply, _ := out.Last(transcript.RoleAssistant)
			return printReply(cmd.OutOrStdout(), reply.Content, raw)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "Print the reply without markdown rendering")
	return cmd
}

func readQuestion(stdin io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", errors.Wrap(err, "could not read question from stdin")
	}
	return strings.TrimRight(string(b), "\n"), nil
}

// printReply renders markdown when stdout is a terminal.
func printReply(w io.Writer, reply string, raw bool) error {
	f, ok := w.(*os.File)
	if raw || !ok || !isatty.IsTerminal(f.Fd()) {
		_, err := fmt.Fprintln(w, reply)
		return err
	}

	width := 80
	if tw, _, err := term.GetSize(int(f.Fd())); err == nil && tw > 0 {
		width = tw
	}
	r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(width-2))
	if err != nil {
		return errors.Wrap(err, "could not create markdown renderer")
	}
	rendered, err := r.Render(reply)
	if err != nil {
		return errors.Wrap(err, "could not render reply")
	}
	_, err = fmt.Fprint(w, rendered)
	return err
}
