package cmds

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/go-go-golems/persona-chat/pkg/webchat"
)

func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the browser chat UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			r, err := webchat.NewRouter(a.orchestrator, a.persona)
			if err != nil {
				return err
			}
			srv, err := webchat.NewServer(r, r.BuildHTTPServer(a.settings.Addr, a.settings.Timeout))
			if err != nil {
				return err
			}

			if a.persona.Greeting != "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), a.persona.Greeting)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}
}
