package cmds

import (
	"github.com/spf13/cobra"
)

func NewPersonaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "persona",
		Short: "Print the active persona as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			p, err := s.ResolvePersona()
			if err != nil {
				return err
			}
			b, err := p.YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
}
