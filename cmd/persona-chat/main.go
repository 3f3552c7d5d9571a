package main

import (
	"github.com/spf13/cobra"

	"github.com/go-go-golems/persona-chat/cmd/persona-chat/cmds"
)

func main() {
	rootCmd := cmds.NewRootCommand()
	cobra.CheckErr(rootCmd.Execute())
}
