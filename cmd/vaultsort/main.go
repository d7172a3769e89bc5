package main

import (
	"os"

	"github.com/spf13/cobra"

	"vaultsort/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "vaultsort",
		Short: "Local-LLM inbox organizer for a personal file vault",
	}

	rootCmd.AddCommand(
		cli.NewRunCmd(),
		cli.NewWatchCmd(),
		cli.NewHistoryCmd(),
		cli.NewConnectCmd(),
		cli.NewConfigCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
