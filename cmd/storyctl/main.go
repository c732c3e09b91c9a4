package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/templui/storyloom/cmd/storyctl/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "storyctl",
		Short:         "Operator tools for Storyloom",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.AddCommand(cmd.MigrateCmd())
	rootCmd.AddCommand(cmd.BadgesCmd())
	rootCmd.AddCommand(cmd.CapabilitiesCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
