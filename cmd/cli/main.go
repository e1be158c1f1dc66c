package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// NewRootCommand builds the tenantcms operator CLI.
func NewRootCommand() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:   "tenantcms",
		Short: "tenantcms operator tools",
		Long: `Operator tools for a tenantcms installation.

Database commands read the same environment (and optional .env file) as the server.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "optional .env file to load")

	rootCmd.AddCommand(NewMigrateCommand())
	rootCmd.AddCommand(NewBootstrapCommand())
	rootCmd.AddCommand(NewSecretCommand())
	rootCmd.AddCommand(NewPasswordCommand())
	rootCmd.AddCommand(NewScanCommand())
	return rootCmd
}
