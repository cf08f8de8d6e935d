// Package cli implements the formctl command tree.
package cli

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "formctl",
	Short: "FormGate CLI",
	Long: `formctl is the command-line companion for FormGate.

Seed a running gateway with realistic test submissions or validate
payloads against the form schemas without sending anything.`,
	Version: "0.1.0",
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(validateCmd)
}
