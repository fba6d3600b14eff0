package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates every executed test case passed.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a failed or errored test case, or a command error.
	ExitCodeError = 1
)

// rootCmd is the entry point when the application is called without any
// subcommands.
var rootCmd = &cobra.Command{
	Use:   "mcptest",
	Short: "Run declarative test suites against an MCP tool server",
	Long: `mcptest executes declarative test cases against a running MCP tool
server. Suites are defined in YAML: each case invokes one tool, validates the
response and the resulting backend state, and cleans up what it created.
Cases may depend on each other; independent groups run in parallel.`,
	SilenceUsage: true,
}

// SetVersion sets the version for the root command. Called from the main
// package to inject the build version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute runs the root command. Called by main.main().
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "mcptest version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(ExitCodeError)
	}
}
