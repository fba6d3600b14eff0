package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newVersionCmd creates the Cobra command for displaying the application version.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of mcptest",
		Long:  `All software has versions. This is mcptest's.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "mcptest version %s\n", rootCmd.Version)
		},
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
}
