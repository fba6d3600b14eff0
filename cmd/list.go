package cmd

import (
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"mcptest/internal/plan"
	"mcptest/internal/testcase"
)

var (
	listSuitePath string
	listGroup     string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the test cases of a suite in execution order",
	Long: `The list command loads YAML test suites and prints their cases in
resolved execution order without running anything. Useful for checking what
a run would do and how the dependency graph resolves.`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)

	listCmd.Flags().StringVar(&listSuitePath, "config", "", "Path to a suite file or directory of suites")
	listCmd.Flags().StringVar(&listGroup, "group", "", "List only suites of this group")
	_ = listCmd.MarkFlagRequired("config")
}

func runList(cmd *cobra.Command, args []string) error {
	suites, err := testcase.NewLoader(false).Load(listSuitePath)
	if err != nil {
		return err
	}
	if listGroup != "" {
		var filtered []testcase.Suite
		for _, s := range suites {
			if s.Group == listGroup {
				filtered = append(filtered, s)
			}
		}
		suites = filtered
	}

	registry := testcase.NewRegistry()
	if _, err := testcase.Build(suites, registry); err != nil {
		return err
	}
	p, err := plan.Resolve(registry)
	if err != nil {
		return err
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{
		text.FgHiCyan.Sprint("#"),
		text.FgHiCyan.Sprint("CASE"),
		text.FgHiCyan.Sprint("GROUP"),
		text.FgHiCyan.Sprint("TOOL"),
		text.FgHiCyan.Sprint("DEPENDENCIES"),
	})
	for i, tc := range p.Ordered {
		t.AppendRow(table.Row{
			strconv.Itoa(i + 1),
			tc.Name,
			tc.Group,
			tc.Tool,
			strings.Join(tc.Dependencies, ", "),
		})
	}
	t.Render()
	return nil
}
