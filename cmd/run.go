package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"mcptest/internal/executor"
	"mcptest/internal/invoke"
	"mcptest/internal/plan"
	"mcptest/internal/report"
	"mcptest/internal/state"
	"mcptest/internal/testcase"
	"mcptest/pkg/logging"
)

var (
	runSuitePath  string
	runGroup      string
	runTest       string
	runTimeout    time.Duration
	runDepTimeout time.Duration
	runFailFast   bool
	runParallel   bool
	runVerbose    bool
	runDebug      bool
	runLogLevel   string
	runReportPath string
	runEndpoint   string
	runServerCmd  string
	runAWSProfile string
	runAWSRegion  string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute test suites against a tool server",
	Long: `The run command loads YAML test suites, resolves their dependency
graph, and executes them against a tool server reached either over
streamable HTTP (--endpoint) or by spawning a stdio server (--server-cmd).

Groups run in parallel; cases within a group run in sequence. A case whose
dependency failed is skipped without touching the server. Cleanups always
run for every executed case, whatever its outcome.

Example usage:
  mcptest run --config ./suites --endpoint http://localhost:8090/mcp
  mcptest run --config ./suites --server-cmd "uv run my-server"
  mcptest run --config ./suites/glue.yaml --group glue_jobs --fail-fast
  mcptest run --config ./suites --test create_glue_job --verbose`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runSuitePath, "config", "", "Path to a suite file or directory of suites")
	runCmd.Flags().StringVar(&runGroup, "group", "", "Run only suites of this group")
	runCmd.Flags().StringVar(&runTest, "test", "", "Run only this case and its dependencies")
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 5*time.Minute, "Default per-case timeout")
	runCmd.Flags().DurationVar(&runDepTimeout, "dep-timeout", 10*time.Minute, "How long a case waits for dependencies in other groups")
	runCmd.Flags().BoolVar(&runFailFast, "fail-fast", false, "Stop scheduling new cases after the first failure")
	runCmd.Flags().BoolVar(&runParallel, "parallel", true, "Run independent groups in parallel")
	runCmd.Flags().BoolVar(&runVerbose, "verbose", false, "Show every validator outcome")
	runCmd.Flags().BoolVar(&runDebug, "debug", false, "Enable debug logging")
	runCmd.Flags().StringVar(&runLogLevel, "log-level", "", "Log level (debug, info, warn, error); overrides --verbose/--debug")
	runCmd.Flags().StringVar(&runReportPath, "report", "", "Write a JSON report to this file or directory")
	runCmd.Flags().StringVar(&runEndpoint, "endpoint", "", "Streamable HTTP endpoint of the tool server")
	runCmd.Flags().StringVar(&runServerCmd, "server-cmd", "", "Command to spawn a stdio tool server")
	runCmd.Flags().StringVar(&runAWSProfile, "aws-profile", "", "AWS CLI profile for state checks")
	runCmd.Flags().StringVar(&runAWSRegion, "aws-region", "", "AWS region for state checks")

	_ = runCmd.MarkFlagRequired("config")
	runCmd.MarkFlagsMutuallyExclusive("endpoint", "server-cmd")
	runCmd.MarkFlagsMutuallyExclusive("group", "test")
}

func runRun(cmd *cobra.Command, args []string) error {
	logging.InitForCLI(logLevelFromFlags(), os.Stderr)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Println("\nReceived interrupt signal, stopping tests gracefully...")
		cancel()
	}()

	registry, globals, err := loadRegistry()
	if err != nil {
		return err
	}
	if registry.Len() == 0 {
		fmt.Println("No test cases matched the filters")
		return nil
	}

	p, err := plan.Resolve(registry)
	if err != nil {
		return fmt.Errorf("failed to resolve execution plan: %w", err)
	}

	invoker, err := connect(ctx)
	if err != nil {
		return err
	}
	defer invoker.Close()

	workers := len(p.Groups)
	if !runParallel {
		workers = 1
	}
	reporter := report.New(os.Stdout, runVerbose)
	reporter.ReportStart(p.Len(), len(p.Groups), workers)

	exec := executor.New(executor.Config{
		Invoker:               invoker,
		State:                 state.NewCLIAccessor(runAWSProfile, runAWSRegion),
		Globals:               globals,
		DefaultTimeout:        runTimeout,
		DependencyWaitTimeout: runDepTimeout,
		FailFast:              runFailFast,
		Sequential:            !runParallel,
		OnResult:              reporter.ReportResult,
	})
	summary, err := exec.Run(ctx, p)
	if err != nil {
		return fmt.Errorf("test execution failed: %w", err)
	}

	reporter.ReportSummary(summary)

	if runReportPath != "" {
		written, err := report.WriteJSON(runReportPath, summary)
		if err != nil {
			fmt.Printf("⚠️  Failed to save report: %v\n", err)
		} else {
			fmt.Printf("📄 Report saved to: %s\n", written)
		}
	}

	if !summary.Succeeded() {
		os.Exit(ExitCodeError)
	}
	return nil
}

// logLevelFromFlags derives the log level: --log-level wins when set,
// otherwise --debug, then --verbose, defaulting to warnings only.
func logLevelFromFlags() logging.LogLevel {
	if runLogLevel != "" {
		return logging.ParseLevel(runLogLevel)
	}
	if runDebug {
		return logging.LevelDebug
	}
	if runVerbose {
		return logging.LevelInfo
	}
	return logging.LevelWarn
}

// loadRegistry loads suites from the configured path and applies the group
// and test filters.
func loadRegistry() (*testcase.Registry, map[string]interface{}, error) {
	suites, err := testcase.NewLoader(runDebug).Load(runSuitePath)
	if err != nil {
		return nil, nil, err
	}
	if runGroup != "" {
		var filtered []testcase.Suite
		for _, s := range suites {
			if s.Group == runGroup {
				filtered = append(filtered, s)
			}
		}
		suites = filtered
	}

	registry := testcase.NewRegistry()
	globals, err := testcase.Build(suites, registry)
	if err != nil {
		return nil, nil, err
	}

	if runTest != "" {
		selected, err := withDependencies(registry, runTest)
		if err != nil {
			return nil, nil, err
		}
		registry = registry.Filter(func(tc *testcase.TestCase) bool {
			return selected[tc.Name]
		})
	}
	return registry, globals, nil
}

// withDependencies returns the named case plus its transitive dependencies,
// so a single-case run still satisfies the resolver.
func withDependencies(registry *testcase.Registry, name string) (map[string]bool, error) {
	if registry.Get(name) == nil {
		return nil, fmt.Errorf("unknown test case %q", name)
	}
	selected := make(map[string]bool)
	queue := []string{name}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if selected[current] {
			continue
		}
		selected[current] = true
		if tc := registry.Get(current); tc != nil {
			queue = append(queue, tc.Dependencies...)
		}
	}
	return selected, nil
}

// connect builds the invoker from the transport flags, showing a spinner
// while the connection is established.
func connect(ctx context.Context) (invoke.Invoker, error) {
	if runEndpoint == "" && runServerCmd == "" {
		return nil, fmt.Errorf("either --endpoint or --server-cmd is required")
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	s.Suffix = " Connecting to tool server..."
	s.Start()
	defer s.Stop()

	var invoker invoke.Invoker
	var err error
	if runEndpoint != "" {
		invoker, err = invoke.NewHTTPInvoker(ctx, runEndpoint, invoke.WithCallTimeout(runTimeout))
	} else {
		parts := strings.Fields(runServerCmd)
		invoker, err = invoke.NewStdioInvoker(ctx, parts[0], os.Environ(), parts[1:], invoke.WithCallTimeout(runTimeout))
	}
	if err != nil {
		s.FinalMSG = text.FgRed.Sprint("Failed to connect to tool server") + "\n"
		return nil, err
	}
	return invoker, nil
}
