// Package logging provides a structured logging system for mcptest built on
// Go's standard slog package.
//
// All log entries carry a timestamp, a level, a subsystem identifier and a
// formatted message. Subsystems in use:
//
//   - **Registry**: test case registration and suite loading
//   - **Resolver**: dependency graph resolution and planning
//   - **Executor**: test execution, dependency waits and state transitions
//   - **Cleanup**: best-effort teardown and cleanup faults
//   - **Invoker**: MCP transport and tool calls
//   - **State**: external-state accessor calls
//
// Initialize once at startup:
//
//	logging.InitForCLI(logging.LevelInfo, os.Stderr)
//	logging.Info("Executor", "run started with %d cases", n)
//	logging.Error("Cleanup", err, "cleanup %q failed", desc)
//
// Level filtering happens at the handler, so suppressed messages cost no
// allocation. The package is safe for concurrent use from group workers.
package logging
