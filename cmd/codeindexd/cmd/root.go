// Package cmd provides the CLI commands for codeindexd.
package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/codeindex-mcp/codeindex/internal/logging"
	"github.com/codeindex-mcp/codeindex/internal/profiling"
	"github.com/codeindex-mcp/codeindex/pkg/version"
)

// Exit codes per spec §6.1: 0 normal, 2 bad CLI, 3 no index found, 4 storage
// corruption.
const (
	exitOK              = 0
	exitBadUsage        = 2
	exitIndexNotFound   = 3
	exitStorageCorrupt  = 4
)

// exitError carries a specific process exit code through cobra's RunE
// chain, so Execute can report it without the subcommand calling os.Exit
// itself (which would skip deferred cleanup).
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func newExitError(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

var (
	workspaceRoot string
	debugMode     bool

	profileCPU   string
	profileMem   string
	profileTrace string
	profiler     = profiling.NewProfiler()
	cpuCleanup   func()
	traceCleanup func()
	loggingCleanup func()
)

// NewRootCmd creates the root command for codeindexd.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "codeindexd",
		Short:   "Local-first code indexing engine and MCP tool server",
		Long: `codeindexd indexes a codebase (symbols, full text, and an optional
semantic side-index) into a local SQLite artifact, and serves it to AI coding
assistants over a JSON-RPC tool protocol, or directly from the CLI.

Run 'codeindexd serve' inside a repository to start the tool server, or use
the 'reindex', 'search', 'status', and 'export' subcommands directly.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetVersionTemplate("codeindexd version {{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&workspaceRoot, "workspace", "", "Workspace root override (default: detect from cwd)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")

	rootCmd.PersistentFlags().StringVar(&profileCPU, "profile-cpu", "", "Write CPU profile to file")
	rootCmd.PersistentFlags().StringVar(&profileMem, "profile-mem", "", "Write memory profile to file")
	rootCmd.PersistentFlags().StringVar(&profileTrace, "profile-trace", "", "Write execution trace to file")

	rootCmd.PersistentPreRunE = startProfilingAndLogging
	rootCmd.PersistentPostRunE = stopProfilingAndLogging

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newReindexCmd())
	rootCmd.AddCommand(newSearchCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func startProfilingAndLogging(cmd *cobra.Command, _ []string) error {
	if debugMode {
		logger, cleanup, err := logging.Setup(logging.DebugConfig())
		if err != nil {
			return fmt.Errorf("failed to setup debug logging: %w", err)
		}
		loggingCleanup = cleanup
		slog.SetDefault(logger)
	}

	var err error
	if profileCPU != "" {
		cpuCleanup, err = profiler.StartCPU(profileCPU)
		if err != nil {
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
	}
	if profileTrace != "" {
		traceCleanup, err = profiler.StartTrace(profileTrace)
		if err != nil {
			if cpuCleanup != nil {
				cpuCleanup()
			}
			return fmt.Errorf("failed to start trace: %w", err)
		}
	}
	return nil
}

func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	if cpuCleanup != nil {
		cpuCleanup()
		cpuCleanup = nil
	}
	if traceCleanup != nil {
		traceCleanup()
		traceCleanup = nil
	}
	if profileMem != "" {
		if err := profiler.WriteHeap(profileMem); err != nil {
			return fmt.Errorf("failed to write memory profile: %w", err)
		}
	}
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// Execute runs the root command and returns the process exit code, per
// spec §6.1's exit code contract.
func Execute() int {
	err := NewRootCmd().Execute()
	if err == nil {
		return exitOK
	}

	var ee *exitError
	if errors.As(err, &ee) {
		fmt.Fprintln(os.Stderr, "codeindexd:", ee.err)
		return ee.code
	}

	fmt.Fprintln(os.Stderr, "codeindexd:", err)
	return exitBadUsage
}
