package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/codeindex-mcp/codeindex/internal/rpcserver"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the JSON-RPC tool server over stdio",
		Long: `Start the MCP tool server, exposing symbol_lookup, search_code,
get_status, and reindex over a line-delimited JSON-RPC 2.0 stream on stdio.

BUG-034 carried over: the tool protocol requires stdout to be used
EXCLUSIVELY for JSON-RPC messages once the server starts. Diagnostics never
go to stdout: they go to the --debug log file when enabled, else to stderr.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
	return cmd
}

func runServe(parent context.Context) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	// First run on an empty store: build the index before accepting tool
	// calls, so the first search_code/symbol_lookup a client makes doesn't
	// race an empty index.
	if status, statusErr := e.GetStatus(ctx); statusErr == nil && status.FileCount == 0 {
		if _, err := e.Reindex(ctx, "", time.Time{}); err != nil {
			slog.Error("initial index failed", slog.String("error", err.Error()))
			return newExitError(exitBadUsage, err)
		}
	}

	server := rpcserver.NewServer(e, slog.Default())
	if err := server.Serve(ctx); err != nil {
		return newExitError(exitBadUsage, err)
	}
	return nil
}
