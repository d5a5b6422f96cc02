package cmd

import (
	"encoding/json"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/codeindex-mcp/codeindex/internal/output"
	"github.com/codeindex-mcp/codeindex/internal/ui"
)

func newReindexCmd() *cobra.Command {
	var (
		jsonOutput bool
		timeout    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "reindex [path]",
		Short: "Reindex the workspace, or a single file",
		Long: `Reindex the whole workspace, or a single file when given a relative path.

Mirrors the reindex tool call (spec §6.1): result is {indexed, failed}.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) > 0 {
				path = args[0]
			}
			return runReindex(cmd, path, jsonOutput, timeout)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Deadline for the reindex operation (0 = no deadline)")
	return cmd
}

func runReindex(cmd *cobra.Command, path string, jsonOutput bool, timeout time.Duration) error {
	ctx := cmd.Context()

	e, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	var deadline time.Time
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}

	// A single-file reindex finishes too fast for a progress display to be
	// worth driving; only the full-workspace walk renders one.
	var renderer ui.Renderer
	if path == "" && !jsonOutput {
		projectDir := ""
		if root, rootErr := resolveWorkspaceRoot(); rootErr == nil {
			projectDir = filepath.Base(root)
		}
		renderer = ui.NewRenderer(ui.NewConfig(cmd.OutOrStdout(), ui.WithProjectDir(projectDir)))
		if err := renderer.Start(ctx); err != nil {
			renderer = nil
		}
	}

	start := time.Now()
	stats, err := e.ReindexWithProgress(ctx, path, deadline, reindexProgressFunc(renderer))
	if renderer != nil {
		completion := ui.CompletionStats{
			Files:    stats.Indexed,
			Errors:   stats.Failed,
			Duration: time.Since(start),
		}
		renderer.Complete(completion)
		_ = renderer.Stop()
	}
	if err != nil {
		return newExitError(exitBadUsage, err)
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(stats)
	}

	if renderer == nil {
		out := output.New(cmd.OutOrStdout())
		out.Successf("Reindexed %d file(s), %d failed", stats.Indexed, stats.Failed)
	}
	return nil
}

// reindexProgressFunc adapts the dispatcher's per-file progress callback to
// the ui package's renderer-facing ProgressEvent shape. Returns nil when no
// renderer is active, so the dispatcher skips the callback entirely.
func reindexProgressFunc(renderer ui.Renderer) func(current, total int, currentFile string) {
	if renderer == nil {
		return nil
	}
	return func(current, total int, currentFile string) {
		renderer.UpdateProgress(ui.ProgressEvent{
			Stage:       ui.StageIndexing,
			Current:     current,
			Total:       total,
			CurrentFile: currentFile,
		})
	}
}
