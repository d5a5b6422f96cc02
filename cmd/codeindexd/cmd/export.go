package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/codeindex-mcp/codeindex/internal/ignore"
	"github.com/codeindex-mcp/codeindex/internal/output"
)

func newExportCmd() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "export [path]",
		Short: "Export a shareable, ignore-filtered archive of the workspace",
		Long: `Build a deterministic tar.gz of the workspace (or [path], default the
workspace root), dropping every file matched by .gitignore, .mcp-index-ignore,
or the hard-coded sensitive-file patterns (spec §4.5/§6.3). A manifest
(<output>.manifest.json) listing every included entry's size and SHA-256 is
written alongside the archive.

Ignore patterns never affect local indexing (invariant I-7) -- they apply
only to this command.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}
			return runExport(cmd, path, outPath)
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "export.tar.gz", "Archive output path")
	return cmd
}

func runExport(cmd *cobra.Command, path, outPath string) error {
	ctx := cmd.Context()
	out := output.New(cmd.OutOrStdout())

	root, err := filepath.Abs(path)
	if err != nil {
		return newExitError(exitBadUsage, err)
	}

	filter, err := ignore.NewFilter(root)
	if err != nil {
		return newExitError(exitBadUsage, fmt.Errorf("build ignore filter: %w", err))
	}

	f, err := os.Create(outPath)
	if err != nil {
		return newExitError(exitBadUsage, fmt.Errorf("create archive: %w", err))
	}
	defer f.Close()

	manifest, err := ignore.BuildArchive(ctx, root, filter, f)
	if err != nil {
		return newExitError(exitBadUsage, fmt.Errorf("build archive: %w", err))
	}

	manifestPath := outPath + ".manifest.json"
	if err := ignore.WriteManifest(manifestPath, manifest); err != nil {
		return newExitError(exitBadUsage, fmt.Errorf("write manifest: %w", err))
	}

	out.Successf("Exported %d file(s) to %s (manifest: %s)", len(manifest.Entries), outPath, manifestPath)
	return nil
}
