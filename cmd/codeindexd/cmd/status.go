package cmd

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/codeindex-mcp/codeindex/internal/ui"
)

func newStatusCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index health and status",
		Long: `Display the index's on-disk location, file/language counts, and
last-indexed time (spec §6.1 get_status).`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func runStatus(cmd *cobra.Command, jsonOutput bool) error {
	ctx := cmd.Context()

	root, err := resolveWorkspaceRoot()
	if err != nil {
		return err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return err
	}
	if err := requireIndexExists(root, cfg); err != nil {
		return err
	}

	e, err := buildEngine(ctx)
	if err != nil {
		return err
	}
	defer e.Close()

	status, err := e.GetStatus(ctx)
	if err != nil {
		return newExitError(exitBadUsage, err)
	}

	info := ui.StatusInfo{
		ProjectName:     filepath.Base(root),
		IndexPath:       status.IndexPath,
		FileCount:       status.FileCount,
		Languages:       status.Languages,
		LastIndexed:     status.LastIndexed,
		SemanticEnabled: status.SemanticEnabled,
	}

	renderer := ui.NewStatusRenderer(cmd.OutOrStdout(), ui.DetectNoColor())
	if jsonOutput {
		return renderer.RenderJSON(info)
	}
	return renderer.Render(info)
}
