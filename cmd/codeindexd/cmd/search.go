package cmd

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/codeindex-mcp/codeindex/internal/output"
)

func newSearchCmd() *cobra.Command {
	var (
		limit      int
		semantic   bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search the indexed codebase",
		Long: `Search across every indexed file's content (spec §6.1 search_code).
Use --semantic to prefer the dense-vector side-index, when one is configured.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), semantic, limit, jsonOutput)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results (max 100)")
	cmd.Flags().BoolVar(&semantic, "semantic", false, "Prefer the semantic side-index over plain full text")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runSearch(cmd *cobra.Command, query string, semantic bool, limit int, jsonOutput bool) error {
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

	hits, err := e.SearchCode(ctx, query, semantic, limit)
	if err != nil {
		return newExitError(exitBadUsage, err)
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(hits)
	}

	out := output.New(cmd.OutOrStdout())
	if len(hits) == 0 {
		out.Status("", "no matches")
		return nil
	}
	for _, h := range hits {
		out.Status("", fmt.Sprintf("%s:%d  [%.3f]  %s", h.FilePath, h.Line, h.Score, h.Snippet))
	}
	return nil
}
