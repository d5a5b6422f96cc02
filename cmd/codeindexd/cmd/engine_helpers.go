package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/codeindex-mcp/codeindex/internal/config"
	"github.com/codeindex-mcp/codeindex/internal/engine"
	"github.com/codeindex-mcp/codeindex/internal/reposcope"
	"github.com/codeindex-mcp/codeindex/internal/store"
)

// resolveWorkspaceRoot applies the --workspace override (or MCP_WORKSPACE_ROOT,
// or VCS-root detection) ahead of loading the project config, matching the
// precedence engine.New itself applies via reposcope.WorkspaceRoot.
func resolveWorkspaceRoot() (string, error) {
	root, err := reposcope.WorkspaceRoot(workspaceRoot)
	if err != nil {
		return "", newExitError(exitBadUsage, fmt.Errorf("resolve workspace root: %w", err))
	}
	return root, nil
}

func loadConfig(root string) (*config.Config, error) {
	cfg, err := config.Load(root)
	if err != nil {
		return nil, newExitError(exitBadUsage, fmt.Errorf("load config: %w", err))
	}
	return cfg, nil
}

// buildEngine resolves the workspace, loads config, and opens (or
// initializes) the engine. Storage-level corruption surfaces as exit code 4
// rather than the generic bad-usage code.
func buildEngine(ctx context.Context) (*engine.Engine, error) {
	root, err := resolveWorkspaceRoot()
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(root)
	if err != nil {
		return nil, err
	}

	e, err := engine.New(ctx, cfg, nil)
	if err != nil {
		var openErr *store.OpenFailedError
		if errors.As(err, &openErr) {
			return nil, newExitError(exitStorageCorrupt, err)
		}
		return nil, newExitError(exitBadUsage, err)
	}
	return e, nil
}

// requireIndexExists fails with exit code 3 (spec §6.1 "no index found") when
// no artifact has ever been built for root, without creating one as a side
// effect -- unlike buildEngine/engine.New, which initialize an empty store on
// first use (the behavior 'serve' and 'reindex' want, but 'search'/'status'
// do not).
func requireIndexExists(root string, cfg *config.Config) error {
	fp, err := reposcope.Fingerprint(root)
	if err != nil {
		return newExitError(exitBadUsage, fmt.Errorf("compute fingerprint: %w", err))
	}
	central := reposcope.CentralRoot(root, cfg.CentralIndexRoot)
	dir, err := reposcope.IndexDir(central, fp)
	if err != nil {
		return newExitError(exitBadUsage, fmt.Errorf("resolve index dir: %w", err))
	}
	if _, ok, err := reposcope.ResolveCurrent(dir); err != nil {
		return newExitError(exitBadUsage, fmt.Errorf("resolve current artifact: %w", err))
	} else if !ok {
		return newExitError(exitIndexNotFound, fmt.Errorf("no index found in %s\nRun 'codeindexd reindex' to create one", root))
	}
	return nil
}
