package reposcope

import (
	"os"
	"path/filepath"
)

// vcsMarkers are directory/file names that identify a repository root when
// walking up from the current directory.
var vcsMarkers = []string{".git", ".hg", ".svn", ".jj"}

// WorkspaceRoot resolves the workspace root, in priority order:
//  1. override (explicit configuration value, e.g. Config.WorkspaceRoot)
//  2. the MCP_WORKSPACE_ROOT environment variable
//  3. the nearest ancestor of cwd containing a VCS marker
//  4. cwd itself
func WorkspaceRoot(override string) (string, error) {
	if override != "" {
		return filepath.Abs(override)
	}
	if env := os.Getenv("MCP_WORKSPACE_ROOT"); env != "" {
		return filepath.Abs(env)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}

	if root, ok := nearestVCSRoot(cwd); ok {
		return root, nil
	}
	return cwd, nil
}

func nearestVCSRoot(start string) (string, bool) {
	dir := start
	for {
		for _, marker := range vcsMarkers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}
