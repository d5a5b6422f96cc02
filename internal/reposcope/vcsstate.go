package reposcope

import (
	"os/exec"
	"strings"
)

// CurrentBranch returns root's checked-out branch name, or "detached" when
// HEAD is not on a branch (e.g. CI checkouts) and "" when git is unavailable
// or root is not a repository.
func CurrentBranch(root string) string {
	out, err := exec.Command("git", "-C", root, "symbolic-ref", "--short", "-q", "HEAD").Output()
	if err != nil {
		if isRepo(root) {
			return "detached"
		}
		return ""
	}
	return strings.TrimSpace(string(out))
}

// CurrentCommit returns root's checked-out commit hash, or "" when git is
// unavailable or root is not a repository.
func CurrentCommit(root string) string {
	out, err := exec.Command("git", "-C", root, "rev-parse", "HEAD").Output()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(out))
}

func isRepo(root string) bool {
	err := exec.Command("git", "-C", root, "rev-parse", "--git-dir").Run()
	return err == nil
}
