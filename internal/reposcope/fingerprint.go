// Package reposcope resolves workspace roots and computes the stable repository
// fingerprint used to locate a repository's index directory (spec C1).
package reposcope

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
)

// FingerprintLength is the number of hex characters in a repository fingerprint.
const FingerprintLength = 12

// Fingerprint computes the stable 12-hex-char identifier for root.
//
// It prefers the canonical remote URL (git `origin` remote, canonicalized per
// CanonicalizeRemote) so that two clones of the same remote on different
// machines produce the same fingerprint. When no remote is configured it
// falls back to the canonical absolute path, so the fingerprint is still
// deterministic for a given machine/checkout.
func Fingerprint(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("reposcope: resolve absolute path: %w", err)
	}

	if remote, ok := gitRemoteURL(abs); ok {
		canon := CanonicalizeRemote(remote)
		return truncate12(sha256Hex(canon)), nil
	}

	return truncate12(sha256Hex(filepath.Clean(abs))), nil
}

// gitRemoteURL shells out to `git remote get-url origin` in root. It returns
// ok=false whenever git is unavailable, root is not a repository, or no
// "origin" remote is configured — any of which falls back to the path-based
// fingerprint in Fingerprint.
func gitRemoteURL(root string) (string, bool) {
	cmd := exec.Command("git", "-C", root, "remote", "get-url", "origin")
	out, err := cmd.Output()
	if err != nil {
		return "", false
	}
	url := strings.TrimSpace(string(out))
	if url == "" {
		return "", false
	}
	return url, true
}

// CanonicalizeRemote normalizes a git remote URL so that spellings of the same
// remote in one URL form produce the same fingerprint input. Per spec.md
// scenario 4, canonicalization is: lowercase scheme+host, strip trailing
// ".git", strip embedded credentials. The scheme is kept, so an HTTPS URL and
// the scp-like SSH form of the same remote (rewritten as ssh://) differ.
func CanonicalizeRemote(url string) string {
	u := strings.TrimSpace(url)

	// scp-like syntax: git@host:owner/repo(.git)
	if i := strings.Index(u, "@"); i >= 0 && !strings.Contains(u, "://") {
		if j := strings.Index(u, ":"); j > i {
			host := strings.ToLower(u[i+1 : j])
			path := u[j+1:]
			path = strings.TrimSuffix(path, ".git")
			return "ssh://" + host + "/" + strings.TrimPrefix(path, "/")
		}
	}

	// scheme://[user[:pass]@]host[:port]/path
	if idx := strings.Index(u, "://"); idx >= 0 {
		scheme := strings.ToLower(u[:idx])
		rest := u[idx+3:]

		if at := strings.LastIndex(rest, "@"); at >= 0 {
			// Only treat it as credentials if a "/" does not appear before "@".
			if slash := strings.Index(rest, "/"); slash == -1 || at < slash {
				rest = rest[at+1:]
			}
		}

		slash := strings.Index(rest, "/")
		host := rest
		path := ""
		if slash >= 0 {
			host = rest[:slash]
			path = rest[slash:]
		}
		host = strings.ToLower(host)
		path = strings.TrimSuffix(path, ".git")
		return scheme + "://" + host + path
	}

	return strings.TrimSuffix(u, ".git")
}

func sha256Hex(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])
}

func truncate12(hexDigest string) string {
	if len(hexDigest) < FingerprintLength {
		return hexDigest
	}
	return hexDigest[:FingerprintLength]
}
