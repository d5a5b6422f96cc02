package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/codeindex-mcp/codeindex/internal/engineerr"
)

// WriterLock is the cross-process single-writer guard for one index
// directory (spec §4.2/§5: "exactly one writer per process", extended here
// to exactly one writer per index directory across processes, since the
// in-memory mutex on Store alone cannot stop a second daemon from opening
// the same artifact). Adapted from the teacher's embedding-download lock
// (internal/embed/lock.go), same gofrs/flock primitive, generalized to
// guard the whole index directory rather than one model download.
type WriterLock struct {
	path  string
	flock *flock.Flock
}

// NewWriterLock returns a lock for "<indexDir>/.write.lock".
func NewWriterLock(indexDir string) *WriterLock {
	path := filepath.Join(indexDir, ".write.lock")
	return &WriterLock{path: path, flock: flock.New(path)}
}

// TryAcquire attempts a non-blocking exclusive lock. A false return with a
// nil error means another process currently holds the writer role; callers
// should fall back to read-only operation rather than treat it as failure.
func (l *WriterLock) TryAcquire() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, engineerr.ResourceExhaustion(engineerr.CodeDiskFull, "cannot create lock directory", err)
	}
	ok, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire writer lock: %w", err)
	}
	return ok, nil
}

// Release drops the lock. Safe to call when not held.
func (l *WriterLock) Release() error {
	if !l.flock.Locked() {
		return nil
	}
	return l.flock.Unlock()
}

// Path returns the lock file's location.
func (l *WriterLock) Path() string { return l.path }
