// Package dispatch implements the dispatcher (spec C6): the lookup/search/
// index_directory/reindex_file operations that sit between the language
// plugins and the store, with lazy plugin construction and FTS-only
// degradation when no plugin is available for a file's language.
package dispatch

import "fmt"

// Stage is one step of the per-file indexing state machine (spec §4.6):
// Discovered -> Decoded -> Parsed -> SymbolsExtracted -> FtsWritten -> Committed.
type Stage string

const (
	StageDiscovered       Stage = "discovered"
	StageDecoded          Stage = "decoded"
	StageParsed           Stage = "parsed"
	StageSymbolsExtracted Stage = "symbols_extracted"
	StageFtsWritten       Stage = "fts_written"
	StageCommitted        Stage = "committed"
)

// FailedError records the stage a file's indexing failed at and why,
// without blocking the rest of the batch (spec §4.6: "does not block other
// files").
type FailedError struct {
	Path   string
	Stage  Stage
	Reason string
}

func (e *FailedError) Error() string {
	return fmt.Sprintf("dispatch: %s failed at stage %s: %s", e.Path, e.Stage, e.Reason)
}

// TimeoutResult tags a partial result returned when a caller-supplied
// deadline elapsed mid-operation (spec §5: "returns a partial result tagged
// Timeout{completed_count}").
type TimeoutResult struct {
	CompletedCount int
}
