// Package semantic implements the optional dense-vector side-index (C9):
// chunking, embedding, vector storage, and semantic search, layered on top
// of internal/dispatch's FTS-only search rather than replacing it. Grounded
// on the teacher's internal/chunk (chunking shape), internal/embed
// (provider abstraction, retry policy), and internal/store/hnsw.go (vector
// store, pure-Go, no cgo).
package semantic

import "strings"

// MaxChunkLines is the hard ceiling on a chunk's line count (spec §4.9).
const MaxChunkLines = 1000

// Chunk is one slice of a file's content with a stable (FilePath, Index)
// identity used to key its vector point.
type Chunk struct {
	FilePath  string
	Index     int
	StartLine int // 1-indexed, inclusive
	EndLine   int // 1-indexed, inclusive
	Content   string
}

// ChunkFile splits content into chunks of at most MaxChunkLines lines,
// preferring to break at blank lines near the limit (spec §4.9). A file
// shorter than the limit produces exactly one chunk.
func ChunkFile(filePath, content string) []Chunk {
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")

	var chunks []Chunk
	start := 0
	idx := 0
	for start < len(lines) {
		end := start + MaxChunkLines
		if end >= len(lines) {
			end = len(lines)
		} else if brk := lastBlankLine(lines, start, end); brk > start {
			end = brk
		}

		chunks = append(chunks, Chunk{
			FilePath:  filePath,
			Index:     idx,
			StartLine: start + 1,
			EndLine:   end,
			Content:   strings.Join(lines[start:end], "\n"),
		})
		idx++
		start = end
	}
	return chunks
}

// lastBlankLine returns the index just after the last blank line found at an
// index in (start, end), used as the chunk's exclusive end, or start if none
// is found within the window.
func lastBlankLine(lines []string, start, end int) int {
	for i := end - 1; i > start; i-- {
		if strings.TrimSpace(lines[i]) == "" {
			return i + 1
		}
	}
	return start
}
