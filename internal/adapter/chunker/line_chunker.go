package chunker

import (
	"fmt"
	"strings"

	"ragstore/internal/domain"
)

// LineChunker splits text content into raw chunks of at most maxLines lines
// each, for bulk-importing files as chunk sequences. Chunks are named after
// their origin so keyed compression can reference them.
type LineChunker struct {
	maxLines int
}

func NewLineChunker(maxLines int) *LineChunker {
	if maxLines <= 0 {
		maxLines = 40
	}
	return &LineChunker{maxLines: maxLines}
}

// Chunk splits content into a sequence of named raw chunks. Blank-only
// blocks are dropped; an empty file yields an empty sequence.
func (c *LineChunker) Chunk(name, content string) domain.Sequence {
	lines := strings.Split(content, "\n")

	var seq domain.Sequence
	for start := 0; start < len(lines); start += c.maxLines {
		end := start + c.maxLines
		if end > len(lines) {
			end = len(lines)
		}
		text := strings.Join(lines[start:end], "\n")
		if strings.TrimSpace(text) == "" {
			continue
		}
		source := fmt.Sprintf("%s:%d-%d", name, start+1, end)
		seq = append(seq, domain.NamedRaw(source, text))
	}
	return seq
}
