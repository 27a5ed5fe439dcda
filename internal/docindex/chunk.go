// ABOUTME: Splits document text into overlapping chunks for indexing
// ABOUTME: Fixed-size rune windows that prefer to end on whitespace

package docindex

import (
	"strings"
	"unicode"
)

// Default chunking parameters.
const (
	ChunkSize    = 1000
	ChunkOverlap = 200
)

// splitChunks cuts text into windows of at most size runes, each starting
// overlap runes before the previous window's end. A window is shortened to
// the last whitespace in its second half so words stay whole.
func splitChunks(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if overlap >= size {
		overlap = size / 5
	}

	runes := []rune(text)
	var out []string
	start := 0
	for start < len(runes) {
		end := min(start+size, len(runes))
		if end < len(runes) {
			for i := end; i > start+size/2; i-- {
				if unicode.IsSpace(runes[i]) {
					end = i
					break
				}
			}
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			out = append(out, chunk)
		}
		if end == len(runes) {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return out
}
