package service

import (
	"fmt"

	"github.com/cloo-solutions/docgpt/internal/domain"
)

// Splitter cuts text into overlapping windows measured in runes.
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separator    string
}

// DefaultSplitter provides the document chat defaults.
func DefaultSplitter() Splitter {
	return Splitter{
		ChunkSize:    600,
		ChunkOverlap: 100,
		Separator:    "\n",
	}
}

// Validate rejects window settings that cannot make progress.
func (s Splitter) Validate() error {
	if s.ChunkSize <= 0 {
		return domain.Wrap(domain.ErrInvalidSettings, fmt.Errorf("chunk size must be positive, got %d", s.ChunkSize))
	}
	if s.ChunkOverlap < 0 || s.ChunkOverlap >= s.ChunkSize {
		return domain.Wrap(domain.ErrInvalidSettings, fmt.Errorf("chunk overlap %d must be in [0, %d)", s.ChunkOverlap, s.ChunkSize))
	}
	return nil
}

// Split returns the chunks of text in order. A window ends just after the
// last separator it contains beyond the overlap region, or at ChunkSize
// runes when there is none. The next window starts ChunkOverlap runes before
// the previous end, moved forward to just after a separator in that region.
// Every rune of text is covered, so Reassemble(Split(text)) == text.
func (s Splitter) Split(text string) []domain.Chunk {
	runes := []rune(text)
	n := len(runes)
	if n == 0 {
		return nil
	}
	if s.Validate() != nil {
		s = DefaultSplitter()
	}
	sep := []rune(s.Separator)

	chunks := make([]domain.Chunk, 0, n/(s.ChunkSize-s.ChunkOverlap)+1)
	start := 0
	for {
		end := min(start+s.ChunkSize, n)
		if end < n {
			if p := lastBreak(runes, sep, start, start+s.ChunkOverlap, end); p > 0 {
				end = p
			}
		}

		chunks = append(chunks, domain.Chunk{
			Index: len(chunks),
			Start: start,
			End:   end,
			Text:  string(runes[start:end]),
		})
		if end == n {
			return chunks
		}

		next := end - s.ChunkOverlap
		if q := firstBreak(runes, sep, next, end); q > 0 {
			next = q
		}
		start = next
	}
}

// lastBreak returns the largest p in (after, end] such that a separator
// lying entirely inside [floor, end) ends at p, or -1.
func lastBreak(runes, sep []rune, floor, after, end int) int {
	if len(sep) == 0 {
		return -1
	}
	for p := end; p > after; p-- {
		if p-len(sep) >= floor && hasSepBefore(runes, sep, p) {
			return p
		}
	}
	return -1
}

// firstBreak returns the smallest p in (from, end) such that a separator
// lying entirely inside [from, end) ends at p, or -1.
func firstBreak(runes, sep []rune, from, end int) int {
	if len(sep) == 0 {
		return -1
	}
	for p := from + len(sep); p < end; p++ {
		if hasSepBefore(runes, sep, p) {
			return p
		}
	}
	return -1
}

func hasSepBefore(runes, sep []rune, p int) bool {
	if p < len(sep) {
		return false
	}
	for i, r := range sep {
		if runes[p-len(sep)+i] != r {
			return false
		}
	}
	return true
}

// Reassemble rebuilds the source text from ordered, overlapping chunks by
// appending the part of each chunk not covered by its predecessors.
func Reassemble(chunks []domain.Chunk) string {
	var out []rune
	for _, c := range chunks {
		r := []rune(c.Text)
		skip := len(out) - c.Start
		if skip < 0 {
			skip = 0
		}
		if skip > len(r) {
			continue
		}
		out = append(out, r[skip:]...)
	}
	return string(out)
}
