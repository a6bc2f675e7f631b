// Package chunk splits cleaned article text into retrieval-sized
// pieces. Splitting prefers sentence boundaries, falling back to word
// boundaries, so chunks stay coherent units for embedding.
package chunk

import (
	"errors"
	"strings"

	"github.com/tmc/langchaingo/textsplitter"
)

// Splitter splits text into bounded chunks.
type Splitter struct {
	splitter  textsplitter.RecursiveCharacter
	maxChunks int
}

// sentence-first separators; the empty string is the hard fallback for
// pathological unbroken runs.
var separators = []string{". ", "! ", "? ", " ", ""}

// NewSplitter creates a splitter producing chunks of roughly size
// characters with the given overlap, capped at maxChunks per document.
func NewSplitter(size, overlap, maxChunks int) (*Splitter, error) {
	if size <= 0 {
		return nil, errors.New("chunk: size must be positive")
	}
	if overlap < 0 || overlap >= size {
		return nil, errors.New("chunk: overlap must be non-negative and smaller than size")
	}
	if maxChunks <= 0 {
		return nil, errors.New("chunk: maxChunks must be positive")
	}

	return &Splitter{
		splitter: textsplitter.NewRecursiveCharacter(
			textsplitter.WithChunkSize(size),
			textsplitter.WithChunkOverlap(overlap),
			textsplitter.WithSeparators(separators),
		),
		maxChunks: maxChunks,
	}, nil
}

// Split splits text into at most maxChunks non-empty chunks.
// Blank input yields no chunks and no error.
func (s *Splitter) Split(text string) ([]string, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	raw, err := s.splitter.SplitText(text)
	if err != nil {
		return nil, err
	}

	chunks := make([]string, 0, min(len(raw), s.maxChunks))
	for _, c := range raw {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		chunks = append(chunks, c)
		if len(chunks) == s.maxChunks {
			break
		}
	}
	return chunks, nil
}
