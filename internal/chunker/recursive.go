package chunker

import (
	"strings"
	"unicode/utf8"

	"docqa/internal/domain"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 100
)

// separators are tried from coarsest to finest; "" splits into runes.
var separators = []string{"\n\n", "\n", " ", ""}

// RecursiveChunker splits text on the coarsest separator that keeps pieces
// under the size limit, then packs neighbouring pieces into chunks of at
// most size characters that share up to overlap characters.
type RecursiveChunker struct {
	size    int
	overlap int
}

func NewRecursiveChunker(size, overlap int) *RecursiveChunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size / 10
	}
	return &RecursiveChunker{size: size, overlap: overlap}
}

func (c *RecursiveChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	if strings.TrimSpace(document.Content) == "" {
		return nil, nil
	}
	texts := c.split(document.Content, separators)
	chunks := make([]domain.Chunk, 0, len(texts))
	for _, t := range texts {
		chunks = append(chunks, newChunk(document, len(chunks), t))
	}
	return chunks, nil
}

func (c *RecursiveChunker) split(text string, seps []string) []string {
	sep, rest := seps[len(seps)-1], []string(nil)
	for i, s := range seps {
		if s == "" || strings.Contains(text, s) {
			sep, rest = s, seps[i+1:]
			break
		}
	}

	var out, fitting []string
	for _, piece := range strings.Split(text, sep) {
		if utf8.RuneCountInString(piece) <= c.size {
			fitting = append(fitting, piece)
			continue
		}
		if len(fitting) > 0 {
			out = append(out, c.merge(fitting, sep)...)
			fitting = nil
		}
		if len(rest) == 0 {
			out = append(out, piece)
		} else {
			out = append(out, c.split(piece, rest)...)
		}
	}
	if len(fitting) > 0 {
		out = append(out, c.merge(fitting, sep)...)
	}
	return out
}

// merge packs pieces into chunks, carrying trailing pieces of up to
// overlap characters into the next chunk.
func (c *RecursiveChunker) merge(pieces []string, sep string) []string {
	sepLen := utf8.RuneCountInString(sep)
	var out, window []string
	total := 0
	joinedLen := func(n int) int {
		if len(window) > 0 {
			return total + sepLen + n
		}
		return total + n
	}

	for _, piece := range pieces {
		n := utf8.RuneCountInString(piece)
		if joinedLen(n) > c.size && len(window) > 0 {
			if doc := strings.TrimSpace(strings.Join(window, sep)); doc != "" {
				out = append(out, doc)
			}
			for total > c.overlap || (joinedLen(n) > c.size && total > 0) {
				total -= utf8.RuneCountInString(window[0])
				if len(window) > 1 {
					total -= sepLen
				}
				window = window[1:]
			}
		}
		total = joinedLen(n)
		window = append(window, piece)
	}
	if doc := strings.TrimSpace(strings.Join(window, sep)); doc != "" {
		out = append(out, doc)
	}
	return out
}
