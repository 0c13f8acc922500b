// Package chunker splits documents into retrieval-sized chunks.
package chunker

import (
	"fmt"
	"strconv"

	"docqa/internal/domain"
)

// New returns the chunker named by kind. An empty kind selects the
// recursive character chunker.
func New(kind string, size, overlap, sentencesPerChunk, overlapSentences int) (domain.Chunker, error) {
	switch kind {
	case "recursive", "":
		return NewRecursiveChunker(size, overlap), nil
	case "sentence":
		return NewSentenceChunker(sentencesPerChunk, overlapSentences), nil
	default:
		return nil, fmt.Errorf("unknown chunker: %s", kind)
	}
}

func newChunk(document domain.Document, idx int, text string) domain.Chunk {
	return domain.Chunk{
		DocumentID: document.ID,
		ChunkID:    document.ID + ":" + strconv.Itoa(idx),
		Text:       text,
		Index:      idx,
	}
}
