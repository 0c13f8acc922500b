package chunker

import (
	"strings"

	"docqa/internal/domain"
	"docqa/internal/textutil"
)

// SentenceChunker splits text into sentence-based chunks with overlap.
type SentenceChunker struct {
	sentencesPerChunk int
	overlapSentences  int
}

func NewSentenceChunker(sentencesPerChunk, overlapSentences int) *SentenceChunker {
	if sentencesPerChunk <= 0 {
		sentencesPerChunk = 5
	}
	if overlapSentences < 0 {
		overlapSentences = 0
	}
	// Overlapping by a whole chunk would never advance.
	if overlapSentences >= sentencesPerChunk {
		overlapSentences = sentencesPerChunk - 1
	}
	return &SentenceChunker{sentencesPerChunk: sentencesPerChunk, overlapSentences: overlapSentences}
}

func (c *SentenceChunker) Chunk(document domain.Document) ([]domain.Chunk, error) {
	sentences := textutil.Sentences(document.Content)
	if len(sentences) == 0 {
		return nil, nil
	}
	var chunks []domain.Chunk
	for start, idx := 0, 0; start < len(sentences); idx++ {
		end := min(start+c.sentencesPerChunk, len(sentences))
		chunks = append(chunks, newChunk(document, idx, strings.Join(sentences[start:end], " ")))
		if end == len(sentences) {
			break
		}
		start = end - c.overlapSentences
	}
	return chunks, nil
}
