package chunker

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

func doc(content string) domain.Document {
	return domain.Document{ID: "doc1", Path: "doc1.pdf", Content: content}
}

func TestRecursiveChunker_EmptyDocument(t *testing.T) {
	chunks, err := NewRecursiveChunker(100, 10).Chunk(doc("  \n\n "))
	require.NoError(t, err)
	assert.Nil(t, chunks)
}

func TestRecursiveChunker_ShortDocumentIsOneChunk(t *testing.T) {
	chunks, err := NewRecursiveChunker(100, 10).Chunk(doc("  Una sola frase corta.  "))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Una sola frase corta.", chunks[0].Text)
	assert.Equal(t, "doc1:0", chunks[0].ChunkID)
	assert.Equal(t, "doc1", chunks[0].DocumentID)
}

func TestRecursiveChunker_PrefersParagraphBoundaries(t *testing.T) {
	p1 := strings.Repeat("a", 60)
	p2 := strings.Repeat("b", 60)
	chunks, err := NewRecursiveChunker(100, 0).Chunk(doc(p1 + "\n\n" + p2))
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, p1, chunks[0].Text)
	assert.Equal(t, p2, chunks[1].Text)
}

func TestRecursiveChunker_SizeAndOverlap(t *testing.T) {
	words := make([]string, 300)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	chunks, err := NewRecursiveChunker(50, 10).Chunk(doc(strings.Join(words, " ")))
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, ch := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(ch.Text), 50, "chunk %d too long", i)
		assert.Equal(t, i, ch.Index)
		if i == 0 {
			continue
		}
		prev := map[string]bool{}
		for _, w := range strings.Fields(chunks[i-1].Text) {
			prev[w] = true
		}
		first := strings.Fields(ch.Text)[0]
		assert.True(t, prev[first], "chunk %d does not overlap its predecessor", i)
	}
}

func TestRecursiveChunker_SplitsUnbrokenText(t *testing.T) {
	chunks, err := NewRecursiveChunker(10, 2).Chunk(doc(strings.Repeat("x", 35)))
	require.NoError(t, err)
	for _, ch := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(ch.Text), 10)
	}
	assert.GreaterOrEqual(t, len(chunks), 4)
}

func TestSentenceChunker_Overlap(t *testing.T) {
	text := "Uno. Dos. Tres. Cuatro. Cinco. Seis. Siete."
	chunks, err := NewSentenceChunker(3, 1).Chunk(doc(text))
	require.NoError(t, err)
	require.Len(t, chunks, 3)
	assert.Equal(t, "Uno. Dos. Tres.", chunks[0].Text)
	assert.Equal(t, "Tres. Cuatro. Cinco.", chunks[1].Text)
	assert.Equal(t, "Cinco. Seis. Siete.", chunks[2].Text)
}

func TestSentenceChunker_NoTerminator(t *testing.T) {
	chunks, err := NewSentenceChunker(3, 1).Chunk(doc("sin punto final"))
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "sin punto final", chunks[0].Text)
}

func TestSentenceChunker_KeepsTrailingFragment(t *testing.T) {
	chunks, err := NewSentenceChunker(2, 0).Chunk(doc("Uno. Dos. Tres sin cerrar"))
	require.NoError(t, err)
	require.Len(t, chunks, 2)
	assert.Equal(t, "Tres sin cerrar", chunks[1].Text)
}

func TestNew(t *testing.T) {
	c, err := New("", 0, 0, 0, 0)
	require.NoError(t, err)
	assert.IsType(t, &RecursiveChunker{}, c)

	c, err = New("sentence", 0, 0, 4, 1)
	require.NoError(t, err)
	assert.IsType(t, &SentenceChunker{}, c)

	_, err = New("paragraph", 0, 0, 0, 0)
	assert.Error(t, err)
}
