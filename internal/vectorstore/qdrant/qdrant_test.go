package qdrant

import (
	"testing"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/domain"
)

func TestPointID_DeterministicUUID(t *testing.T) {
	a := pointID("abc:0")
	_, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, a, pointID("abc:0"))
	assert.NotEqual(t, a, pointID("abc:1"))
}

func TestToPointAndBack(t *testing.T) {
	ch := domain.Chunk{DocumentID: "doc", ChunkID: "doc:4", Index: 4, Text: "Texto del fragmento."}
	p := toPoint(ch, []float64{0.5, -0.25})

	assert.Equal(t, pointID("doc:4"), p.GetId().GetUuid())
	assert.NotNil(t, p.GetVectors())

	scored := &qdrant.ScoredPoint{Id: p.Id, Payload: p.Payload, Score: 0.75}
	res := fromScored(scored)
	assert.Equal(t, ch, res.Chunk)
	assert.InDelta(t, 0.75, res.Score, 1e-6)
}

func TestFromScored_MissingPayload(t *testing.T) {
	res := fromScored(&qdrant.ScoredPoint{Score: 0.1})
	assert.Equal(t, domain.Chunk{}, res.Chunk)
}

func TestNewStorage_RequiresCollection(t *testing.T) {
	_, err := NewStorage(Config{}, nil)
	assert.Error(t, err)
}
