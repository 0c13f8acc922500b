package scoring

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
)

func TestScore_SpanishExample(t *testing.T) {
	answer := "El articulo trata sobre inteligencia artificial y sus aplicaciones en la industria moderna"
	question := "Cual es el tema principal"

	b := Explain(answer, question, 3)

	assert.InDelta(t, 0.039, b.Length, 1e-9)
	assert.InDelta(t, 0.08, b.Relevance, 1e-9)
	assert.InDelta(t, 0.3, b.Sources, 1e-9)
	assert.InDelta(t, 41.9, b.Total, 1e-9)
	assert.Equal(t, b.Total, Score(answer, question, 3))
}

func TestScore_EmptyQuestionHasNoRelevance(t *testing.T) {
	b := Explain("some answer text", "   ", 1)
	assert.Zero(t, b.Relevance)
	assert.InDelta(t, (0.3*3/100+0.1)*100, b.Total, 1e-9)
}

func TestScore_CaseInsensitiveOverlap(t *testing.T) {
	b := Explain("PARIS is the capital", "paris capital", 0)
	assert.InDelta(t, 0.4, b.Relevance, 1e-9)
}

func TestScore_DisjointWordsHaveZeroRelevance(t *testing.T) {
	b := Explain("alpha beta gamma", "delta epsilon", 2)
	assert.Zero(t, b.Relevance)
}

func TestScore_NegativeSourcesTreatedAsZero(t *testing.T) {
	assert.Equal(t, Score("a b", "a", 0), Score("a b", "a", -4))
}

func TestScore_Saturation(t *testing.T) {
	long := strings.Repeat("word ", 250)
	b := Explain(long, "word", 10)
	assert.InDelta(t, 100.0, b.Total, 1e-9)
}

func TestProperty_ScoreBounds(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("score stays within [0,100]", prop.ForAll(
		func(answer []string, question []string, n int) bool {
			s := Score(strings.Join(answer, " "), strings.Join(question, " "), n)
			return s >= 0 && s <= 100
		},
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.Identifier()).SuchThat(func(v []string) bool { return len(v) > 0 }),
		gen.IntRange(0, 50),
	))

	properties.TestingRun(t)
}

func TestProperty_MonotonicInSources(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("more sources never lower the score and saturate at three", prop.ForAll(
		func(answer string, question string, n int) bool {
			cur := Score(answer, question, n)
			next := Score(answer, question, n+1)
			if n >= saturationSources {
				return cur == next
			}
			return next >= cur
		},
		gen.AlphaString(),
		gen.Identifier(),
		gen.IntRange(0, 20),
	))

	properties.TestingRun(t)
}

func TestProperty_MonotonicInAnswerLength(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("appending a word never lowers the score", prop.ForAll(
		func(words []string, extra string, question string, n int) bool {
			before := Score(strings.Join(words, " "), question, n)
			after := Score(strings.Join(append(words, extra), " "), question, n)
			return after >= before
		},
		gen.SliceOf(gen.Identifier()),
		gen.Identifier(),
		gen.Identifier(),
		gen.IntRange(0, 5),
	))

	properties.Property("length component is constant past saturation", prop.ForAll(
		func(extra int) bool {
			base := strings.Repeat("w ", saturationWords)
			more := base + strings.Repeat("x ", extra)
			return Explain(base, "q", 0).Length == Explain(more, "q", 0).Length
		},
		gen.IntRange(0, 200),
	))

	properties.TestingRun(t)
}
