// Package scoring computes the heuristic confidence shown next to an answer.
//
// The score combines three surface signals: how long the answer is, how many
// of the question's words it repeats, and how many source chunks backed it.
// It is not a calibrated probability.
package scoring

import (
	"math"
	"strings"
)

const (
	lengthWeight    = 0.3
	relevanceWeight = 0.4
	sourceWeight    = 0.3

	// saturationWords is the answer length at which the length component maxes out.
	saturationWords = 100
	// saturationSources is the source count at which the source component maxes out.
	saturationSources = 3
)

// Breakdown holds the weighted components of a confidence score.
// Components are fractions in [0, weight]; Total is a percentage in [0, 100].
type Breakdown struct {
	Length    float64
	Relevance float64
	Sources   float64
	Total     float64
}

// Score returns the confidence percentage for an answer.
func Score(answer, question string, sourceCount int) float64 {
	return Explain(answer, question, sourceCount).Total
}

// Explain returns the confidence score together with its components.
func Explain(answer, question string, sourceCount int) Breakdown {
	answerWords := strings.Fields(answer)

	b := Breakdown{
		Length:    min(float64(len(answerWords))/saturationWords, 1.0) * lengthWeight,
		Relevance: overlap(question, answerWords) * relevanceWeight,
		Sources:   min(float64(max(sourceCount, 0))/saturationSources, 1.0) * sourceWeight,
	}
	// Rounding in the weighted sum can overshoot by an ulp.
	b.Total = math.Min((b.Length+b.Relevance+b.Sources)*100, 100)
	return b
}

// overlap is the share of distinct question words that also appear in the answer.
// A question without words has no overlap.
func overlap(question string, answerWords []string) float64 {
	keywords := wordSet(strings.Fields(question))
	if len(keywords) == 0 {
		return 0
	}
	inAnswer := wordSet(answerWords)
	shared := 0
	for w := range keywords {
		if _, ok := inAnswer[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(keywords))
}

func wordSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[strings.ToLower(w)] = struct{}{}
	}
	return m
}
