package summarizer

import (
	"math"
	"sort"
	"strings"

	"docqa/internal/textutil"
)

// FrequencySummarizer ranks sentences by word frequency (stopwords filtered).
type FrequencySummarizer struct{}

// NewFrequencySummarizer creates a frequency-based sentence ranker summarizer.
func NewFrequencySummarizer() *FrequencySummarizer {
	return &FrequencySummarizer{}
}

// Summarize returns a short summary by ranking sentences using token frequency.
// Selected sentences keep their original order.
func (s *FrequencySummarizer) Summarize(text string, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = 5
	}
	sentences := textutil.Sentences(text)
	if len(sentences) == 0 {
		return "", nil
	}
	ranked := s.Rank(sentences)
	maxSentences = min(maxSentences, len(ranked))
	selected := append([]int(nil), ranked[:maxSentences]...)
	sort.Ints(selected)
	out := make([]string, len(selected))
	for i, idx := range selected {
		out[i] = sentences[idx]
	}
	return strings.Join(out, " "), nil
}

// Rank orders sentence indices from most to least representative.
func (s *FrequencySummarizer) Rank(sentences []string) []int {
	freq := map[string]float64{}
	tokens := make([][]string, len(sentences))
	for i, sent := range sentences {
		tokens[i] = textutil.Words(sent)
		for _, tok := range tokens[i] {
			if !textutil.IsStopword(tok) {
				freq[tok]++
			}
		}
	}
	maxF := 0.0
	for _, v := range freq {
		maxF = math.Max(maxF, v)
	}
	scores := make([]float64, len(sentences))
	for i := range sentences {
		if maxF == 0 {
			break
		}
		for _, tok := range tokens[i] {
			scores[i] += freq[tok] / maxF
		}
		// Normalize by sentence length to avoid bias
		if l := float64(len(tokens[i])); l > 0 {
			scores[i] /= math.Sqrt(l)
		}
	}
	idxs := make([]int, len(sentences))
	for i := range idxs {
		idxs[i] = i
	}
	sort.SliceStable(idxs, func(a, b int) bool { return scores[idxs[a]] > scores[idxs[b]] })
	return idxs
}
