package articles

import (
	"math/rand/v2"
	"strings"
)

const (
	seoScoreMin = 60
	seoScoreMax = 95
)

// CountWords counts whitespace-delimited tokens in the generated text.
func CountWords(text string) int {
	return len(strings.Fields(text))
}

// SEOScore computes the heuristic display score for a generated article.
// It rewards keyword count, the topic appearing in the text, and hitting at
// least 80% of the requested length, with a random contribution in [30,49]
// for variability. The result is always within [60,95]. This is a display
// metric, not a search-ranking signal.
func SEOScore(generated, topic string, targetWords int, keywords []string) int {
	return seoScore(generated, topic, targetWords, keywords, rand.IntN(20))
}

func seoScore(generated, topic string, targetWords int, keywords []string, jitter int) int {
	score := len(keywords) * 10

	if strings.Contains(strings.ToLower(generated), strings.ToLower(topic)) {
		score += 20
	}

	if float64(CountWords(generated)) >= float64(targetWords)*0.8 {
		score += 20
	} else {
		score += 10
	}

	score += jitter + 30

	if score > seoScoreMax {
		return seoScoreMax
	}
	if score < seoScoreMin {
		return seoScoreMin
	}
	return score
}
