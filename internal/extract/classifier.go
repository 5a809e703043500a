package extract

import (
	"regexp"
	"strings"
)

// Sentiment is a three-way categorical label plus a compound score.
type Sentiment struct {
	Label    string // "positive", "negative", "neutral"
	Compound float64
}

var (
	positiveWords = map[string]float64{
		"love": 1, "great": 0.8, "good": 0.6, "like": 0.5, "prefer": 0.4,
		"works": 0.3, "excellent": 0.9, "happy": 0.7,
	}
	negativeWords = map[string]float64{
		"hate": -1, "bad": -0.6, "wrong": -0.5, "broken": -0.7, "never": -0.3,
		"don't like": -0.5, "issue": -0.4, "problem": -0.5, "fail": -0.7,
	}
	wordRe = regexp.MustCompile(`[a-zA-Z']+`)
)

// Refine is the optional classifier stage: it may refine a
// candidate's confidence and importance, attach keywords and a sentiment
// score, but must never drop a candidate outright.
func Refine(candidates []Candidate) []Candidate {
	for i := range candidates {
		refineOne(&candidates[i])
	}
	return candidates
}

func refineOne(c *Candidate) {
	sentiment := scoreSentiment(c.Content)
	keywords := extractKeywords(c.Content)

	if c.ExtractionMeta == nil {
		c.ExtractionMeta = make(map[string]interface{})
	}
	c.ExtractionMeta["sentiment"] = sentiment
	c.ExtractionMeta["keywords"] = keywords

	// A strongly negative candidate reads as more important than the
	// pattern-matching pass alone would score it; nudge up, never down.
	if sentiment.Compound < -0.5 && c.Importance < 0.9 {
		c.Importance += 0.05
		if c.Importance > 1 {
			c.Importance = 1
		}
	}
}

func scoreSentiment(text string) Sentiment {
	lower := strings.ToLower(text)
	var sum float64
	var hits int
	for phrase, weight := range negativeWords {
		if strings.Contains(lower, phrase) {
			sum += weight
			hits++
		}
	}
	for word, weight := range positiveWords {
		if strings.Contains(lower, word) {
			sum += weight
			hits++
		}
	}
	if hits == 0 {
		return Sentiment{Label: "neutral", Compound: 0}
	}
	compound := sum / float64(hits)
	label := "neutral"
	switch {
	case compound > 0.1:
		label = "positive"
	case compound < -0.1:
		label = "negative"
	}
	return Sentiment{Label: label, Compound: compound}
}

// extractKeywords returns up to 5 non-stopword tokens longer than 2
// characters, in order of first appearance.
func extractKeywords(text string) []string {
	var keywords []string
	seen := make(map[string]bool)
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if len(w) <= 2 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		keywords = append(keywords, w)
		if len(keywords) == 5 {
			break
		}
	}
	return keywords
}
