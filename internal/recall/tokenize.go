package recall

import (
	"regexp"
	"sort"
	"strings"
)

var wordRe = regexp.MustCompile(`[a-zA-Z0-9']+`)

// stopwords is the set internal/extract filters entities against plus the
// question words (do, does, what, which, how) that prompts carry; it is kept
// as a separate copy since recall tokenizes prompts, not memory content.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"is": true, "are": true, "was": true, "were": true, "to": true, "of": true,
	"in": true, "on": true, "at": true, "for": true, "with": true, "it": true,
	"this": true, "that": true, "i": true, "we": true, "you": true, "do": true,
	"does": true, "what": true, "which": true, "how": true,
}

// temporalMarkers trigger the Temporal strategy.
var temporalMarkers = []string{"recent", "recently", "latest", "yesterday", "last week"}

// keywordsOf tokenizes text, drops stopwords and tokens of length ≤2, and
// returns up to top-5 tokens by salience: frequency, then first appearance
// for determinism.
func keywordsOf(text string) []string {
	freq := make(map[string]int)
	var order []string
	for _, w := range wordRe.FindAllString(strings.ToLower(text), -1) {
		if len(w) <= 2 || stopwords[w] {
			continue
		}
		if freq[w] == 0 {
			order = append(order, w)
		}
		freq[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return freq[order[i]] > freq[order[j]]
	})

	if len(order) > 5 {
		order = order[:5]
	}
	return order
}

func hasTemporalMarker(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range temporalMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// tokenSet is a lowercase membership set used by keyword/entity overlap.
func tokenSet(tokens []string) map[string]bool {
	out := make(map[string]bool, len(tokens))
	for _, t := range tokens {
		out[strings.ToLower(t)] = true
	}
	return out
}
