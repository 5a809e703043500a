package recall

import (
	"sort"
	"strings"
	"time"

	"github.com/kuzu-memory/kuzu-memory/pkg/types"
)

// Ranking weights.
const (
	weightImportance = 0.35
	weightKeyword    = 0.30
	weightEntity     = 0.20
	weightRecency    = 0.15
)

// fanoutMultiplier caps how many candidates each strategy may contribute
// before ranking.
const fanoutMultiplier = 3

// rank scores and orders the merged candidate set, tie-breaking by
// created_at desc, then id, for determinism.
func rank(candidates []*types.Memory, promptKeywords, promptEntities []string, at time.Time) []RankedMemory {
	kwSet := tokenSet(promptKeywords)
	entSet := tokenSet(promptEntities)

	ranked := make([]RankedMemory, len(candidates))
	for i, m := range candidates {
		breakdown := ScoreBreakdown{
			DecayedImportance: m.DecayedImportance(at),
			KeywordOverlap:    keywordOverlap(m.Content, kwSet),
			EntityOverlap:     entityOverlap(m.Entities, entSet),
			RecencyBoost:      recencyBoost(m.AccessedAt, at),
		}
		score := weightImportance*breakdown.DecayedImportance +
			weightKeyword*breakdown.KeywordOverlap +
			weightEntity*breakdown.EntityOverlap +
			weightRecency*breakdown.RecencyBoost

		ranked[i] = RankedMemory{Memory: m, Score: score, Breakdown: breakdown}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		if !ranked[i].Memory.CreatedAt.Equal(ranked[j].Memory.CreatedAt) {
			return ranked[i].Memory.CreatedAt.After(ranked[j].Memory.CreatedAt)
		}
		return ranked[i].Memory.ID < ranked[j].Memory.ID
	})

	return ranked
}

// keywordOverlap is the fraction of prompt keywords found in the memory's
// content, case-insensitive substring match.
func keywordOverlap(content string, kwSet map[string]bool) float64 {
	if len(kwSet) == 0 {
		return 0
	}
	lower := strings.ToLower(content)
	var hits int
	for kw := range kwSet {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	return float64(hits) / float64(len(kwSet))
}

// entityOverlap is the fraction of prompt entities also present among the
// memory's recorded entities.
func entityOverlap(memoryEntities []string, entSet map[string]bool) float64 {
	if len(entSet) == 0 {
		return 0
	}
	memSet := tokenSet(memoryEntities)
	var hits int
	for e := range entSet {
		if memSet[e] {
			hits++
		}
	}
	return float64(hits) / float64(len(entSet))
}

// recencyBoost decays linearly to 0 over 7 days since last access, matching
// the 7-day window the Temporal strategy itself uses.
func recencyBoost(accessedAt, at time.Time) float64 {
	const window = 7 * 24 * time.Hour
	age := at.Sub(accessedAt)
	if age <= 0 {
		return 1
	}
	if age >= window {
		return 0
	}
	return 1 - float64(age)/float64(window)
}

func confidenceOf(ranked []RankedMemory, topK int) float64 {
	if len(ranked) == 0 {
		return 0
	}
	if topK > len(ranked) {
		topK = len(ranked)
	}
	var sum float64
	for i := 0; i < topK; i++ {
		sum += ranked[i].Score
	}
	avg := sum / float64(topK)
	if avg > 1 {
		avg = 1
	}
	if avg < 0 {
		avg = 0
	}
	return avg
}
