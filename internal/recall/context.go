// Package recall implements the keyword/entity/temporal/hybrid recall
// strategies: ranking, context assembly, and the
// deterministic enhanced_prompt format.
package recall

import (
	"strings"

	"github.com/kuzu-memory/kuzu-memory/pkg/types"
)

// Strategy names a recall strategy.
type Strategy string

const (
	StrategyKeyword  Strategy = "keyword"
	StrategyEntity   Strategy = "entity"
	StrategyTemporal Strategy = "temporal"
	StrategyHybrid   Strategy = "hybrid"
)

// RankedMemory pairs a memory with its computed relevance score and the
// breakdown that produced it.
type RankedMemory struct {
	Memory *types.Memory
	Score  float64
	Breakdown ScoreBreakdown
}

// ScoreBreakdown is the per-factor decomposition of a RankedMemory's score.
type ScoreBreakdown struct {
	DecayedImportance float64
	KeywordOverlap    float64
	EntityOverlap     float64
	RecencyBoost      float64
}

// Context is the bundle returned by Recall.
type Context struct {
	Prompt         string
	EnhancedPrompt string
	Memories       []*types.Memory
	Confidence     float64
	StrategyUsed   Strategy
}

// buildEnhancedPrompt renders the deterministic enhanced-prompt format:
// a "## Relevant Context:" bullet list followed by a blank line and the
// original prompt. With no memories, the prompt passes through unchanged.
func buildEnhancedPrompt(prompt string, memories []*types.Memory) string {
	if len(memories) == 0 {
		return prompt
	}
	var b strings.Builder
	b.WriteString("## Relevant Context:\n")
	for _, m := range memories {
		b.WriteString("- ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(prompt)
	return b.String()
}
