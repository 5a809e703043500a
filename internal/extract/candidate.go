// Package extract converts raw text into typed memory candidates using a
// fixed regex pattern library and a heuristic entity recognizer — no LLM
// calls, no embeddings. Each extraction stage fails independently: a
// failing classifier pass never drops a pattern-matched candidate.
package extract

import "github.com/kuzu-memory/kuzu-memory/pkg/types"

// Candidate is a memory extracted from text, not yet written to storage.
type Candidate struct {
	Content        string
	ContentHash    string
	MemoryType     types.MemoryType
	Confidence     float64
	Importance     float64
	Entities       []string
	ExtractionMeta map[string]interface{}
}

// Hints carries caller-supplied context that nudges extraction (e.g. the
// target type a remember-directive should resolve to) without forcing it.
type Hints struct {
	// DefaultDirectiveType is the memory type a Remember-directive match
	// resolves to when the text gives no stronger signal. Context if unset.
	DefaultDirectiveType types.MemoryType
	SourceType           string
}

// Options tunes a single Extract call.
type Options struct {
	// SkipClassifier disables the refining classifier pass, returning raw
	// pattern-matched candidates.
	SkipClassifier bool
}
