package recall

import (
	"context"
	"log"
	"time"

	"github.com/kuzu-memory/kuzu-memory/internal/extract"
	"github.com/kuzu-memory/kuzu-memory/internal/storage"
	"github.com/kuzu-memory/kuzu-memory/pkg/types"
)

// Engine executes recall strategies against a storage.Store: strategy
// dispatch plus a weighted scoring overlay on top of the store's query
// results.
type Engine struct {
	store storage.Store
}

// New constructs a recall Engine over store.
func New(store storage.Store) *Engine {
	return &Engine{store: store}
}

// Recall selects up to limit relevant, currently-valid memories for prompt,
// ranks them, and assembles a Context. On any storage
// error it falls back to the original prompt and an empty memory list,
// logging but never raising.
func (e *Engine) Recall(ctx context.Context, prompt string, limit int, strategy Strategy, filters storage.Filters) (*Context, error) {
	if limit <= 0 {
		limit = 10
	}
	filters.ValidOnly = true

	candidates, err := e.runStrategy(ctx, prompt, strategy, limit, filters)
	if err != nil {
		log.Printf("recall: strategy %s failed, falling back to bare prompt: %v", strategy, err)
		return &Context{Prompt: prompt, EnhancedPrompt: prompt, StrategyUsed: strategy}, nil
	}

	if len(candidates) == 0 {
		return &Context{Prompt: prompt, EnhancedPrompt: prompt, StrategyUsed: strategy}, nil
	}

	promptKeywords := keywordsOf(prompt)
	promptEntities := extract.RecognizeEntityNames(prompt)

	now := time.Now()
	ranked := rank(dedupeByID(candidates), promptKeywords, promptEntities, now)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	memories := make([]*types.Memory, len(ranked))
	ids := make([]string, len(ranked))
	for i, r := range ranked {
		memories[i] = r.Memory
		ids[i] = r.Memory.ID
	}

	// Batched touch-coalescing: one Touch call per Recall, not one per
	// memory.
	if err := e.store.Touch(ctx, ids, now); err != nil {
		log.Printf("recall: touch after recall failed (non-fatal): %v", err)
	}

	return &Context{
		Prompt:         prompt,
		EnhancedPrompt: buildEnhancedPrompt(prompt, memories),
		Memories:       memories,
		Confidence:     confidenceOf(ranked, len(ranked)),
		StrategyUsed:   strategy,
	}, nil
}

// runStrategy fans out to at most fanoutMultiplier*limit candidates per
// sub-strategy before ranking trims to limit.
func (e *Engine) runStrategy(ctx context.Context, prompt string, strategy Strategy, limit int, filters storage.Filters) ([]*types.Memory, error) {
	fanout := limit * fanoutMultiplier

	switch strategy {
	case StrategyKeyword:
		return e.keywordCandidates(ctx, prompt, fanout, filters)
	case StrategyEntity:
		return e.entityCandidates(ctx, prompt, fanout, filters)
	case StrategyTemporal:
		return e.temporalCandidates(ctx, prompt, fanout, filters)
	case StrategyHybrid, "":
		return e.hybridCandidates(ctx, prompt, fanout, filters)
	default:
		return e.hybridCandidates(ctx, prompt, fanout, filters)
	}
}

func (e *Engine) keywordCandidates(ctx context.Context, prompt string, fanout int, filters storage.Filters) ([]*types.Memory, error) {
	kws := keywordsOf(prompt)
	if len(kws) == 0 {
		return nil, nil
	}
	return e.store.QueryByKeywords(ctx, kws, fanout, filters)
}

func (e *Engine) entityCandidates(ctx context.Context, prompt string, fanout int, filters storage.Filters) ([]*types.Memory, error) {
	names := extract.RecognizeEntityNames(prompt)
	if len(names) == 0 {
		return nil, nil
	}
	return e.store.QueryByEntities(ctx, names, fanout, filters)
}

func (e *Engine) temporalCandidates(ctx context.Context, prompt string, fanout int, filters storage.Filters) ([]*types.Memory, error) {
	if !hasTemporalMarker(prompt) {
		return nil, nil
	}
	since := time.Now().Add(-7 * 24 * time.Hour)
	return e.store.QueryRecent(ctx, since, fanout, filters)
}

// hybridCandidates runs keyword + entity + temporal sequentially on the
// calling goroutine and merges their results for dedup/ranking downstream.
func (e *Engine) hybridCandidates(ctx context.Context, prompt string, fanout int, filters storage.Filters) ([]*types.Memory, error) {
	var merged []*types.Memory

	kw, err := e.keywordCandidates(ctx, prompt, fanout, filters)
	if err != nil {
		return nil, err
	}
	merged = append(merged, kw...)

	ent, err := e.entityCandidates(ctx, prompt, fanout, filters)
	if err != nil {
		return nil, err
	}
	merged = append(merged, ent...)

	temp, err := e.temporalCandidates(ctx, prompt, fanout, filters)
	if err != nil {
		return nil, err
	}
	merged = append(merged, temp...)

	return merged, nil
}

func dedupeByID(memories []*types.Memory) []*types.Memory {
	seen := make(map[string]bool, len(memories))
	out := make([]*types.Memory, 0, len(memories))
	for _, m := range memories {
		if seen[m.ID] {
			continue
		}
		seen[m.ID] = true
		out = append(out, m)
	}
	return out
}
