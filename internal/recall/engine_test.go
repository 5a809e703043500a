package recall

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kuzu-memory/kuzu-memory/internal/storage"
	"github.com/kuzu-memory/kuzu-memory/internal/storage/sqlite"
	"github.com/kuzu-memory/kuzu-memory/pkg/types"
)

func newTestEngine(t *testing.T) (*Engine, *sqlite.Store) {
	t.Helper()
	s, err := sqlite.Open(filepath.Join(t.TempDir(), "kuzu-memory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s), s
}

func TestRecallEmptyStoreReturnsPromptUnchanged(t *testing.T) {
	e, _ := newTestEngine(t)
	ctx, err := e.Recall(context.Background(), "what database do we use?", 5, StrategyHybrid, storage.Filters{})
	require.NoError(t, err)
	require.Equal(t, "what database do we use?", ctx.EnhancedPrompt)
	require.Empty(t, ctx.Memories)
}

func TestRecallKeywordStrategyRanksCorrectionAboveOlderDecision(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	_, err := s.PutMemory(ctx, &types.Memory{Content: "we decided to use mysql for storage", MemoryType: types.MemoryTypeDecision, Importance: 0.6})
	require.NoError(t, err)
	_, err = s.PutMemory(ctx, &types.Memory{Content: "correction: we actually use postgres for storage", MemoryType: types.MemoryTypeContext, Importance: 0.8})
	require.NoError(t, err)

	got, err := e.Recall(ctx, "which database do we use?", 5, StrategyKeyword, storage.Filters{})
	require.NoError(t, err)
	require.NotEmpty(t, got.Memories)
	require.Contains(t, got.Memories[0].Content, "postgres")
}

func TestRecallEnhancedPromptFormat(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	_, err := s.PutMemory(ctx, &types.Memory{Content: "uses a branching strategy of trunk-based development", MemoryType: types.MemoryTypePattern, Importance: 0.7})
	require.NoError(t, err)

	got, err := e.Recall(ctx, "what is the branching strategy?", 5, StrategyKeyword, storage.Filters{})
	require.NoError(t, err)
	require.NotEmpty(t, got.Memories)
	require.Equal(t, "## Relevant Context:\n- uses a branching strategy of trunk-based development\n\nwhat is the branching strategy?", got.EnhancedPrompt)
}

func TestRecallTemporalStrategyRequiresMarker(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	_, err := s.PutMemory(ctx, &types.Memory{Content: "this memory was just created", MemoryType: types.MemoryTypeContext})
	require.NoError(t, err)

	noMarker, err := e.Recall(ctx, "what do we know?", 5, StrategyTemporal, storage.Filters{})
	require.NoError(t, err)
	require.Empty(t, noMarker.Memories)

	withMarker, err := e.Recall(ctx, "what happened recently?", 5, StrategyTemporal, storage.Filters{})
	require.NoError(t, err)
	require.NotEmpty(t, withMarker.Memories)
}

func TestRecallEntityStrategyUsesMentions(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	memID, err := s.PutMemory(ctx, &types.Memory{Content: "deployed via kubernetes", MemoryType: types.MemoryTypeContext})
	require.NoError(t, err)
	entID, err := s.PutEntity(ctx, &types.Entity{Name: "Kubernetes", EntityType: types.EntityTypeTechnology})
	require.NoError(t, err)
	require.NoError(t, s.PutMention(ctx, types.Mention{MemoryID: memID, EntityID: entID, Confidence: 0.9}))

	got, err := e.Recall(ctx, "how do we run Kubernetes?", 5, StrategyEntity, storage.Filters{})
	require.NoError(t, err)
	require.NotEmpty(t, got.Memories)
}

func TestRecallBatchesTouchAcrossResults(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	id1, err := s.PutMemory(ctx, &types.Memory{Content: "deployment runs nightly", MemoryType: types.MemoryTypeContext})
	require.NoError(t, err)
	id2, err := s.PutMemory(ctx, &types.Memory{Content: "deployment uses blue-green", MemoryType: types.MemoryTypeContext})
	require.NoError(t, err)

	_, err = e.Recall(ctx, "how does deployment work?", 5, StrategyKeyword, storage.Filters{})
	require.NoError(t, err)

	m1, err := s.Get(ctx, id1)
	require.NoError(t, err)
	m2, err := s.Get(ctx, id2)
	require.NoError(t, err)
	require.Equal(t, 1, m1.AccessCount)
	require.Equal(t, 1, m2.AccessCount)
}

func TestRecallOnlyReturnsValidMemories(t *testing.T) {
	e, s := newTestEngine(t)
	ctx := context.Background()

	id, err := s.PutMemory(ctx, &types.Memory{Content: "temporary status note", MemoryType: types.MemoryTypeStatus})
	require.NoError(t, err)
	require.NoError(t, s.Invalidate(ctx, id, time.Now().Add(-time.Minute)))

	got, err := e.Recall(ctx, "what is the status note?", 5, StrategyKeyword, storage.Filters{})
	require.NoError(t, err)
	require.Empty(t, got.Memories, "an invalidated memory must not be recalled")
}
