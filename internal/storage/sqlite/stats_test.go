package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kuzu-memory/kuzu-memory/pkg/types"
)

func TestStatsCountsMemoriesEntitiesAndUsers(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	alice := "alice"
	_, err := s.PutMemory(ctx, &types.Memory{Content: "alice note", MemoryType: types.MemoryTypeContext, UserID: &alice})
	require.NoError(t, err)

	expiredID, err := s.PutMemory(ctx, &types.Memory{Content: "expired note", MemoryType: types.MemoryTypeContext})
	require.NoError(t, err)
	require.NoError(t, s.Invalidate(ctx, expiredID, time.Now().Add(-time.Hour)))

	_, err = s.PutEntity(ctx, &types.Entity{Name: "kuzu-memory", EntityType: types.EntityTypeProject})
	require.NoError(t, err)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, stats.TotalMemories)
	require.Equal(t, 1, stats.ValidMemories)
	require.Equal(t, 1, stats.TotalEntities)
	require.Equal(t, 1, stats.DistinctUsers)
	require.NotNil(t, stats.OldestMemory)
	require.NotNil(t, stats.NewestMemory)
}

func TestDBSizeBytesReportsPositiveSizeForOnDiskStore(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.PutMemory(ctx, &types.Memory{Content: "some content to grow the file", MemoryType: types.MemoryTypeContext})
	require.NoError(t, err)

	size, err := s.DBSizeBytes(ctx)
	require.NoError(t, err)
	require.Greater(t, size, int64(0))
}

func TestUpdateDecayScoresCountsCurrentlyValidMemories(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.PutMemory(ctx, &types.Memory{Content: "valid one", MemoryType: types.MemoryTypeContext})
	require.NoError(t, err)
	expiredID, err := s.PutMemory(ctx, &types.Memory{Content: "valid two but expiring", MemoryType: types.MemoryTypeContext})
	require.NoError(t, err)
	require.NoError(t, s.Invalidate(ctx, expiredID, time.Now().Add(-time.Minute)))

	n, err := s.UpdateDecayScores(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)
}
