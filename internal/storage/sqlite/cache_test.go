package sqlite

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kuzu-memory/kuzu-memory/pkg/types"
)

func TestIntersectsDetectsSharedKey(t *testing.T) {
	a := map[types.MemoryType]bool{types.MemoryTypeDecision: true, types.MemoryTypeContext: true}
	b := map[types.MemoryType]bool{types.MemoryTypeStatus: true, types.MemoryTypeContext: true}
	require.True(t, intersects(a, b))
}

func TestIntersectsFalseOnDisjointOrEmpty(t *testing.T) {
	a := map[types.MemoryType]bool{types.MemoryTypeDecision: true}
	b := map[types.MemoryType]bool{types.MemoryTypeStatus: true}
	require.False(t, intersects(a, b))
	require.False(t, intersects(map[types.MemoryType]bool{}, b))
	require.False(t, intersects(a, nil))
}

func TestInvalidateCacheRemovesOnlyIntersectingEntries(t *testing.T) {
	s := newTestStore(t)

	s.cacheResult("sig-decision", nil, map[types.MemoryType]bool{types.MemoryTypeDecision: true}, nil)
	s.cacheResult("sig-status", nil, map[types.MemoryType]bool{types.MemoryTypeStatus: true}, nil)

	s.invalidateCache(map[types.MemoryType]bool{types.MemoryTypeDecision: true}, nil)

	_, stillCached := s.cache.Peek("sig-status")
	require.True(t, stillCached)
	_, removed := s.cache.Peek("sig-decision")
	require.False(t, removed)
}
