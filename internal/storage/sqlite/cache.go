package sqlite

import "github.com/kuzu-memory/kuzu-memory/pkg/types"

// cacheResult stores a query result under sig, recording which memory types
// and entity names it involves so a later write can invalidate it
// selectively: a write touching a memory whose type or entities intersect
// the cached signature invalidates it.
func (s *Store) cacheResult(sig string, memories []*types.Memory, types_ map[types.MemoryType]bool, entities map[string]bool) {
	s.cache.Add(sig, cacheEntry{memories: memories, typesInvolved: types_, entitiesInvolved: entities})
}

// invalidateCache drops every cached signature whose recorded types or
// entities intersect the sets just written. A full LRU scan is acceptable
// at the bounded size (≤1000 entries) this cache is capped at.
func (s *Store) invalidateCache(writtenTypes map[types.MemoryType]bool, writtenEntities map[string]bool) {
	if len(writtenTypes) == 0 && len(writtenEntities) == 0 {
		return
	}
	for _, key := range s.cache.Keys() {
		entry, ok := s.cache.Peek(key)
		if !ok {
			continue
		}
		if intersects(entry.typesInvolved, writtenTypes) || intersects(entry.entitiesInvolved, writtenEntities) {
			s.cache.Remove(key)
		}
	}
}

func intersects[T comparable](a, b map[T]bool) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}
	for k := range small {
		if large[k] {
			return true
		}
	}
	return false
}
