package types_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/kuzu-memory/kuzu-memory/pkg/types"
)

func TestMemoryIsValid(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.True(t, (&types.Memory{ValidTo: nil}).IsValid(now))
	assert.True(t, (&types.Memory{ValidTo: &future}).IsValid(now))
	assert.False(t, (&types.Memory{ValidTo: &past}).IsValid(now))
}

func TestMemoryDecayedImportanceMonotonicallyNonIncreasing(t *testing.T) {
	created := time.Now().Add(-30 * 24 * time.Hour)
	m := types.Memory{
		MemoryType: types.MemoryTypeStatus,
		Importance: 0.9,
		CreatedAt:  created,
	}

	prev := m.DecayedImportance(created)
	for days := 1; days <= 30; days++ {
		cur := m.DecayedImportance(created.Add(time.Duration(days) * 24 * time.Hour))
		assert.LessOrEqual(t, cur, prev+1e-9, "decayed importance must not increase at day %d", days)
		prev = cur
	}
}

func TestDecayNeverMemoryTypesDoNotDecay(t *testing.T) {
	created := time.Now().Add(-365 * 24 * time.Hour)
	m := types.Memory{MemoryType: types.MemoryTypeIdentity, Importance: 0.7, CreatedAt: created}
	assert.InDelta(t, 0.7, m.DecayedImportance(time.Now()), 1e-9)
}
