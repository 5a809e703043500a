package types

import (
	"math"
	"time"
)

// RetentionPolicy is the pure function of MemoryType → default validity
// window and decay rate, expressed as a static lookup table instead of a
// switch over MemoryType.
type RetentionPolicy struct {
	// TTL is the default offset applied to ValidFrom to produce ValidTo at
	// creation time when the caller did not supply one. Zero means "never
	// expires".
	TTL DurationDays
	// DecayPerDay is the exponential decay rate used by DecayedImportance.
	DecayPerDay float64
}

// DurationDays avoids pulling time.Duration arithmetic into the policy table
// itself; Days() returns the TTL as a float64 count of days, which
// DefaultValidTo converts to a time.Duration.
type DurationDays float64

// Days returns the policy TTL in days; zero means "never expires".
func (d DurationDays) Days() float64 { return float64(d) }

// RetentionPolicies is the default retention table, keyed by memory type.
var RetentionPolicies = map[MemoryType]RetentionPolicy{
	MemoryTypeIdentity:   {TTL: 0, DecayPerDay: 0.00},
	MemoryTypeSemantic:   {TTL: 0, DecayPerDay: 0.00},
	MemoryTypePreference: {TTL: 0, DecayPerDay: 0.005},
	MemoryTypeDecision:   {TTL: 365, DecayPerDay: 0.01},
	MemoryTypePattern:    {TTL: 180, DecayPerDay: 0.01},
	MemoryTypeProcedural: {TTL: 180, DecayPerDay: 0.01},
	MemoryTypeSolution:   {TTL: 180, DecayPerDay: 0.01},
	MemoryTypeEpisodic:   {TTL: 30, DecayPerDay: 0.02},
	MemoryTypeContext:    {TTL: 7, DecayPerDay: 0.05},
	MemoryTypeStatus:     {TTL: 1, DecayPerDay: 0.2},
}

var defaultRetentionPolicy = RetentionPolicy{TTL: 0, DecayPerDay: 0.01}

// DefaultValidTo returns the ValidTo timestamp implied by this policy's TTL
// for a memory whose validity window begins at validFrom. A zero TTL means
// the memory never expires, in which case DefaultValidTo returns nil.
func (p RetentionPolicy) DefaultValidTo(validFrom time.Time) *time.Time {
	if p.TTL == 0 {
		return nil
	}
	t := validFrom.Add(time.Duration(p.TTL.Days()*24) * time.Hour)
	return &t
}

// PolicyFor returns the retention policy for a memory type, falling back to
// defaultRetentionPolicy for unrecognized types.
func PolicyFor(t MemoryType) RetentionPolicy {
	if p, ok := RetentionPolicies[t]; ok {
		return p
	}
	return defaultRetentionPolicy
}

// decayFactor computes exp(-k*age_days), clamped to [0,1].
func decayFactor(decayPerDay, ageDays float64) float64 {
	f := math.Exp(-decayPerDay * ageDays)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
