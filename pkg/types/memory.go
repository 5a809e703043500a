// Package types defines the core data model shared across KuzuMemory's
// storage, extraction, and recall layers: typed memories, entities, and the
// graph edges that connect them.
package types

import "time"

// MemoryType tags a Memory with its semantic category. The type drives the
// default retention policy (see RetentionPolicies) and the extraction
// pattern groups that can produce it.
type MemoryType string

const (
	MemoryTypeIdentity   MemoryType = "identity"
	MemoryTypePreference MemoryType = "preference"
	MemoryTypeDecision   MemoryType = "decision"
	MemoryTypePattern    MemoryType = "pattern"
	MemoryTypeSolution   MemoryType = "solution"
	MemoryTypeStatus     MemoryType = "status"
	MemoryTypeContext    MemoryType = "context"
	MemoryTypeEpisodic   MemoryType = "episodic"
	MemoryTypeSemantic   MemoryType = "semantic"
	MemoryTypeProcedural MemoryType = "procedural"
)

// Memory is the atomic unit of storage: a typed fact, preference, or
// decision extracted from source text, with a temporal validity window and
// usage-tracking fields used by decay and ranking.
type Memory struct {
	ID          string     `json:"id"`
	Content     string     `json:"content"`
	ContentHash string     `json:"content_hash"` // SHA-256 of normalized content; unique index

	MemoryType MemoryType `json:"memory_type"`
	Importance float64    `json:"importance"` // [0,1]
	Confidence float64    `json:"confidence"` // [0,1]

	CreatedAt  time.Time  `json:"created_at"`
	ValidFrom  time.Time  `json:"valid_from"`
	ValidTo    *time.Time `json:"valid_to,omitempty"` // nil == never expires
	AccessedAt time.Time  `json:"accessed_at"`
	AccessCount int       `json:"access_count"`

	SourceType string  `json:"source_type,omitempty"` // "conversation", "git-commit", "hook", ...
	UserID     *string `json:"user_id,omitempty"`
	SessionID  *string `json:"session_id,omitempty"`
	AgentID    *string `json:"agent_id,omitempty"`

	Entities []string               `json:"entities,omitempty"` // surface strings mentioned
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// IsValid reports whether the memory is currently valid: ValidTo is nil,
// or strictly in the future relative to at.
func (m *Memory) IsValid(at time.Time) bool {
	return m.ValidTo == nil || m.ValidTo.After(at)
}

// DecayedImportance returns the memory's importance decayed per the
// retention policy for its type, evaluated at `at`:
// importance * exp(-decay_per_day * age_days). Decay is computed on read
// and never written back.
func (m *Memory) DecayedImportance(at time.Time) float64 {
	policy, ok := RetentionPolicies[m.MemoryType]
	if !ok {
		policy = defaultRetentionPolicy
	}
	ageDays := at.Sub(m.CreatedAt).Hours() / 24.0
	if ageDays < 0 {
		ageDays = 0
	}
	return m.Importance * decayFactor(policy.DecayPerDay, ageDays)
}
