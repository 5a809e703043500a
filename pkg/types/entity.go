package types

import "time"

// EntityType classifies an Entity's surface form.
type EntityType string

const (
	EntityTypeProject    EntityType = "project"
	EntityTypePerson     EntityType = "person"
	EntityTypeTechnology EntityType = "technology"
	EntityTypeFile       EntityType = "file"
	EntityTypeURL        EntityType = "url"
	EntityTypeEmail      EntityType = "email"
	EntityTypeVersion    EntityType = "version"
	EntityTypeDate       EntityType = "date"
	EntityTypeOther      EntityType = "other"
)

// Entity is a coarse reference-graph node: a named thing mentioned by one or
// more memories (a person, project, technology, file, ...).
type Entity struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"` // surface form, case-preserved
	EntityType   EntityType `json:"entity_type"`
	FirstSeen    time.Time  `json:"first_seen"`
	LastSeen     time.Time  `json:"last_seen"`
	MentionCount int        `json:"mention_count"`
}

// Mention is a MENTIONS edge: Memory → Entity, with the extractor's
// confidence that the entity was actually referenced.
type Mention struct {
	MemoryID   string  `json:"memory_id"`
	EntityID   string  `json:"entity_id"`
	Confidence float64 `json:"confidence"`
}

// Relation is a RELATES_TO edge: Memory → Memory, tagged with a relationship
// kind (e.g. "supersedes", "refines").
type Relation struct {
	FromMemoryID string    `json:"from_memory_id"`
	ToMemoryID   string    `json:"to_memory_id"`
	Kind         string    `json:"kind"`
	CreatedAt    time.Time `json:"created_at"`
}

// Relation kinds used by memory lifecycle rules.
const (
	RelationSupersedes = "supersedes"
	RelationRefines    = "refines"
)
