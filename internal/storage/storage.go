// Package storage defines the graph-schema storage contract for
// KuzuMemory: CRUD for Memory/Entity nodes and MENTIONS/RELATES_TO
// edges, with user-id filtering, dedup-on-insert, and the batching/caching
// discipline a conforming backend must uphold.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/kuzu-memory/kuzu-memory/pkg/types"
)

// Sentinel errors returned by Store implementations.
var (
	// ErrNotFound indicates the requested memory or entity does not exist.
	ErrNotFound = errors.New("storage: not found")
	// ErrInvalidInput indicates malformed or missing required fields.
	ErrInvalidInput = errors.New("storage: invalid input")
	// ErrSchemaMismatch indicates the on-disk schema_version does not match
	// what this binary expects. Fatal at open; no silent upgrade.
	ErrSchemaMismatch = errors.New("storage: schema version mismatch")
)

// Filters narrows query results beyond the strategy-specific predicate.
// Zero values mean "no filter on this field".
type Filters struct {
	UserID      string
	MemoryType  types.MemoryType
	SessionID   string
	AgentID     string
	ValidOnly   bool // default true at the call sites that matter
}

// Store is the storage-layer contract. All write operations are
// idempotent on content_hash collisions: PutMemory on a duplicate collapses
// to a touch and returns the existing id.
type Store interface {
	// PutMemory inserts a new memory or, on content_hash collision, bumps
	// access_count/accessed_at on the existing row and returns its id.
	// m.Entities carries surface names only; the storage layer has no entity
	// typing of its own, so callers that need MENTIONS edges written call
	// PutEntity/PutMention afterward with the types their extractor assigned.
	PutMemory(ctx context.Context, m *types.Memory) (string, error)

	// PutMemories writes a batch of memories produced by a single extraction
	// call in one transaction: a failure mid-batch rolls back the entire
	// batch.
	PutMemories(ctx context.Context, ms []*types.Memory) ([]string, error)

	// Touch bumps access_count and accessed_at for the given ids. Callers
	// that serve many touches per logical operation (e.g. recall) should
	// batch them into one call rather than one call per id.
	Touch(ctx context.Context, ids []string, at time.Time) error

	// Get retrieves a memory by id. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*types.Memory, error)

	// Update applies a partial update to an existing memory.
	Update(ctx context.Context, id string, partial Partial) (*types.Memory, error)

	// Invalidate sets valid_to = at on the given memory.
	Invalidate(ctx context.Context, id string, at time.Time) error

	// Delete physically removes a memory and its edges. The natural
	// lifecycle is soft-invalidation via Invalidate; Delete is the explicit
	// prune operation.
	Delete(ctx context.Context, id string) (bool, error)

	// QueryByKeywords returns valid (unless filters.ValidOnly is false)
	// memories whose content contains any of kws, most-relevant first.
	QueryByKeywords(ctx context.Context, kws []string, limit int, filters Filters) ([]*types.Memory, error)

	// QueryByEntities returns memories MENTIONS-joined to any of the named
	// entities.
	QueryByEntities(ctx context.Context, names []string, limit int, filters Filters) ([]*types.Memory, error)

	// QueryRecent returns memories created after since, most-recent first.
	QueryRecent(ctx context.Context, since time.Time, limit int, filters Filters) ([]*types.Memory, error)

	// DistinctUsers returns every distinct non-null user_id on record.
	DistinctUsers(ctx context.Context) ([]string, error)

	// MemoriesByUser returns up to limit memories for a given user_id,
	// most-recent first.
	MemoriesByUser(ctx context.Context, user string, limit int) ([]*types.Memory, error)

	// PutEntity upserts an entity by (name, entity_type), bumping
	// mention_count/last_seen. Returns the entity's id.
	PutEntity(ctx context.Context, e *types.Entity) (string, error)

	// PutMention records a MENTIONS edge. Both endpoints must already
	// exist.
	PutMention(ctx context.Context, m types.Mention) error

	// PutRelation records a RELATES_TO edge between two memories.
	PutRelation(ctx context.Context, r types.Relation) error

	// Stats reports storage-level counters.
	Stats(ctx context.Context) (Stats, error)

	// DBSizeBytes reports the on-disk size of the database file(s).
	DBSizeBytes(ctx context.Context) (int64, error)

	// UpdateDecayScores is a no-op placeholder hook for administrative
	// maintenance; KuzuMemory computes decay on read, so this
	// simply reports how many currently-valid memories exist.
	UpdateDecayScores(ctx context.Context) (int, error)

	// Close releases the underlying database handle.
	Close() error
}

// Partial carries the subset of Memory fields an Update call intends to
// change; nil pointers mean "leave unchanged".
type Partial struct {
	Content    *string
	Importance *float64
	Confidence *float64
	ValidTo    **time.Time
	Metadata   map[string]interface{}
}

// Stats reports storage-level counters.
type Stats struct {
	TotalMemories  int
	ValidMemories  int
	TotalEntities  int
	DistinctUsers  int
	OldestMemory   *time.Time
	NewestMemory   *time.Time
}
