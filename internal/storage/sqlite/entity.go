package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/kuzu-memory/kuzu-memory/internal/storage"
	"github.com/kuzu-memory/kuzu-memory/pkg/types"
)

// PutEntity upserts an entity by (name, entity_type), bumping
// mention_count/last_seen on collision.
func (s *Store) PutEntity(ctx context.Context, e *types.Entity) (string, error) {
	now := time.Now()
	if e.FirstSeen.IsZero() {
		e.FirstSeen = now
	}
	if e.LastSeen.IsZero() {
		e.LastSeen = now
	}

	var existingID string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM entities WHERE name = ? AND entity_type = ?`, e.Name, string(e.EntityType),
	).Scan(&existingID)

	switch {
	case err == nil:
		if _, execErr := s.db.ExecContext(ctx,
			`UPDATE entities SET last_seen = ?, mention_count = mention_count + 1 WHERE id = ?`,
			now, existingID); execErr != nil {
			return "", fmt.Errorf("sqlite: bump entity: %w", execErr)
		}
		return existingID, nil
	case err != sql.ErrNoRows:
		return "", fmt.Errorf("sqlite: lookup entity: %w", err)
	}

	if e.ID == "" {
		e.ID = newID("ent")
	}
	_, execErr := s.db.ExecContext(ctx, `
		INSERT INTO entities (id, name, entity_type, first_seen, last_seen, mention_count)
		VALUES (?, ?, ?, ?, ?, 1)`,
		e.ID, e.Name, string(e.EntityType), e.FirstSeen, e.LastSeen)
	if execErr != nil {
		return "", fmt.Errorf("sqlite: insert entity: %w", execErr)
	}
	return e.ID, nil
}

// PutMention records a MENTIONS edge. Both endpoints must already exist;
// dangling edges are forbidden, enforced here by the foreign key
// constraints declared in schema.go.
func (s *Store) PutMention(ctx context.Context, m types.Mention) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO mentions (memory_id, entity_id, confidence) VALUES (?, ?, ?)
		ON CONFLICT (memory_id, entity_id) DO UPDATE SET confidence = excluded.confidence`,
		m.MemoryID, m.EntityID, m.Confidence)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}
	return nil
}

// PutRelation records a RELATES_TO edge between two memories.
func (s *Store) PutRelation(ctx context.Context, r types.Relation) error {
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO relates_to (from_memory_id, to_memory_id, kind, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (from_memory_id, to_memory_id, kind) DO NOTHING`,
		r.FromMemoryID, r.ToMemoryID, r.Kind, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("%w: %v", storage.ErrInvalidInput, err)
	}
	return nil
}
