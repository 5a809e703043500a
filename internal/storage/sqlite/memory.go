package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/kuzu-memory/kuzu-memory/internal/storage"
	"github.com/kuzu-memory/kuzu-memory/pkg/types"
)

const memoryColumns = `id, content, content_hash, memory_type, importance, confidence,
	created_at, valid_from, valid_to, accessed_at, access_count,
	source_type, user_id, session_id, agent_id, metadata`

// PutMemory inserts a new memory or collapses onto an existing row with the
// same content_hash, bumping access_count/accessed_at.
func (s *Store) PutMemory(ctx context.Context, m *types.Memory) (string, error) {
	ids, err := s.PutMemories(ctx, []*types.Memory{m})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

// PutMemories writes a batch of memories in one transaction: a failure
// mid-batch rolls back the whole batch. MENTIONS edges are not written
// here; callers add them afterwards with PutEntity/PutMention, outside this
// transaction.
func (s *Store) PutMemories(ctx context.Context, ms []*types.Memory) ([]string, error) {
	if len(ms) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ids := make([]string, len(ms))
	affectedTypes := make(map[types.MemoryType]bool)
	affectedEntities := make(map[string]bool)

	for i, m := range ms {
		if m == nil || m.Content == "" {
			return nil, fmt.Errorf("%w: memory content is required", storage.ErrInvalidInput)
		}

		hash := contentHash(m.Content)
		now := time.Now()

		var existingID string
		err := tx.QueryRowContext(ctx, `SELECT id FROM memories WHERE content_hash = ?`, hash).Scan(&existingID)
		switch {
		case err == nil:
			if _, execErr := tx.ExecContext(ctx,
				`UPDATE memories SET access_count = access_count + 1, accessed_at = ? WHERE id = ?`,
				now, existingID); execErr != nil {
				return nil, fmt.Errorf("sqlite: touch on dedup: %w", execErr)
			}
			ids[i] = existingID
			affectedTypes[m.MemoryType] = true
			continue
		case err != sql.ErrNoRows:
			return nil, fmt.Errorf("sqlite: lookup content_hash: %w", err)
		}

		if m.ID == "" {
			m.ID = newID("mem")
		}
		if m.CreatedAt.IsZero() {
			m.CreatedAt = now
		}
		if m.ValidFrom.IsZero() {
			m.ValidFrom = m.CreatedAt
		}
		if m.AccessedAt.IsZero() {
			m.AccessedAt = m.CreatedAt
		}
		if m.ValidTo == nil {
			m.ValidTo = types.PolicyFor(m.MemoryType).DefaultValidTo(m.ValidFrom)
		}
		m.ContentHash = hash

		metaJSON, merr := marshalMetadata(m.Metadata)
		if merr != nil {
			return nil, merr
		}

		_, execErr := tx.ExecContext(ctx, `
			INSERT INTO memories (
				id, content, content_hash, memory_type, importance, confidence,
				created_at, valid_from, valid_to, accessed_at, access_count,
				source_type, user_id, session_id, agent_id, metadata
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.Content, m.ContentHash, string(m.MemoryType), m.Importance, m.Confidence,
			m.CreatedAt, m.ValidFrom, nullableTime(m.ValidTo), m.AccessedAt, m.AccessCount,
			nullableString(m.SourceType), nullableStringPtr(m.UserID), nullableStringPtr(m.SessionID),
			nullableStringPtr(m.AgentID), metaJSON)
		if execErr != nil {
			return nil, fmt.Errorf("sqlite: insert memory: %w", execErr)
		}

		ids[i] = m.ID
		affectedTypes[m.MemoryType] = true
		for _, name := range m.Entities {
			affectedEntities[name] = true
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("sqlite: commit: %w", err)
	}

	s.invalidateCache(affectedTypes, affectedEntities)
	return ids, nil
}

// Touch bumps access_count and accessed_at for the given ids in one
// statement rather than one UPDATE per id.
func (s *Store) Touch(ctx context.Context, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders, args := inClause(ids)
	args = append([]interface{}{at}, args...)
	query := fmt.Sprintf(`UPDATE memories SET access_count = access_count + 1, accessed_at = ? WHERE id IN (%s)`, placeholders)
	_, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: touch: %w", err)
	}
	return nil
}

// Get retrieves a memory by id.
func (s *Store) Get(ctx context.Context, id string) (*types.Memory, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+memoryColumns+` FROM memories WHERE id = ?`, id)
	m, err := scanMemory(row)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: get: %w", err)
	}
	return m, nil
}

// Update applies a partial update to an existing memory.
func (s *Store) Update(ctx context.Context, id string, partial storage.Partial) (*types.Memory, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if partial.Content != nil {
		existing.Content = *partial.Content
		existing.ContentHash = contentHash(*partial.Content)
	}
	if partial.Importance != nil {
		existing.Importance = *partial.Importance
	}
	if partial.Confidence != nil {
		existing.Confidence = *partial.Confidence
	}
	if partial.ValidTo != nil {
		existing.ValidTo = *partial.ValidTo
	}
	if partial.Metadata != nil {
		existing.Metadata = partial.Metadata
	}

	metaJSON, merr := marshalMetadata(existing.Metadata)
	if merr != nil {
		return nil, merr
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE memories SET content = ?, content_hash = ?, importance = ?, confidence = ?,
			valid_to = ?, metadata = ? WHERE id = ?`,
		existing.Content, existing.ContentHash, existing.Importance, existing.Confidence,
		nullableTime(existing.ValidTo), metaJSON, id)
	if err != nil {
		return nil, fmt.Errorf("sqlite: update: %w", err)
	}

	s.invalidateCache(map[types.MemoryType]bool{existing.MemoryType: true}, nil)
	return existing, nil
}

// Invalidate sets valid_to = at on the given memory (soft invalidation).
func (s *Store) Invalidate(ctx context.Context, id string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `UPDATE memories SET valid_to = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("sqlite: invalidate: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return storage.ErrNotFound
	}
	s.cache.Purge()
	return nil
}

// Delete physically removes a memory and its edges.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("sqlite: delete: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		s.cache.Purge()
	}
	return n > 0, nil
}

// rowScanner abstracts over *sql.Row and *sql.Rows so scanMemory can serve
// both Get (single row) and the multi-row query paths.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMemory(row rowScanner) (*types.Memory, error) {
	var (
		m                                    types.Memory
		memoryType                           string
		validTo                              sql.NullTime
		sourceType, userID, sessionID        sql.NullString
		agentID                              sql.NullString
		metaJSON                             sql.NullString
	)

	if err := row.Scan(
		&m.ID, &m.Content, &m.ContentHash, &memoryType, &m.Importance, &m.Confidence,
		&m.CreatedAt, &m.ValidFrom, &validTo, &m.AccessedAt, &m.AccessCount,
		&sourceType, &userID, &sessionID, &agentID, &metaJSON,
	); err != nil {
		return nil, err
	}

	m.MemoryType = types.MemoryType(memoryType)
	if validTo.Valid {
		t := validTo.Time
		m.ValidTo = &t
	}
	m.SourceType = sourceType.String
	m.UserID = strPtr(userID)
	m.SessionID = strPtr(sessionID)
	m.AgentID = strPtr(agentID)

	meta, err := unmarshalMetadata(metaJSON)
	if err != nil {
		return nil, err
	}
	m.Metadata = meta

	return &m, nil
}

func nullableStringPtr(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func inClause(items []string) (string, []interface{}) {
	placeholders := make([]string, len(items))
	args := make([]interface{}, len(items))
	for i, item := range items {
		placeholders[i] = "?"
		args[i] = item
	}
	return strings.Join(placeholders, ", "), args
}
