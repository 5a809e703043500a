package sqlite

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kuzu-memory/kuzu-memory/internal/storage"
	"github.com/kuzu-memory/kuzu-memory/pkg/types"
)

// cacheSignature builds the query-result LRU key: strategy + normalized
// args + filter digest.
func cacheSignature(strategy string, args []string, filters storage.Filters, limit int) string {
	sorted := append([]string(nil), args...)
	sort.Strings(sorted)
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%s|%t|%d",
		strategy, strings.Join(sorted, ","), filters.UserID, filters.MemoryType,
		filters.SessionID, filters.AgentID, filters.ValidOnly, limit)
	return hex.EncodeToString(h.Sum(nil))
}

func validOnlyClause(alias string, validOnly bool, at time.Time) (string, []interface{}) {
	if !validOnly {
		return "", nil
	}
	return fmt.Sprintf("AND (%s.valid_to IS NULL OR %s.valid_to > ?)", alias, alias), []interface{}{at}
}

func filterClause(alias string, f storage.Filters) (string, []interface{}) {
	var clauses []string
	var args []interface{}
	if f.UserID != "" {
		clauses = append(clauses, fmt.Sprintf("%s.user_id = ?", alias))
		args = append(args, f.UserID)
	}
	if f.MemoryType != "" {
		clauses = append(clauses, fmt.Sprintf("%s.memory_type = ?", alias))
		args = append(args, string(f.MemoryType))
	}
	if f.SessionID != "" {
		clauses = append(clauses, fmt.Sprintf("%s.session_id = ?", alias))
		args = append(args, f.SessionID)
	}
	if f.AgentID != "" {
		clauses = append(clauses, fmt.Sprintf("%s.agent_id = ?", alias))
		args = append(args, f.AgentID)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return "AND " + strings.Join(clauses, " AND "), args
}

// QueryByKeywords implements the keyword recall strategy's storage query
//: Memory.content CONTAINS kw (valid-only by default), sorted by
// (importance, created_at desc).
func (s *Store) QueryByKeywords(ctx context.Context, kws []string, limit int, filters storage.Filters) ([]*types.Memory, error) {
	if len(kws) == 0 {
		return nil, nil
	}
	sig := cacheSignature("keyword", kws, filters, limit)
	if entry, ok := s.cache.Get(sig); ok {
		return entry.memories, nil
	}

	var likeClauses []string
	var args []interface{}
	for _, kw := range kws {
		likeClauses = append(likeClauses, "m.content LIKE ?")
		args = append(args, "%"+kw+"%")
	}

	validClause, validArgs := validOnlyClause("m", filters.ValidOnly, time.Now())
	filterSQL, filterArgs := filterClause("m", filters)

	query := fmt.Sprintf(`
		SELECT %s FROM memories m
		WHERE (%s) %s %s
		ORDER BY m.importance DESC, m.created_at DESC
		LIMIT ?`, prefixColumns("m", memoryColumns), strings.Join(likeClauses, " OR "), validClause, filterSQL)

	args = append(args, validArgs...)
	args = append(args, filterArgs...)
	args = append(args, limit)

	memories, err := s.queryMemories(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query by keywords: %w", err)
	}

	s.cacheResult(sig, memories, affectedTypesOf(memories), nil)
	return memories, nil
}

// QueryByEntities implements the entity recall strategy's storage query:
// memories MENTIONS-joined to any of the named entities.
func (s *Store) QueryByEntities(ctx context.Context, names []string, limit int, filters storage.Filters) ([]*types.Memory, error) {
	if len(names) == 0 {
		return nil, nil
	}
	sig := cacheSignature("entity", names, filters, limit)
	if entry, ok := s.cache.Get(sig); ok {
		return entry.memories, nil
	}

	placeholders, args := inClause(names)
	validClause, validArgs := validOnlyClause("m", filters.ValidOnly, time.Now())
	filterSQL, filterArgs := filterClause("m", filters)

	query := fmt.Sprintf(`
		SELECT DISTINCT %s FROM memories m
		JOIN mentions mn ON mn.memory_id = m.id
		JOIN entities e ON e.id = mn.entity_id
		WHERE e.name IN (%s) %s %s
		ORDER BY m.importance DESC, m.created_at DESC
		LIMIT ?`, prefixColumns("m", memoryColumns), placeholders, validClause, filterSQL)

	args = append(args, validArgs...)
	args = append(args, filterArgs...)
	args = append(args, limit)

	memories, err := s.queryMemories(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query by entities: %w", err)
	}

	entitiesInvolved := make(map[string]bool, len(names))
	for _, n := range names {
		entitiesInvolved[n] = true
	}
	s.cacheResult(sig, memories, affectedTypesOf(memories), entitiesInvolved)
	return memories, nil
}

// QueryRecent implements the temporal recall strategy's storage query.
func (s *Store) QueryRecent(ctx context.Context, since time.Time, limit int, filters storage.Filters) ([]*types.Memory, error) {
	sig := cacheSignature("temporal", []string{since.UTC().Format(time.RFC3339)}, filters, limit)
	if entry, ok := s.cache.Get(sig); ok {
		return entry.memories, nil
	}

	validClause, validArgs := validOnlyClause("m", filters.ValidOnly, time.Now())
	filterSQL, filterArgs := filterClause("m", filters)

	query := fmt.Sprintf(`
		SELECT %s FROM memories m
		WHERE m.created_at > ? %s %s
		ORDER BY m.created_at DESC
		LIMIT ?`, prefixColumns("m", memoryColumns), validClause, filterSQL)

	args := []interface{}{since}
	args = append(args, validArgs...)
	args = append(args, filterArgs...)
	args = append(args, limit)

	memories, err := s.queryMemories(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query recent: %w", err)
	}

	s.cacheResult(sig, memories, affectedTypesOf(memories), nil)
	return memories, nil
}

// DistinctUsers returns every distinct non-null user_id on record.
func (s *Store) DistinctUsers(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM memories WHERE user_id IS NOT NULL ORDER BY user_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: distinct users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// MemoriesByUser returns up to limit memories for a given user_id,
// most-recent first.
func (s *Store) MemoriesByUser(ctx context.Context, user string, limit int) ([]*types.Memory, error) {
	query := fmt.Sprintf(`SELECT %s FROM memories m WHERE m.user_id = ? ORDER BY m.created_at DESC LIMIT ?`,
		prefixColumns("m", memoryColumns))
	return s.queryMemories(ctx, query, user, limit)
}

func (s *Store) queryMemories(ctx context.Context, query string, args ...interface{}) ([]*types.Memory, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memories []*types.Memory
	for rows.Next() {
		m, err := scanMemory(rows)
		if err != nil {
			return nil, err
		}
		memories = append(memories, m)
	}
	return memories, rows.Err()
}

func prefixColumns(alias, cols string) string {
	parts := strings.Split(cols, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

func affectedTypesOf(ms []*types.Memory) map[types.MemoryType]bool {
	out := make(map[types.MemoryType]bool, len(ms))
	for _, m := range ms {
		out[m.MemoryType] = true
	}
	return out
}
