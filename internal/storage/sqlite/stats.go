package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/kuzu-memory/kuzu-memory/internal/storage"
)

// Stats reports storage-level counters.
func (s *Store) Stats(ctx context.Context) (storage.Stats, error) {
	var stats storage.Stats

	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories`).Scan(&stats.TotalMemories); err != nil {
		return stats, fmt.Errorf("sqlite: count memories: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memories WHERE valid_to IS NULL OR valid_to > ?`, time.Now(),
	).Scan(&stats.ValidMemories); err != nil {
		return stats, fmt.Errorf("sqlite: count valid memories: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM entities`).Scan(&stats.TotalEntities); err != nil {
		return stats, fmt.Errorf("sqlite: count entities: %w", err)
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT user_id) FROM memories WHERE user_id IS NOT NULL`,
	).Scan(&stats.DistinctUsers); err != nil {
		return stats, fmt.Errorf("sqlite: count distinct users: %w", err)
	}

	var oldest, newest sql.NullTime
	if err := s.db.QueryRowContext(ctx, `SELECT MIN(created_at), MAX(created_at) FROM memories`).Scan(&oldest, &newest); err != nil {
		return stats, fmt.Errorf("sqlite: min/max created_at: %w", err)
	}
	if oldest.Valid {
		t := oldest.Time
		stats.OldestMemory = &t
	}
	if newest.Valid {
		t := newest.Time
		stats.NewestMemory = &t
	}

	return stats, nil
}

// DBSizeBytes reports the on-disk size of the database file plus its WAL
// sidecar files, if present.
func (s *Store) DBSizeBytes(ctx context.Context) (int64, error) {
	rows, err := s.db.QueryContext(ctx, `PRAGMA database_list`)
	if err != nil {
		return 0, fmt.Errorf("sqlite: database_list: %w", err)
	}
	defer rows.Close()

	var total int64
	for rows.Next() {
		var seq int
		var name, file string
		if err := rows.Scan(&seq, &name, &file); err != nil {
			return 0, err
		}
		if file == "" {
			continue
		}
		for _, suffix := range []string{"", "-wal", "-shm"} {
			if fi, statErr := os.Stat(file + suffix); statErr == nil {
				total += fi.Size()
			}
		}
	}
	return total, rows.Err()
}

// UpdateDecayScores is a maintenance no-op: KuzuMemory computes decay on
// read, so this simply reports how many memories are currently
// valid, matching the interface's "count of updated rows" contract for
// schedulers that expect a countable result.
func (s *Store) UpdateDecayScores(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memories WHERE valid_to IS NULL OR valid_to > ?`, time.Now(),
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: update decay scores: %w", err)
	}
	return n, nil
}
