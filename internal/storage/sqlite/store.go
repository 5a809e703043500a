// Package sqlite implements storage.Store on top of modernc.org/sqlite, a
// CGO-free driver, with a single-writer/WAL/busy-timeout discipline and
// stale-WAL self-healing on open.
package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kuzu-memory/kuzu-memory/internal/storage"
	"github.com/kuzu-memory/kuzu-memory/pkg/types"
)

// CacheTTL and CacheSize are the query-result LRU defaults.
const (
	CacheTTL  = 300 * time.Second
	CacheSize = 1000
)

// cacheEntry is the value type stored in the query-result LRU, keyed by a
// digest of (strategy, normalized args, filter digest).
type cacheEntry struct {
	memories []*types.Memory
	// typesInvolved/entitiesInvolved let writes invalidate signatures whose
	// result set could have been affected.
	typesInvolved    map[types.MemoryType]bool
	entitiesInvolved map[string]bool
}

// Store implements storage.Store using a single-connection SQLite database.
type Store struct {
	db    *sql.DB
	cache *lru.LRU[string, cacheEntry]
}

// Open opens (creating if necessary) the KuzuMemory database at dbPath.
// It enables WAL mode, sets a busy timeout, enforces foreign keys, attempts
// stale-WAL recovery on a failed open, and checks schema_info.version
// against schemaVersion, refusing to open on mismatch.
func Open(dbPath string) (*Store, error) {
	store, err := open(dbPath)
	if err == nil {
		return store, nil
	}

	realPath := dbPathFromDSN(dbPath)
	if !looksLikeStaleLockError(err) || realPath == "" {
		return nil, err
	}
	if !orphanedSidecars(realPath) {
		return nil, err
	}
	purgeSidecars(realPath)

	store, retryErr := open(dbPath)
	if retryErr != nil {
		return nil, fmt.Errorf("sqlite: open after WAL recovery: %w (original: %v)", retryErr, err)
	}
	log.Printf("sqlite: recovered from stale WAL files for %s", dbPath)
	return store, nil
}

func open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", dbPath, err)
	}

	// SQLite allows only one concurrent writer; a single open connection
	// serializes writes so we never see SQLITE_BUSY from our own goroutines.
	// WAL mode lets readers proceed without blocking that writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: enable WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: set busy_timeout: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: enable foreign_keys: %w", err)
	}
	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}
	if err := ensureSchemaVersion(db); err != nil {
		db.Close()
		return nil, err
	}

	cache := lru.NewLRU[string, cacheEntry](CacheSize, nil, CacheTTL)
	return &Store{db: db, cache: cache}, nil
}

// ensureSchemaVersion stamps a fresh database with schemaVersion, or
// refuses to open one stamped with a different version.
func ensureSchemaVersion(db *sql.DB) error {
	row := db.QueryRow("SELECT version FROM schema_info LIMIT 1")
	var onDisk int
	switch err := row.Scan(&onDisk); err {
	case sql.ErrNoRows:
		_, err := db.Exec("INSERT INTO schema_info (version) VALUES (?)", schemaVersion)
		if err != nil {
			return fmt.Errorf("sqlite: stamp schema_info: %w", err)
		}
		return nil
	case nil:
		if onDisk != schemaVersion {
			return fmt.Errorf("%w: on-disk version %d, expected %d", storage.ErrSchemaMismatch, onDisk, schemaVersion)
		}
		return nil
	default:
		return fmt.Errorf("sqlite: read schema_info: %w", err)
	}
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// contentHash returns the stable SHA-256 digest over normalized content
// used as the deduplication key.
func contentHash(content string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(content)), " ")
	sum := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

func newID(prefix string) string {
	return prefix + ":" + uuid.NewString()
}

func marshalMetadata(m map[string]interface{}) (sql.NullString, error) {
	if len(m) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("sqlite: marshal metadata: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func unmarshalMetadata(s sql.NullString) (map[string]interface{}, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(s.String), &m); err != nil {
		return nil, fmt.Errorf("sqlite: unmarshal metadata: %w", err)
	}
	return m, nil
}

func nullableTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func nullableString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func strPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

// dbPathFromDSN extracts the filesystem path from a SQLite DSN, handling
// bare paths and file: URIs; returns "" for in-memory databases.
func dbPathFromDSN(dsn string) string {
	if dsn == ":memory:" || dsn == "" {
		return ""
	}
	if strings.HasPrefix(dsn, "file:") {
		u, err := url.Parse(dsn)
		if err != nil {
			return ""
		}
		path := u.Path
		if path == "" {
			path = u.Opaque
		}
		if path == ":memory:" {
			return ""
		}
		return path
	}
	return dsn
}

// walSidecarSuffixes are the auxiliary files SQLite's WAL journal mode
// leaves next to the main database file.
var walSidecarSuffixes = []string{"-wal", "-shm"}

// sidecarPaths returns dbPath's WAL sidecar paths (-wal, -shm), in the
// order listed by walSidecarSuffixes.
func sidecarPaths(dbPath string) []string {
	paths := make([]string, len(walSidecarSuffixes))
	for i, suffix := range walSidecarSuffixes {
		paths[i] = dbPath + suffix
	}
	return paths
}

// looksLikeStaleLockError matches errors caused by WAL sidecars left behind
// by a crashed process (SIGKILL, OOM, ...) rather than genuine contention.
func looksLikeStaleLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "disk I/O error") || strings.Contains(msg, "database is locked")
}

// orphanedSidecars reports whether dbPath has WAL sidecars on disk that no
// live process currently has open, probed via lsof. Conservative: when
// lsof isn't available, or none of the sidecars exist, it reports false so
// the caller never deletes files it can't first confirm are orphaned.
func orphanedSidecars(dbPath string) bool {
	sidecars := sidecarPaths(dbPath)

	anyPresent := false
	for _, p := range sidecars {
		if pathExists(p) {
			anyPresent = true
			break
		}
	}
	if !anyPresent {
		return false
	}

	lsof, err := exec.LookPath("lsof")
	if err != nil {
		return false
	}

	args := append([]string{"-t", dbPath}, sidecars...)
	output, err := exec.Command(lsof, args...).Output()
	if err != nil {
		// lsof exits non-zero when it finds nothing holding the files open.
		return true
	}
	return strings.TrimSpace(string(output)) == ""
}

// purgeSidecars removes dbPath's WAL sidecars, logging (but not failing on)
// any that can't be removed for a reason other than already being gone.
func purgeSidecars(dbPath string) {
	for _, p := range sidecarPaths(dbPath) {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			log.Printf("sqlite: failed to remove stale sidecar %s: %v", p, err)
		}
	}
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
