package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kuzu-memory/kuzu-memory/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(filepath.Join(dir, "kuzu-memory.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenCreatesSchemaAndIsReopenable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kuzu-memory.db")

	s1, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	var version int
	require.NoError(t, s2.db.QueryRow("SELECT version FROM schema_info LIMIT 1").Scan(&version))
	require.Equal(t, schemaVersion, version)
}

func TestOpenRejectsSchemaVersionMismatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kuzu-memory.db")

	s1, err := Open(path)
	require.NoError(t, err)
	_, execErr := s1.db.Exec("UPDATE schema_info SET version = version + 1")
	require.NoError(t, execErr)
	require.NoError(t, s1.Close())

	_, err = Open(path)
	require.ErrorIs(t, err, storage.ErrSchemaMismatch)
}
