package database

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/symdex/internal/extract"
)

// Test Plan for persistence:
// - Save then Load restores paths, excludes, tracked files, and records
// - Save leaves no temporary file behind
// - A snapshot tagged newer than this tool fails with ErrUnknownFormat
// - Legacy snapshots recover their roots and rebuild by re-scanning
// - Scalar dotted names in stored records normalize to segments

func TestSaveLoad_RoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package app\n\nfunc A() {\n\tx := helper()\n}\n")
	writeFile(t, dir, filepath.Join("skip", "b.go"), "func B() {\n}\n")

	db := New(extract.DefaultRegistry())
	require.NoError(t, db.AddExcludes([]string{"skip"}))
	require.NoError(t, db.AddPaths([]string{dir}))

	snap := filepath.Join(t.TempDir(), "db")
	require.NoError(t, db.Save(snap))

	loaded, err := Load(snap, extract.DefaultRegistry())
	require.NoError(t, err)

	assert.Equal(t, db.Paths(), loaded.Paths())
	assert.Equal(t, db.Excludes(), loaded.Excludes())
	assert.Equal(t, db.TrackedFiles(), loaded.TrackedFiles())
	for _, table := range extract.Tables {
		assert.ElementsMatch(t, db.Table(table), loaded.Table(table), "table %s", table)
	}
}

func TestSave_NoTempLeftBehind(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	db := New(extract.DefaultRegistry())
	require.NoError(t, db.Save(filepath.Join(dir, "db")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "db", entries[0].Name())
}

func TestSaveLoad_PreservesFileMetadata(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.go", "func A() {\n}\n")

	db := scanDir(t, dir)
	snap := filepath.Join(t.TempDir(), "db")
	require.NoError(t, db.Save(snap))

	loaded, err := Load(snap, extract.DefaultRegistry())
	require.NoError(t, err)

	// The loaded database must see an unchanged tree as unchanged.
	changed, err := loaded.Update()
	require.NoError(t, err)
	assert.False(t, changed, "round-tripped metadata keeps the update cheap")
}

func TestLoad_NewerFormatFails(t *testing.T) {
	t.Parallel()

	snap := filepath.Join(t.TempDir(), "db")
	f, err := os.Create(snap)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte{'6'})
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = Load(snap, extract.DefaultRegistry())
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestLoad_NotGzipFails(t *testing.T) {
	t.Parallel()

	snap := filepath.Join(t.TempDir(), "db")
	require.NoError(t, os.WriteFile(snap, []byte("plain text"), 0o644))

	_, err := Load(snap, extract.DefaultRegistry())
	require.Error(t, err)
}

func TestLoad_LegacyRescans(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeFile(t, dir, "a.go", "func A() {\n}\n")
	writeFile(t, dir, filepath.Join("vendor", "dep.go"), "func Dep() {\n}\n")

	// Tag '3' stored root paths and exclude patterns as two separate
	// records, with no file metadata and no tables.
	snap := filepath.Join(t.TempDir(), "db")
	f, err := os.Create(snap)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte{'3'})
	require.NoError(t, err)
	enc := json.NewEncoder(zw)
	require.NoError(t, enc.Encode([]string{dir}))
	require.NoError(t, enc.Encode([]string{"vendor"}))
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	loaded, err := Load(snap, extract.DefaultRegistry())
	require.NoError(t, err)

	assert.Equal(t, []string{src}, loaded.TrackedFiles(), "legacy roots are rebuilt by a fresh scan")
	assert.Contains(t, loaded.Excludes(), "vendor")
	assert.NotEmpty(t, loaded.Table(extract.TableDefs))
}

func TestWireName_ScalarNormalizes(t *testing.T) {
	t.Parallel()

	var n wireName
	require.NoError(t, json.Unmarshal([]byte(`"pkg.Type.Method"`), &n))
	assert.Equal(t, wireName{"pkg", "Type", "Method"}, n)

	require.NoError(t, json.Unmarshal([]byte(`["pkg","Fn"]`), &n))
	assert.Equal(t, wireName{"pkg", "Fn"}, n)
}
