package database

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/symdex/internal/extract"
)

// Test Plan for the database:
// - AddPaths scans eligible files once; repeating it changes nothing
// - Non-existent roots are recorded but contribute no files
// - AddExcludes purges matching tracked files and overlapping roots
// - Update handles deleted, modified, and added files in one pass
// - An extractor version bump marks untouched files modified
// - Querying a never-populated table is ErrNoSuchTable
// - Dumps are sorted by last name segment, case-insensitive
// - The progress reporter sees every scanned file

// stubExtractor emits one def per file, named after the file's base.
// Its version is mutable so staleness-by-upgrade can be simulated.
type stubExtractor struct {
	id      string
	version int
	suffix  string
}

func (s *stubExtractor) ID() string           { return s.id }
func (s *stubExtractor) Version() int         { return s.version }
func (s *stubExtractor) Matches(p string) bool { return strings.HasSuffix(p, s.suffix) }

func (s *stubExtractor) Extract(path string, emit extract.Emit) error {
	base := strings.TrimSuffix(filepath.Base(path), s.suffix)
	emit(extract.TableDefs, extract.Record{Name: []string{base}, File: path, Line: 1, Kind: "f"})
	return nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func scanDir(t *testing.T, dir string) *Database {
	t.Helper()
	db := New(extract.DefaultRegistry())
	require.NoError(t, db.AddPaths([]string{dir}))
	return db
}

func TestAddPaths_ScansEligibleFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeFile(t, dir, "a.go", "func A() {\n}\n")
	writeFile(t, dir, "notes.txt", "not code")

	db := scanDir(t, dir)

	assert.Equal(t, []string{src}, db.TrackedFiles(), "only files an extractor claims are tracked")

	defs := db.Table(extract.TableDefs)
	require.Len(t, defs, 1)
	assert.Equal(t, []string{"A"}, defs[0].Name)
}

func TestAddPaths_Idempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.go", "func A() {\n}\n")

	db := scanDir(t, dir)
	tracked := db.TrackedFiles()
	defs := len(db.Table(extract.TableDefs))

	require.NoError(t, db.AddPaths([]string{dir}))
	assert.Equal(t, tracked, db.TrackedFiles())
	assert.Equal(t, defs, len(db.Table(extract.TableDefs)), "re-adding a path must not duplicate records")
}

func TestAddPaths_MissingRoot(t *testing.T) {
	t.Parallel()

	missing := filepath.Join(t.TempDir(), "gone")
	db := New(extract.DefaultRegistry())
	require.NoError(t, db.AddPaths([]string{missing}))

	assert.Contains(t, db.Paths(), missing, "the root is remembered for later updates")
	assert.Empty(t, db.TrackedFiles())
}

func TestAddPaths_FileRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeFile(t, dir, "single.go", "func Solo() {\n}\n")

	db := New(extract.DefaultRegistry())
	require.NoError(t, db.AddPaths([]string{src}))
	assert.Equal(t, []string{src}, db.TrackedFiles())
}

func TestAddExcludes_PurgesTrackedFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	keep := writeFile(t, dir, "a.go", "func A() {\n}\n")
	writeFile(t, dir, filepath.Join("vendor", "dep.go"), "func Dep() {\n}\n")

	db := scanDir(t, dir)
	require.Len(t, db.TrackedFiles(), 2)

	require.NoError(t, db.AddExcludes([]string{"vendor"}))

	assert.Equal(t, []string{keep}, db.TrackedFiles())
	for _, r := range db.Table(extract.TableDefs) {
		assert.NotContains(t, r.File, "vendor", "excluded files leave no records behind")
	}
}

func TestAddExcludes_RemovesOverlappingRoot(t *testing.T) {
	t.Parallel()

	db := New(extract.DefaultRegistry())
	require.NoError(t, db.AddPaths([]string{"build"}))
	require.NoError(t, db.AddExcludes([]string{"build"}))

	assert.NotContains(t, db.Paths(), "build")
	assert.Contains(t, db.Excludes(), "build")
}

func TestAddExcludes_BadPattern(t *testing.T) {
	t.Parallel()

	db := New(extract.DefaultRegistry())
	assert.Error(t, db.AddExcludes([]string{"[unclosed"}))
}

func TestUpdate_NoChanges(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.go", "func A() {\n}\n")

	db := scanDir(t, dir)
	changed, err := db.Update()
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestUpdate_DeletedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeFile(t, dir, "a.go", "func A() {\n}\n")

	db := scanDir(t, dir)
	require.NoError(t, os.Remove(src))

	changed, err := db.Update()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Empty(t, db.TrackedFiles())

	_, err = db.Query(extract.TableDefs, "A")
	assert.ErrorIs(t, err, ErrNoSuchTable, "a table emptied by the purge is gone")
}

func TestUpdate_ModifiedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	src := writeFile(t, dir, "a.go", "func Old() {\n}\n")

	db := scanDir(t, dir)

	writeFile(t, dir, "a.go", "func Renamed() {\n}\n")
	future := time.Now().Add(time.Hour)
	require.NoError(t, os.Chtimes(src, future, future))

	changed, err := db.Update()
	require.NoError(t, err)
	assert.True(t, changed)

	defs := db.Table(extract.TableDefs)
	require.Len(t, defs, 1, "the old batch is replaced, not appended to")
	assert.Equal(t, []string{"Renamed"}, defs[0].Name)
	assert.Equal(t, []string{"Renamed"}, db.Table(extract.TableEnds)[0].Name)
}

func TestUpdate_AddedFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.go", "func A() {\n}\n")

	db := scanDir(t, dir)
	writeFile(t, dir, "b.go", "func B() {\n}\n")

	changed, err := db.Update()
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Len(t, db.TrackedFiles(), 2)
}

func TestUpdate_ExtractorVersionBump(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.mini", "whatever")

	stub := &stubExtractor{id: "mini", version: 1, suffix: ".mini"}
	db := New(extract.Registry{stub})
	require.NoError(t, db.AddPaths([]string{dir}))

	// Nothing on disk changed, only the extractor did.
	stub.version = 2

	changes, err := db.DetectChanges()
	require.NoError(t, err)
	assert.Len(t, changes.Modified, 1)

	changed, err := db.Update()
	require.NoError(t, err)
	assert.True(t, changed)

	for _, fm := range dbFileMetas(db) {
		assert.Equal(t, 2, fm.ExtractorVersion)
	}
}

func dbFileMetas(db *Database) []FileMeta {
	out := make([]FileMeta, 0, len(db.meta.Files))
	for _, fm := range db.meta.Files {
		out = append(out, fm)
	}
	return out
}

func TestQuery_UnknownTable(t *testing.T) {
	t.Parallel()

	db := New(extract.DefaultRegistry())
	_, err := db.Query(extract.TableCalls, "anything")
	assert.True(t, errors.Is(err, ErrNoSuchTable))
}

func TestQuery_RanksRecords(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package app\n\nfunc Serve() {\n}\n\nfunc ServeTLS() {\n}\n")

	db := scanDir(t, dir)

	got, err := db.Query(extract.TableDefs, "Serve")
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "Serve", got[0].LastSegment())
}

func TestDumpTable_Sorted(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.go", "func Zeta() {\n}\n\nfunc alpha() {\n}\n\nfunc Mid() {\n}\n")

	db := scanDir(t, dir)

	defs, err := db.DumpTable(extract.TableDefs)
	require.NoError(t, err)
	require.Len(t, defs, 3)
	assert.Equal(t, "alpha", defs[0].LastSegment())
	assert.Equal(t, "Mid", defs[1].LastSegment())
	assert.Equal(t, "Zeta", defs[2].LastSegment())

	_, err = db.DumpTable(extract.TableImports)
	assert.ErrorIs(t, err, ErrNoSuchTable)
}

func TestSummary(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.go", "func A() {\n\tb()\n}\n")

	db := scanDir(t, dir)

	sum := db.Summary()
	require.NotEmpty(t, sum)
	byTable := make(map[extract.Table]int)
	for _, row := range sum {
		byTable[row.Table] = row.Records
	}
	assert.Equal(t, 1, byTable[extract.TableDefs])
	assert.Equal(t, 1, byTable[extract.TableCalls])
	assert.Equal(t, 1, byTable[extract.TableEnds])
}

type countingReporter struct {
	NoOpProgressReporter
	scanned int
}

func (c *countingReporter) OnFileScanned(string) { c.scanned++ }

func TestProgressReporter_SeesEveryFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "a.go", "func A() {\n}\n")
	writeFile(t, dir, "b.go", "func B() {\n}\n")

	db := New(extract.DefaultRegistry())
	rep := &countingReporter{}
	db.SetProgressReporter(rep)

	require.NoError(t, db.AddPaths([]string{dir}))
	assert.Equal(t, 2, rep.scanned)
}
