// Package database owns the fact tables and their metadata. It
// orchestrates file discovery, extraction dispatch, incremental update
// and persistence. A Database is owned by exactly one caller for the
// duration of a process invocation; all operations are synchronous and
// single-threaded.
package database

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mvp-joe/symdex/internal/extract"
	"github.com/mvp-joe/symdex/internal/match"
	"github.com/mvp-joe/symdex/internal/version"
)

// ErrNoSuchTable is returned when querying or dumping a table that was
// never populated.
var ErrNoSuchTable = errors.New("no such table")

// FileMeta tracks one scanned file. LastUpdated is epoch seconds of the
// file's mtime at scan time; Extractor and ExtractorVersion identify
// what produced its records.
type FileMeta struct {
	LastUpdated      int64  `json:"last_updated"`
	Extractor        string `json:"extractor"`
	ExtractorVersion int    `json:"extractor_version"`
}

// dbMeta is the process-wide metadata persisted alongside the tables.
type dbMeta struct {
	Paths             []string
	Excludes          []string
	Files             map[string]FileMeta
	ExtractorVersions map[string]int
	ToolVersion       string
}

// Database holds the record tables and metadata.
type Database struct {
	meta     dbMeta
	tables   map[extract.Table][]extract.Record
	registry extract.Registry
	excludes *excludeSet
	reporter ProgressReporter
}

// New creates an empty database backed by the given extractor registry.
// Registry order is the dispatch order: the first matching extractor
// processes a file.
func New(registry extract.Registry) *Database {
	return &Database{
		meta: dbMeta{
			Files:             make(map[string]FileMeta),
			ExtractorVersions: registry.Versions(),
			ToolVersion:       version.Version,
		},
		tables:   make(map[extract.Table][]extract.Record),
		registry: registry,
		excludes: &excludeSet{},
		reporter: NoOpProgressReporter{},
	}
}

// SetProgressReporter installs a progress observer. It is invoked
// synchronously after each file; its presence never changes results.
func (db *Database) SetProgressReporter(r ProgressReporter) {
	if r == nil {
		r = NoOpProgressReporter{}
	}
	db.reporter = r
}

// AddPaths registers root paths and scans every eligible file under
// them that is not already tracked. Non-existent paths contribute
// nothing. Repeating the call with identical arguments changes nothing
// beyond files that newly appeared on disk.
func (db *Database) AddPaths(paths []string) error {
	for _, p := range paths {
		db.meta.Paths = appendUnique(db.meta.Paths, filepath.Clean(p))
	}

	files, err := db.discover()
	if err != nil {
		return err
	}

	var added []string
	for _, f := range files {
		if _, ok := db.meta.Files[f]; !ok {
			added = append(added, f)
		}
	}

	db.reporter.OnScanStart(len(added))
	for _, f := range added {
		db.scanFile(f)
	}
	db.reporter.OnScanComplete(len(added))
	return nil
}

// AddExcludes registers exclude patterns, purges already-tracked files
// matching them, and removes literal overlap from the root path set.
func (db *Database) AddExcludes(patterns []string) error {
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if err := db.excludes.Add(p); err != nil {
			return fmt.Errorf("exclude pattern %q: %w", p, err)
		}
		db.meta.Excludes = appendUnique(db.meta.Excludes, p)
		db.meta.Paths = removeString(db.meta.Paths, p)
	}

	for _, path := range db.TrackedFiles() {
		if db.excludes.Match(filepath.ToSlash(path)) {
			db.purgeFile(path)
			delete(db.meta.Files, path)
		}
	}
	return nil
}

// ChangeSet classifies tracked and newly discovered files.
type ChangeSet struct {
	Added    []string // eligible files not yet tracked
	Modified []string // newer mtime, or extractor upgraded since scan
	Deleted  []string // no longer a regular file
}

// Empty reports whether nothing changed.
func (c *ChangeSet) Empty() bool {
	return len(c.Added) == 0 && len(c.Modified) == 0 && len(c.Deleted) == 0
}

func (c *ChangeSet) total() int {
	return len(c.Added) + len(c.Modified) + len(c.Deleted)
}

// Update brings the database current with the filesystem. Deleted files
// are purged before any re-extraction; modified files are purged and
// re-extracted as one batch each; new files are extracted last. Returns
// whether anything changed.
func (db *Database) Update() (bool, error) {
	changes, err := db.DetectChanges()
	if err != nil {
		return false, err
	}
	if changes.Empty() {
		return false, nil
	}

	db.reporter.OnScanStart(changes.total())
	for _, path := range changes.Deleted {
		db.purgeFile(path)
		delete(db.meta.Files, path)
		db.reporter.OnFileScanned(path)
	}
	for _, path := range changes.Modified {
		db.scanFile(path)
	}
	for _, path := range changes.Added {
		db.scanFile(path)
	}
	db.reporter.OnScanComplete(changes.total())

	db.meta.ExtractorVersions = db.registry.Versions()
	return true, nil
}

// DetectChanges compares disk state to database state and returns what
// needs processing, without mutating anything.
func (db *Database) DetectChanges() (*ChangeSet, error) {
	changes := &ChangeSet{}

	for _, path := range db.TrackedFiles() {
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			changes.Deleted = append(changes.Deleted, path)
			continue
		}

		fm := db.meta.Files[path]
		stale := info.ModTime().Unix() > fm.LastUpdated
		if !stale {
			// An extractor upgrade forces reprocessing without any
			// timestamp change.
			if ex, ok := db.registry.Find(path); ok {
				if ex.ID() != fm.Extractor || ex.Version() > fm.ExtractorVersion {
					stale = true
				}
			}
		}
		if stale {
			changes.Modified = append(changes.Modified, path)
		}
	}

	files, err := db.discover()
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		if _, ok := db.meta.Files[f]; !ok {
			changes.Added = append(changes.Added, f)
		}
	}

	return changes, nil
}

// Query ranks the records of one table against a search key. A key
// matching nothing yields an empty result; a table that was never
// populated is an error.
func (db *Database) Query(table extract.Table, key string) ([]extract.Record, error) {
	recs, ok := db.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoSuchTable, string(table))
	}
	return match.Rank(recs, key), nil
}

// DumpTable returns a table's records sorted by last name segment,
// case-insensitive.
func (db *Database) DumpTable(table extract.Table) ([]extract.Record, error) {
	recs, ok := db.tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoSuchTable, string(table))
	}
	out := append([]extract.Record(nil), recs...)
	sortRecords(out)
	return out, nil
}

// DumpAll returns every populated table, each sorted as in DumpTable.
func (db *Database) DumpAll() map[extract.Table][]extract.Record {
	out := make(map[extract.Table][]extract.Record, len(db.tables))
	for t, recs := range db.tables {
		cp := append([]extract.Record(nil), recs...)
		sortRecords(cp)
		out[t] = cp
	}
	return out
}

// TableSummary is one row of Summary.
type TableSummary struct {
	Table   extract.Table
	Records int
}

// Summary lists populated tables and their record counts, sorted by
// table name.
func (db *Database) Summary() []TableSummary {
	out := make([]TableSummary, 0, len(db.tables))
	for t, recs := range db.tables {
		out = append(out, TableSummary{Table: t, Records: len(recs)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Table < out[j].Table })
	return out
}

// Table returns a copy of one table's records in extraction order.
// Unknown tables yield nil.
func (db *Database) Table(t extract.Table) []extract.Record {
	return append([]extract.Record(nil), db.tables[t]...)
}

// Paths returns the tracked root paths.
func (db *Database) Paths() []string {
	return append([]string(nil), db.meta.Paths...)
}

// Excludes returns the registered exclude patterns.
func (db *Database) Excludes() []string {
	return append([]string(nil), db.meta.Excludes...)
}

// TrackedFiles returns the sorted list of files with metadata.
func (db *Database) TrackedFiles() []string {
	out := make([]string, 0, len(db.meta.Files))
	for path := range db.meta.Files {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// discover walks every root and returns the sorted, deduplicated list
// of eligible regular files: not excluded, and claimed by some
// extractor. Unreadable entries are skipped, not fatal.
func (db *Database) discover() ([]string, error) {
	db.reporter.OnDiscoveryStart()
	seen := make(map[string]bool)
	var out []string

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}

	for _, root := range db.meta.Paths {
		info, err := os.Stat(root)
		if err != nil {
			continue // non-existent roots contribute nothing
		}
		if !info.IsDir() {
			if info.Mode().IsRegular() && db.eligible(root) {
				add(root)
			}
			continue
		}
		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil
			}
			if d.IsDir() {
				if db.excludes.Match(filepath.ToSlash(path)) {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.Type().IsRegular() {
				return nil
			}
			if db.eligible(path) {
				add(path)
			}
			return nil
		})
		if walkErr != nil {
			return nil, fmt.Errorf("walk %s: %w", root, walkErr)
		}
	}

	sort.Strings(out)
	db.reporter.OnDiscoveryComplete(len(out))
	return out, nil
}

func (db *Database) eligible(path string) bool {
	if db.excludes.Match(filepath.ToSlash(path)) {
		return false
	}
	_, ok := db.registry.Find(path)
	return ok
}

// scanFile extracts one file and replaces its records as a single
// batch. Extraction failure keeps whatever was emitted and the scan
// goes on; no table is ever left partially updated for a file.
func (db *Database) scanFile(path string) {
	ex, ok := db.registry.Find(path)
	if !ok {
		return
	}
	info, err := os.Stat(path)
	if err != nil {
		log.Printf("symdex: skipping %s: %v", path, err)
		return
	}

	batch := make(map[extract.Table][]extract.Record)
	if err := ex.Extract(path, func(t extract.Table, rec extract.Record) {
		batch[t] = append(batch[t], rec)
	}); err != nil {
		log.Printf("symdex: extracting %s: %v", path, err)
	}

	db.purgeFile(path)
	for t, recs := range batch {
		db.tables[t] = append(db.tables[t], recs...)
	}
	db.meta.Files[path] = FileMeta{
		LastUpdated:      info.ModTime().Unix(),
		Extractor:        ex.ID(),
		ExtractorVersion: ex.Version(),
	}
	db.reporter.OnFileScanned(path)
}

// purgeFile drops every record belonging to path from every table.
func (db *Database) purgeFile(path string) {
	for t, recs := range db.tables {
		kept := recs[:0]
		for _, r := range recs {
			if r.File != path {
				kept = append(kept, r)
			}
		}
		if len(kept) == 0 {
			delete(db.tables, t)
		} else {
			db.tables[t] = kept
		}
	}
}

func sortRecords(recs []extract.Record) {
	sort.SliceStable(recs, func(i, j int) bool {
		a := strings.ToLower(recs[i].LastSegment())
		b := strings.ToLower(recs[j].LastSegment())
		if a != b {
			return a < b
		}
		if recs[i].File != recs[j].File {
			return recs[i].File < recs[j].File
		}
		return recs[i].Line < recs[j].Line
	})
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

func removeString(list []string, s string) []string {
	kept := list[:0]
	for _, v := range list {
		if v != s {
			kept = append(kept, v)
		}
	}
	return kept
}
