package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"github.com/mvp-joe/symdex/internal/extract"
)

// The persisted snapshot is a gzip stream of three logical records: an
// ASCII format-version digit, a metadata record, and the table map.
const (
	// FormatVersion is the tag written by this tool.
	FormatVersion byte = '5'
	// oldestFormat is the oldest tag Load still understands. Older tags
	// are rebuilt from their recovered root paths by a full re-scan.
	oldestFormat byte = '1'
)

// ErrUnknownFormat is returned when a snapshot carries a format tag
// newer than this tool supports. Loading aborts entirely rather than
// partially reading.
var ErrUnknownFormat = errors.New("unknown database format")

// wireMeta is logical record two of the snapshot.
type wireMeta struct {
	Paths             []string            `json:"paths"`
	Excludes          []string            `json:"excludes,omitempty"`
	Files             map[string]FileMeta `json:"files"`
	ExtractorVersions map[string]int      `json:"extractor_versions"`
	ToolVersion       string              `json:"tool_version"`
}

// wireName accepts both the segment-list shape and the scalar dotted
// name older snapshots carried, normalizing to segments immediately so
// nothing downstream branches on shape.
type wireName []string

func (n *wireName) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = strings.Split(s, ".")
		return nil
	}
	var segs []string
	if err := json.Unmarshal(data, &segs); err != nil {
		return err
	}
	*n = segs
	return nil
}

type wireRecord struct {
	Name  wireName `json:"name"`
	File  string   `json:"file"`
	Line  int      `json:"line,omitempty"`
	Text  string   `json:"text,omitempty"`
	Kind  string   `json:"kind,omitempty"`
	Scope []string `json:"scope,omitempty"`
}

// Save persists the database to path. The snapshot is written to a
// temporary file in the same directory and atomically renamed into
// place, so a crash mid-save leaves the prior snapshot intact.
func (db *Database) Save(path string) error {
	dir := filepath.Dir(path)
	tmp := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(path), uuid.NewString()))

	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	if err := db.writeSnapshot(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}

func (db *Database) writeSnapshot(w io.Writer) error {
	zw := gzip.NewWriter(w)
	if _, err := zw.Write([]byte{FormatVersion}); err != nil {
		return err
	}
	enc := json.NewEncoder(zw)
	if err := enc.Encode(wireMeta{
		Paths:             db.meta.Paths,
		Excludes:          db.meta.Excludes,
		Files:             db.meta.Files,
		ExtractorVersions: db.meta.ExtractorVersions,
		ToolVersion:       db.meta.ToolVersion,
	}); err != nil {
		return err
	}
	if err := enc.Encode(db.tables); err != nil {
		return err
	}
	return zw.Close()
}

// Load reads a snapshot from path. Current-format snapshots restore
// metadata and tables directly. Legacy tags recover the root paths and
// re-derive the whole database with a full re-scan. A tag newer than
// FormatVersion fails with ErrUnknownFormat.
func Load(path string, registry extract.Registry) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer zr.Close()

	var tag [1]byte
	if _, err := io.ReadFull(zr, tag[:]); err != nil {
		return nil, fmt.Errorf("read format tag: %w", err)
	}
	dec := json.NewDecoder(zr)

	switch {
	case tag[0] > FormatVersion || tag[0] < oldestFormat:
		return nil, fmt.Errorf("%w %q (this tool reads up to %q)",
			ErrUnknownFormat, string(tag[0]), string(FormatVersion))
	case tag[0] == FormatVersion:
		return loadCurrent(dec, registry)
	default:
		return loadLegacy(tag[0], dec, registry)
	}
}

func loadCurrent(dec *json.Decoder, registry extract.Registry) (*Database, error) {
	var wm wireMeta
	if err := dec.Decode(&wm); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}
	var tables map[extract.Table][]wireRecord
	if err := dec.Decode(&tables); err != nil {
		return nil, fmt.Errorf("decode tables: %w", err)
	}

	db := New(registry)
	db.meta.Paths = wm.Paths
	if err := db.AddExcludes(wm.Excludes); err != nil {
		return nil, err
	}
	if wm.Files != nil {
		db.meta.Files = wm.Files
	}
	if wm.ExtractorVersions != nil {
		db.meta.ExtractorVersions = wm.ExtractorVersions
	}

	for t, recs := range tables {
		rs := make([]extract.Record, len(recs))
		for i, wr := range recs {
			rs[i] = extract.Record{
				Name:  wr.Name,
				File:  wr.File,
				Line:  wr.Line,
				Text:  wr.Text,
				Kind:  wr.Kind,
				Scope: wr.Scope,
			}
		}
		db.tables[t] = rs
	}
	return db, nil
}

// loadLegacy handles tags 1 through 4, which predate the unified
// metadata record. Records are not migrated in place: the database is
// rebuilt from the recovered roots.
func loadLegacy(tag byte, dec *json.Decoder, registry extract.Registry) (*Database, error) {
	var paths, excludes []string
	if tag == '4' {
		var lm struct {
			Paths    []string `json:"paths"`
			Excludes []string `json:"excludes"`
		}
		if err := dec.Decode(&lm); err != nil {
			return nil, fmt.Errorf("decode legacy metadata: %w", err)
		}
		paths, excludes = lm.Paths, lm.Excludes
	} else {
		// Tags 1-3 stored paths and excludes as separate records; the
		// excludes record is absent in the very oldest layout.
		if err := dec.Decode(&paths); err != nil {
			return nil, fmt.Errorf("decode legacy paths: %w", err)
		}
		if err := dec.Decode(&excludes); err != nil {
			excludes = nil
		}
	}

	db := New(registry)
	if err := db.AddExcludes(excludes); err != nil {
		return nil, err
	}
	if err := db.AddPaths(paths); err != nil {
		return nil, err
	}
	return db, nil
}
