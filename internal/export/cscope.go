package export

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mvp-joe/symdex/internal/database"
	"github.com/mvp-joe/symdex/internal/extract"
)

// Single-character kind marks of the classic cscope symbol protocol.
const (
	markDef    = '$'
	markCall   = '`'
	markAssign = '='
	markImport = '~'
)

var cscopeMarks = []struct {
	table extract.Table
	mark  byte
}{
	{extract.TableDefs, markDef},
	{extract.TableCalls, markCall},
	{extract.TableAssigns, markAssign},
	{extract.TableImports, markImport},
}

type lineSym struct {
	token string
	mark  byte
}

// WriteCscope writes the database in the classic cscope symbol
// protocol: a tab-@ file header per file, a line-number line plus the
// whitespace-collapsed source text with kind marks for every source
// line carrying records, and a trailer of root paths and the file
// list. The body is prefixed by a fixed-width decimal header equal to
// the exact byte length of everything following it; downstream readers
// seek by that offset, so it must be byte-exact.
func WriteCscope(w io.Writer, db *database.Database) error {
	syms := make(map[string]map[int][]lineSym)
	text := make(map[string]map[int]string)

	for _, tm := range cscopeMarks {
		for _, r := range db.Table(tm.table) {
			tok := r.LastSegment()
			if tok == "" || r.Line <= 0 {
				continue
			}
			if syms[r.File] == nil {
				syms[r.File] = make(map[int][]lineSym)
				text[r.File] = make(map[int]string)
			}
			syms[r.File][r.Line] = append(syms[r.File][r.Line], lineSym{token: tok, mark: tm.mark})
			if r.Text != "" {
				text[r.File][r.Line] = r.Text
			}
		}
	}

	var body bytes.Buffer
	files := db.TrackedFiles()
	for _, file := range files {
		fmt.Fprintf(&body, "\t@%s\n\n", file)

		lines := make([]int, 0, len(syms[file]))
		for ln := range syms[file] {
			lines = append(lines, ln)
		}
		sort.Ints(lines)

		for _, ln := range lines {
			collapsed := strings.Join(strings.Fields(text[file][ln]), " ")
			fmt.Fprintf(&body, "%d %s\n\n", ln, insertMarks(collapsed, syms[file][ln]))
		}
	}

	for _, p := range db.Paths() {
		fmt.Fprintln(&body, p)
	}
	fmt.Fprintf(&body, "%d\n", len(files))
	for _, f := range files {
		fmt.Fprintln(&body, f)
	}

	if _, err := fmt.Fprintf(w, "%010d\n", body.Len()); err != nil {
		return err
	}
	_, err := w.Write(body.Bytes())
	return err
}

// insertMarks places each symbol's kind mark immediately before the
// first occurrence of its token in the collapsed line text.
func insertMarks(text string, syms []lineSym) string {
	type insertion struct {
		pos  int
		mark byte
	}
	var inserts []insertion
	seen := make(map[string]bool)
	for _, s := range syms {
		key := string(s.mark) + s.token
		if seen[key] {
			continue
		}
		seen[key] = true
		if pos := strings.Index(text, s.token); pos >= 0 {
			inserts = append(inserts, insertion{pos: pos, mark: s.mark})
		}
	}
	sort.Slice(inserts, func(i, j int) bool { return inserts[i].pos > inserts[j].pos })

	b := []byte(text)
	for _, in := range inserts {
		tail := append([]byte{in.mark}, b[in.pos:]...)
		b = append(b[:in.pos], tail...)
	}
	return string(b)
}
