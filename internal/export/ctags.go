// Package export writes the fact tables in standard developer-tool
// formats. The writers are pure formatting over read-only views of the
// database; they never mutate it.
package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mvp-joe/symdex/internal/extract"
	"github.com/mvp-joe/symdex/internal/version"
)

// WriteCtags writes definition records as a ctags file: the fixed
// header block, then one line per def sorted by tag name. Records with
// a cached source line use an address pattern; the rest fall back to
// the line number.
func WriteCtags(w io.Writer, defs []extract.Record) error {
	sorted := append([]extract.Record(nil), defs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i].LastSegment(), sorted[j].LastSegment()
		if a != b {
			return a < b
		}
		if sorted[i].File != sorted[j].File {
			return sorted[i].File < sorted[j].File
		}
		return sorted[i].Line < sorted[j].Line
	})

	header := "" +
		"!_TAG_FILE_FORMAT\t2\t/extended format; --format=1 will not append ;\" to lines/\n" +
		"!_TAG_FILE_SORTED\t1\t/0=unsorted, 1=sorted, 2=foldcase/\n" +
		"!_TAG_PROGRAM_NAME\t" + version.Name + "\t//\n" +
		"!_TAG_PROGRAM_VERSION\t" + version.Version + "\t//\n"
	if _, err := io.WriteString(w, header); err != nil {
		return err
	}

	for _, r := range sorted {
		tag := r.LastSegment()
		if tag == "" {
			continue
		}
		address := fmt.Sprintf("%d", r.Line)
		if r.Text != "" {
			address = "/^" + escapePattern(r.Text) + "$/"
		}
		kind := r.Kind
		if kind == "" {
			kind = "x"
		}
		if _, err := fmt.Fprintf(w, "%s\t%s\t%s;\"\tkind:%s\n", tag, r.File, address, kind); err != nil {
			return err
		}
	}
	return nil
}

// escapePattern escapes the characters that terminate or confuse a
// ctags search pattern.
func escapePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `/`, `\/`)
	return s
}
