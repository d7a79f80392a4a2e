package extract

import "strings"

// Table identifies one of the fact tables a record can belong to.
type Table string

const (
	TableDefs    Table = "defs"
	TableCalls   Table = "calls"
	TableAssigns Table = "assigns"
	TableImports Table = "imports"
	TableEnds    Table = "ends"
)

// Tables lists every table in a stable order.
var Tables = []Table{TableDefs, TableCalls, TableAssigns, TableImports, TableEnds}

// Valid reports whether t is one of the known tables.
func (t Table) Valid() bool {
	switch t {
	case TableDefs, TableCalls, TableAssigns, TableImports, TableEnds:
		return true
	}
	return false
}

// Record is one extracted fact: a definition, call, assignment, import,
// or block end. Name holds the qualified name as ordered segments,
// outermost scope first.
type Record struct {
	Name  []string `json:"name"`
	File  string   `json:"file"`
	Line  int      `json:"line,omitempty"` // 1-based, 0 = unknown
	Text  string   `json:"text,omitempty"` // cached raw source line
	Kind  string   `json:"kind,omitempty"`
	Scope []string `json:"scope,omitempty"`
}

// QualifiedName renders the name segments joined with dots.
func (r Record) QualifiedName() string {
	return strings.Join(r.Name, ".")
}

// LastSegment returns the innermost name segment, or "" for an empty name.
func (r Record) LastSegment() string {
	if len(r.Name) == 0 {
		return ""
	}
	return r.Name[len(r.Name)-1]
}
