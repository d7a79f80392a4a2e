package extract

import (
	"os"
	"regexp"
	"strings"
)

const (
	goExtractorID      = "go-line"
	goExtractorVersion = 3
)

// goMode is the current parse mode. The active mode selects which line
// patterns apply, so the same textual shape means different things in
// different modes (an identifier list is a field inside a struct body,
// a call inside a function body).
type goMode int

const (
	goModeDefault goMode = iota
	goModeComment
	goModeImports
	goModeStructBody
	goModeInterfaceBody
	goModeGroup // grouped var/const declarations
	goModeFuncBody
)

// goFrame is one entry on the mode stack. Each mode carries only its
// own payload: name for blocks that emit an end record on close, kind
// for grouped declarations, depth for braces nested inside a function
// body.
type goFrame struct {
	mode  goMode
	name  []string
	kind  string
	depth int
}

var (
	goPackageRe    = regexp.MustCompile(`^package\s+(\w+)`)
	goFuncRe       = regexp.MustCompile(`^func\s+(?:\(\s*\w+\s+\*?(\w+)\s*\)\s*)?(\w+)\s*\(`)
	goStructRe     = regexp.MustCompile(`^type\s+(\w+)\s+struct\s*\{`)
	goInterfaceRe  = regexp.MustCompile(`^type\s+(\w+)\s+interface\s*\{`)
	goTypeRe       = regexp.MustCompile(`^type\s+(\w+)\s+\S`)
	goImportRe     = regexp.MustCompile(`^import\s+(?:[\w.]+\s+)?"([^"]*)"`)
	goImportOpenRe = regexp.MustCompile(`^import\s*\(\s*$`)
	goDeclRe       = regexp.MustCompile(`^(var|const)\s+([A-Za-z_]\w*)`)
	goDeclOpenRe   = regexp.MustCompile(`^(var|const)\s*\(\s*$`)
	goCallRe       = regexp.MustCompile(`([A-Za-z_][\w.]*)\s*\(`)
	goIdentRe      = regexp.MustCompile(`^[A-Za-z_]\w*`)
	goQuotedRe     = regexp.MustCompile(`"([^"]*)"`)
)

var goKeywords = map[string]bool{
	"break": true, "case": true, "chan": true, "const": true,
	"continue": true, "default": true, "defer": true, "else": true,
	"fallthrough": true, "for": true, "func": true, "go": true,
	"goto": true, "if": true, "import": true, "interface": true,
	"map": true, "package": true, "range": true, "return": true,
	"select": true, "switch": true, "struct": true, "type": true,
	"var": true,
}

// Predeclared functions are recorded without a scope prefix.
var goBuiltins = map[string]bool{
	"append": true, "cap": true, "close": true, "complex": true,
	"copy": true, "delete": true, "imag": true, "len": true,
	"make": true, "new": true, "panic": true, "print": true,
	"println": true, "real": true, "recover": true,
}

// GoExtractor is a line-oriented state machine scanner for Go source.
// It builds no syntax tree: one forward pass over physical lines with a
// scope stack (package, enclosing type) and a mode stack is good enough
// to index definitions, calls, assignments and imports.
type GoExtractor struct{}

func NewGoExtractor() *GoExtractor { return &GoExtractor{} }

func (GoExtractor) ID() string   { return goExtractorID }
func (GoExtractor) Version() int { return goExtractorVersion }

func (GoExtractor) Matches(path string) bool {
	return strings.HasSuffix(path, ".go")
}

func (GoExtractor) Extract(path string, emit Emit) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	s := &goScan{file: path, emit: emit}
	s.run(strings.Split(string(data), "\n"))
	return nil
}

// goScan owns all per-file scanning state, including the current raw
// line used to populate Record.Text. A desynced scan (unterminated
// string, unmatched brace) reads a tail of the file under the wrong
// mode and loses recall; it never fails.
type goScan struct {
	file   string
	emit   Emit
	scope  []string
	stack  []goFrame
	lineNo int
	raw    string // current physical line, untouched
	cooked string // comment-stripped, string literals intact
}

func (s *goScan) run(lines []string) {
	for i, raw := range lines {
		s.lineNo = i + 1
		s.raw = strings.TrimRight(raw, "\r")
		s.scanLine(s.raw)
	}
}

func (s *goScan) mode() goMode {
	if len(s.stack) == 0 {
		return goModeDefault
	}
	return s.stack[len(s.stack)-1].mode
}

func (s *goScan) top() *goFrame {
	return &s.stack[len(s.stack)-1]
}

func (s *goScan) push(f goFrame) { s.stack = append(s.stack, f) }
func (s *goScan) pop()           { s.stack = s.stack[:len(s.stack)-1] }

func (s *goScan) popScope() {
	if len(s.scope) > 0 {
		s.scope = s.scope[:len(s.scope)-1]
	}
}

// scanLine runs the per-line pipeline: close or skip block comments,
// strip a trailing line comment, strip an inline block comment, blank
// out string literals (import lines keep them: the quoted text is the
// import path), then dispatch on the current mode.
func (s *goScan) scanLine(text string) {
	if s.mode() == goModeComment {
		idx := strings.Index(text, "*/")
		if idx < 0 {
			return
		}
		s.pop()
		text = text[idx+2:]
	}
	if idx := strings.Index(text, "//"); idx >= 0 {
		text = text[:idx]
	}
	text, open := stripBlockComment(text)
	s.cooked = text
	if s.mode() != goModeImports {
		text = stripStrings(text)
	}
	s.dispatch(text)
	if open {
		s.push(goFrame{mode: goModeComment})
	}
}

func (s *goScan) dispatch(text string) {
	switch s.mode() {
	case goModeImports:
		s.importLine(text)
	case goModeStructBody, goModeInterfaceBody:
		s.memberLine(text)
	case goModeGroup:
		s.groupLine(text)
	case goModeFuncBody:
		s.funcBodyLine(text)
	default:
		s.defaultLine(text)
	}
}

// defaultLine recognizes top-level shapes in priority order: function
// declarations, package clause, struct/interface types, plain type
// declarations, imports, var/const, assignments, and finally bare
// call-like tokens.
func (s *goScan) defaultLine(text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}

	if m := goFuncRe.FindStringSubmatch(trimmed); m != nil {
		name := s.scoped()
		if m[1] != "" {
			// Receiver type is the defining scope for methods.
			name = append(name, m[1])
		}
		name = append(name, m[2])
		s.record(TableDefs, name, "f")
		if strings.Count(trimmed, "{") > strings.Count(trimmed, "}") {
			s.push(goFrame{mode: goModeFuncBody, name: name})
		} else if i := strings.Index(trimmed, "{"); i >= 0 {
			// Whole body on one line.
			s.scanCalls(trimmed[i:])
		}
		return
	}
	if m := goPackageRe.FindStringSubmatch(trimmed); m != nil {
		s.record(TableDefs, []string{m[1]}, "p")
		s.scope = append(s.scope, m[1])
		return
	}
	if m := goStructRe.FindStringSubmatch(trimmed); m != nil {
		name := append(s.scoped(), m[1])
		s.record(TableDefs, name, "t")
		s.scope = append(s.scope, m[1])
		s.push(goFrame{mode: goModeStructBody, name: name})
		return
	}
	if m := goInterfaceRe.FindStringSubmatch(trimmed); m != nil {
		name := append(s.scoped(), m[1])
		s.record(TableDefs, name, "t")
		s.scope = append(s.scope, m[1])
		s.push(goFrame{mode: goModeInterfaceBody, name: name})
		return
	}
	if goImportOpenRe.MatchString(trimmed) {
		s.push(goFrame{mode: goModeImports})
		return
	}
	// Single-line imports read the path from the pre-strip text, since
	// string stripping has already blanked the quoted path here.
	if m := goImportRe.FindStringSubmatch(strings.TrimSpace(s.cooked)); m != nil {
		s.importRecord(m[1])
		return
	}
	if m := goTypeRe.FindStringSubmatch(trimmed); m != nil {
		s.record(TableDefs, append(s.scoped(), m[1]), "t")
		return
	}
	if goDeclOpenRe.MatchString(trimmed) {
		kind := "v"
		if strings.HasPrefix(trimmed, "const") {
			kind = "c"
		}
		s.push(goFrame{mode: goModeGroup, kind: kind})
		return
	}
	if m := goDeclRe.FindStringSubmatch(trimmed); m != nil {
		kind := "v"
		if m[1] == "const" {
			kind = "c"
		}
		s.record(TableDefs, append(s.scoped(), m[2]), kind)
		s.scanCalls(text)
		return
	}
	if lhs, ok := assignmentLeft(trimmed); ok {
		s.scanAssigns(lhs)
		s.scanCalls(text)
		return
	}
	s.scanCalls(text)
}

// memberLine handles struct and interface bodies: every line naming an
// identifier is a scoped definition, a lone closing brace pops the
// scope and emits an end record.
func (s *goScan) memberLine(text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "}" || trimmed == "};" {
		s.record(TableEnds, s.top().name, "")
		s.pop()
		s.popScope()
		return
	}
	if m := goIdentRe.FindString(trimmed); m != "" && !goKeywords[m] && m != "_" {
		s.record(TableDefs, append(s.scoped(), m), "m")
	}
}

// groupLine handles grouped var/const declarations: each line is a
// definition and is also scanned for calls in its initializer.
func (s *goScan) groupLine(text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == ")" {
		s.pop()
		return
	}
	if m := goIdentRe.FindString(trimmed); m != "" && !goKeywords[m] && m != "_" {
		s.record(TableDefs, append(s.scoped(), m), s.top().kind)
	}
	s.scanCalls(text)
}

func (s *goScan) importLine(text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == ")" {
		s.pop()
		return
	}
	if m := goQuotedRe.FindStringSubmatch(trimmed); m != nil {
		s.importRecord(m[1])
	}
}

// funcBodyLine pops on a lone closing brace at depth zero; any other
// line goes back through the default matcher so constructs nested in a
// function body are still recognized.
func (s *goScan) funcBodyLine(text string) {
	trimmed := strings.TrimSpace(text)
	fr := s.top()
	if trimmed == "}" {
		if fr.depth > 0 {
			fr.depth--
			return
		}
		s.record(TableEnds, fr.name, "")
		s.pop()
		return
	}
	before := len(s.stack)
	s.defaultLine(text)
	if len(s.stack) == before {
		fr.depth += strings.Count(text, "{") - strings.Count(text, "}")
		if fr.depth < 0 {
			fr.depth = 0
		}
	}
}

// scanCalls records identifier( and qualifier.identifier( occurrences.
// The func keyword introduces a function literal, not a call. Builtins
// are recorded unscoped, other unqualified names under the current
// scope, qualified names as their literal dotted segments.
func (s *goScan) scanCalls(text string) {
	for _, m := range goCallRe.FindAllStringSubmatch(text, -1) {
		name := m[1]
		if goKeywords[name] {
			continue
		}
		switch {
		case strings.Contains(name, "."):
			s.record(TableCalls, strings.Split(name, "."), "")
		case goBuiltins[name]:
			s.record(TableCalls, []string{name}, "")
		default:
			s.record(TableCalls, append(s.scoped(), name), "")
		}
	}
}

// scanAssigns records each left-hand token of an assignment, minus
// trailing commas, control keywords and the blank identifier. Tokens
// are scoped unless already dotted.
func (s *goScan) scanAssigns(lhs string) {
	for _, tok := range strings.Fields(lhs) {
		tok = strings.TrimSuffix(tok, ",")
		if tok == "" || tok == "_" || goKeywords[tok] {
			continue
		}
		if strings.Contains(tok, ".") {
			segs := strings.Split(tok, ".")
			if identSegments(segs) {
				s.record(TableAssigns, segs, "")
			}
			continue
		}
		if isIdent(tok) {
			s.record(TableAssigns, append(s.scoped(), tok), "")
		}
	}
}

func (s *goScan) importRecord(path string) {
	if path == "" {
		return
	}
	s.record(TableImports, strings.Split(path, "/"), "i")
}

func (s *goScan) record(t Table, name []string, kind string) {
	s.emit(t, Record{Name: name, File: s.file, Line: s.lineNo, Text: s.raw, Kind: kind})
}

// scoped returns a fresh copy of the scope stack for use as a name prefix.
func (s *goScan) scoped() []string {
	return append([]string(nil), s.scope...)
}

// assignmentLeft returns the text left of an assignment operator.
// Comparison and compound operators do not count: a == b, a <= b and
// x += 1 are not plain assignments.
func assignmentLeft(line string) (string, bool) {
	if i := strings.Index(line, ":="); i >= 0 {
		return line[:i], true
	}
	for i := 0; i < len(line); i++ {
		if line[i] != '=' {
			continue
		}
		if i+1 < len(line) && line[i+1] == '=' {
			i++
			continue
		}
		if i > 0 && strings.IndexByte("=!<>+-*/%&|^:", line[i-1]) >= 0 {
			continue
		}
		return line[:i], true
	}
	return "", false
}

// stripBlockComment removes /*...*/ spans from one line. When an opener
// has no closer on the same line the remainder is dropped and open is
// true: the caller enters comment mode until a closer appears.
func stripBlockComment(s string) (text string, open bool) {
	for {
		start := strings.Index(s, "/*")
		if start < 0 {
			return s, false
		}
		end := strings.Index(s[start+2:], "*/")
		if end < 0 {
			return s[:start], true
		}
		s = s[:start] + " " + s[start+2+end+2:]
	}
}

// stripStrings blanks the contents of double-quoted strings so literal
// text is never mistaken for code. A backslash escapes the next
// character; an unterminated string drops the rest of the line.
func stripStrings(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	in := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if in {
			if c == '\\' {
				i++
				continue
			}
			if c == '"' {
				in = false
				b.WriteByte('"')
			}
			continue
		}
		b.WriteByte(c)
		if c == '"' {
			in = true
		}
	}
	return b.String()
}

func isIdent(s string) bool {
	return s != "" && goIdentRe.FindString(s) == s
}

func identSegments(segs []string) bool {
	for _, seg := range segs {
		if !isIdent(seg) {
			return false
		}
	}
	return true
}
