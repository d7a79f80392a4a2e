package extract

import (
	"os"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

const (
	pythonExtractorID      = "python-ast"
	pythonExtractorVersion = 2
)

// PythonExtractor adapts the tree-sitter Python grammar to the
// extractor contract. Unlike the line-state Go scanner it walks a real
// syntax tree; the records it emits have the same shape.
type PythonExtractor struct {
	language *sitter.Language
}

func NewPythonExtractor() *PythonExtractor {
	return &PythonExtractor{language: sitter.NewLanguage(python.Language())}
}

func (*PythonExtractor) ID() string   { return pythonExtractorID }
func (*PythonExtractor) Version() int { return pythonExtractorVersion }

func (*PythonExtractor) Matches(path string) bool {
	return strings.HasSuffix(path, ".py") || strings.HasSuffix(path, ".pyw")
}

func (p *PythonExtractor) Extract(path string, emit Emit) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	tree, ok := p.parse(source)
	if !ok {
		// Unparseable input contributes no records; the scan goes on.
		return nil
	}
	defer tree.Close()

	w := &pyWalk{
		file:   path,
		emit:   emit,
		source: source,
		lines:  strings.Split(string(source), "\n"),
	}
	w.node(tree.RootNode(), nil)
	return nil
}

// parse makes the skip decision explicit at the call site: a false
// result is a parse failure, not an error.
func (p *PythonExtractor) parse(source []byte) (*sitter.Tree, bool) {
	parser := sitter.NewParser()
	defer parser.Close()

	parser.SetLanguage(p.language)

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, false
	}
	return tree, true
}

type pyWalk struct {
	file   string
	emit   Emit
	source []byte
	lines  []string
}

func (w *pyWalk) node(n *sitter.Node, scope []string) {
	if n == nil {
		return
	}

	switch n.Kind() {
	case "class_definition":
		name := w.fieldText(n, "name")
		if name != "" {
			qualified := append(append([]string(nil), scope...), name)
			w.record(TableDefs, qualified, n, "c")
			if body := n.ChildByFieldName("body"); body != nil {
				w.children(body, qualified)
			}
			return
		}

	case "function_definition":
		name := w.fieldText(n, "name")
		if name != "" {
			kind := "f"
			if len(scope) > 0 {
				kind = "m"
			}
			qualified := append(append([]string(nil), scope...), name)
			w.record(TableDefs, qualified, n, kind)
			if body := n.ChildByFieldName("body"); body != nil {
				w.children(body, scope)
			}
			return
		}

	case "import_statement", "import_from_statement":
		w.importNode(n)
		return

	case "assignment":
		w.assignNode(n, scope)
		// Keep walking: the right side may contain calls.

	case "call":
		if fn := w.fieldText(n, "function"); fn != "" {
			segs := strings.Split(fn, ".")
			if identSegments(segs) {
				w.record(TableCalls, segs, n, "")
			}
		}
	}

	w.children(n, scope)
}

func (w *pyWalk) children(n *sitter.Node, scope []string) {
	for i := 0; i < int(n.ChildCount()); i++ {
		w.node(n.Child(uint(i)), scope)
	}
}

func (w *pyWalk) assignNode(n *sitter.Node, scope []string) {
	left := w.fieldText(n, "left")
	for _, tok := range strings.Split(left, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" || tok == "_" {
			continue
		}
		segs := strings.Split(tok, ".")
		if !identSegments(segs) {
			continue
		}
		if len(segs) == 1 {
			segs = append(append([]string(nil), scope...), tok)
		}
		w.record(TableAssigns, segs, n, "")
	}
}

func (w *pyWalk) importNode(n *sitter.Node) {
	if mod := n.ChildByFieldName("module_name"); mod != nil {
		w.record(TableImports, strings.Split(w.text(mod), "."), n, "i")
		return
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		c := n.Child(uint(i))
		switch c.Kind() {
		case "dotted_name":
			w.record(TableImports, strings.Split(w.text(c), "."), n, "i")
		case "aliased_import":
			if name := c.ChildByFieldName("name"); name != nil {
				w.record(TableImports, strings.Split(w.text(name), "."), n, "i")
			}
		}
	}
}

func (w *pyWalk) record(t Table, name []string, n *sitter.Node, kind string) {
	row := int(n.StartPosition().Row)
	var text string
	if row < len(w.lines) {
		text = w.lines[row]
	}
	w.emit(t, Record{Name: name, File: w.file, Line: row + 1, Text: text, Kind: kind})
}

func (w *pyWalk) text(n *sitter.Node) string {
	if n == nil {
		return ""
	}
	return string(w.source[n.StartByte():n.EndByte()])
}

func (w *pyWalk) fieldText(n *sitter.Node, field string) string {
	return w.text(n.ChildByFieldName(field))
}
