package lsexp

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// sexpLexer splits layout files into parens, quoted strings and bare
// symbols. Comments run from ';' or '#' to end of line.
var sexpLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `[;#][^\n]*`},
	{Name: "Whitespace", Pattern: `\s+`},
	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},
	{Name: "Paren", Pattern: `[()]`},
	{Name: "Symbol", Pattern: `[^\s()";]+`},
})

type document struct {
	Forms []*node `@@*`
}

type node struct {
	Atom *string `  @(String | Symbol)`
	List *list   `| @@`
}

type list struct {
	Open  bool    `@"("`
	Items []*node `@@* ")"`
}

var parser = participle.MustBuild[document](
	participle.Lexer(sexpLexer),
	participle.Elide("Comment", "Whitespace"),
	participle.Unquote("String"),
)

func (n *node) sexp() Sexp {
	if n.Atom != nil {
		return Symbol(*n.Atom)
	}
	l := make(List, len(n.List.Items))
	for i, item := range n.List.Items {
		l[i] = item.sexp()
	}
	return l
}

// ParseNamed parses every top-level S-expression. name appears in error
// positions.
func ParseNamed(name string, r io.Reader) ([]Sexp, error) {
	doc, err := parser.Parse(name, r)
	if err != nil {
		return nil, fmt.Errorf("lsexp: %w", err)
	}
	forms := make([]Sexp, len(doc.Forms))
	for i, f := range doc.Forms {
		forms[i] = f.sexp()
	}
	return forms, nil
}

// Parse parses every top-level S-expression from r.
func Parse(r io.Reader) ([]Sexp, error) {
	return ParseNamed("", r)
}

// ParseString parses S-expressions held in memory.
func ParseString(s string) ([]Sexp, error) {
	return Parse(strings.NewReader(s))
}
