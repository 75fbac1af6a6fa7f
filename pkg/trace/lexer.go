package trace

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// TraceLexer tokenizes trace files. Keywords are plain identifiers matched
// by the grammar.
var TraceLexer = lexer.MustSimple([]lexer.SimpleRule{
	// Shell or C++ style comments to end of line
	{Name: "Comment", Pattern: `(?:#|//)[^\n]*`},
	{Name: "Whitespace", Pattern: `[\s\t\n\r]+`},

	{Name: "String", Pattern: `"(?:[^"\\]|\\.)*"`},
	{Name: "Arrow", Pattern: `->`},
	{Name: "Number", Pattern: `[-+]?(?:[0-9]+\.?[0-9]*|\.[0-9]+)(?:[eE][-+]?[0-9]+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "Punct", Pattern: `[(),:;{}]`},
})
