// Package lsexp reads the S-expressions of breadboard layout files and
// provides typed helpers for walking the parsed tree.
package lsexp

import "strings"

// Sexp is either a Symbol or a List.
type Sexp interface {
	IsLeaf() bool
	String() string
}

// Symbol is an atom. Quoted strings and numbers are symbols too; the
// quotes are gone after parsing.
type Symbol string

func (Symbol) IsLeaf() bool     { return true }
func (s Symbol) String() string { return string(s) }

// List is a parenthesised sequence. By convention its first element is a
// symbol naming the node, as in (dim 10 6).
type List []Sexp

func (List) IsLeaf() bool { return false }

func (l List) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, elem := range l {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(elem.String())
	}
	b.WriteByte(')')
	return b.String()
}
