package lsexp

import (
	"fmt"
	"strconv"
)

// Items returns the elements of a list, or nil for an atom.
func Items(s Sexp) []Sexp {
	l, _ := s.(List)
	return l
}

// KeyOf returns the leading symbol of a list, or "" for atoms and empty lists.
func KeyOf(s Sexp) string {
	items := Items(s)
	if len(items) == 0 {
		return ""
	}
	sym, _ := items[0].(Symbol)
	return string(sym)
}

// children skips the key of a list.
func children(s Sexp) []Sexp {
	items := Items(s)
	if len(items) == 0 {
		return nil
	}
	return items[1:]
}

// FindNode returns the first child list keyed key, as (dim 10 6) for "dim".
// A bare symbol child equal to key matches too, which is how flags such as
// `horizontal` are written.
func FindNode(s Sexp, key string) (Sexp, bool) {
	for _, item := range children(s) {
		if sym, ok := item.(Symbol); ok {
			if string(sym) == key {
				return sym, true
			}
			continue
		}
		if KeyOf(item) == key {
			return item, true
		}
	}
	return nil, false
}

// FindAllNodes returns every child list keyed key, in file order.
func FindAllNodes(s Sexp, key string) []Sexp {
	var out []Sexp
	for _, item := range children(s) {
		if !item.IsLeaf() && KeyOf(item) == key {
			out = append(out, item)
		}
	}
	return out
}

// HasFlag reports whether a bare symbol flag is present among the children.
func HasFlag(s Sexp, flag string) bool {
	for _, item := range children(s) {
		if sym, ok := item.(Symbol); ok && string(sym) == flag {
			return true
		}
	}
	return false
}

// GetString returns the symbol at index. Index 0 is the key.
func GetString(s Sexp, index int) (string, error) {
	l, ok := s.(List)
	if !ok {
		return "", fmt.Errorf("expected a list, got %q", s)
	}
	if index < 0 || index >= len(l) {
		return "", fmt.Errorf("%s: index %d out of bounds (length %d)", KeyOf(l), index, len(l))
	}
	sym, ok := l[index].(Symbol)
	if !ok {
		return "", fmt.Errorf("%s: expected a value at %d, got %s", KeyOf(l), index, l[index])
	}
	return string(sym), nil
}

// GetFloat parses the symbol at index as a float64.
func GetFloat(s Sexp, index int) (float64, error) {
	str, err := GetString(s, index)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: bad number %q", KeyOf(s), str)
	}
	return v, nil
}

// GetInt parses the symbol at index as an int.
func GetInt(s Sexp, index int) (int, error) {
	str, err := GetString(s, index)
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("%s: bad integer %q", KeyOf(s), str)
	}
	return v, nil
}

// GetIntPair reads the two integers of a (key A B) node.
func GetIntPair(s Sexp) (int, int, error) {
	a, err := GetInt(s, 1)
	if err != nil {
		return 0, 0, err
	}
	b, err := GetInt(s, 2)
	return a, b, err
}

// GetFloatPair reads the two numbers of a (key A B) node.
func GetFloatPair(s Sexp) (float64, float64, error) {
	a, err := GetFloat(s, 1)
	if err != nil {
		return 0, 0, err
	}
	b, err := GetFloat(s, 2)
	return a, b, err
}
