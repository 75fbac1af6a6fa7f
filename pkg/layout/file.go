package layout

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/layout/lsexp"
)

// Parse reads every (layout ...) form from r.
func Parse(r io.Reader) ([]*Layout, error) {
	return parse("", r)
}

func parse(name string, r io.Reader) ([]*Layout, error) {
	forms, err := lsexp.ParseNamed(name, r)
	if err != nil {
		return nil, fmt.Errorf("layout: parse error: %w", err)
	}

	var layouts []*Layout
	for _, form := range forms {
		if lsexp.KeyOf(form) != "layout" {
			return nil, fmt.Errorf("%w: expected (layout ...), got %s", ErrInvalidLayout, truncate(form.String()))
		}
		l, err := decodeLayout(form)
		if err != nil {
			return nil, err
		}
		layouts = append(layouts, l)
	}
	return layouts, nil
}

// ParseString parses layouts from a string.
func ParseString(s string) ([]*Layout, error) {
	return Parse(strings.NewReader(s))
}

// ParseFile parses layouts from a file path.
func ParseFile(filename string) ([]*Layout, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return parse(filename, file)
}

func decodeLayout(form lsexp.Sexp) (*Layout, error) {
	name, err := lsexp.GetString(form, 1)
	if err != nil {
		return nil, fmt.Errorf("%w: layout name: %v", ErrInvalidLayout, err)
	}
	l := &Layout{Name: name, Wrap: Point{X: 1, Y: 1}}

	if node, ok := lsexp.FindNode(form, "label"); ok {
		if l.Label, err = lsexp.GetString(node, 1); err != nil {
			return nil, layoutErr(name, err)
		}
	}

	if l.Dim, err = findPoint(form, "dim", true); err != nil {
		return nil, layoutErr(name, err)
	}
	if l.Size, err = findVec(form, "size", true); err != nil {
		return nil, layoutErr(name, err)
	}
	if l.Gap, err = findVec(form, "gap", false); err != nil {
		return nil, layoutErr(name, err)
	}
	if l.Pos, err = findVec(form, "pos", false); err != nil {
		return nil, layoutErr(name, err)
	}
	if _, ok := lsexp.FindNode(form, "wrap"); ok {
		if l.Wrap, err = findPoint(form, "wrap", true); err != nil {
			return nil, layoutErr(name, err)
		}
	}

	for _, aux := range lsexp.FindAllNodes(form, "aux") {
		for _, item := range lsexp.Items(aux)[1:] {
			l.Aux = append(l.Aux, AuxCategory(item.String()))
		}
	}

	for i, node := range lsexp.FindAllNodes(form, "domain") {
		d, err := decodeDomain(node)
		if err != nil {
			return nil, layoutErr(name, fmt.Errorf("domain %d: %w", i, err))
		}
		l.Domains = append(l.Domains, d)
	}

	return l, nil
}

func decodeDomain(node lsexp.Sexp) (Domain, error) {
	var d Domain
	r, err := decodeRange(node)
	if err != nil {
		return d, err
	}
	d.Range = r
	d.Horizontal = lsexp.HasFlag(node, "horizontal")

	if n, ok := lsexp.FindNode(node, "role"); ok {
		s, err := lsexp.GetString(n, 1)
		if err != nil {
			return d, err
		}
		if d.Role, err = ParseRole(s); err != nil {
			return d, err
		}
	}
	if n, ok := lsexp.FindNode(node, "virtual"); ok {
		vr, err := decodeRange(n)
		if err != nil {
			return d, fmt.Errorf("virtual: %w", err)
		}
		d.Virtual = &vr
	}
	if n, ok := lsexp.FindNode(node, "minus"); ok {
		mr, err := decodeRange(n)
		if err != nil {
			return d, fmt.Errorf("minus: %w", err)
		}
		d.Minus = &mr
	}
	if n, ok := lsexp.FindNode(node, "pin_state"); ok {
		s, err := lsexp.GetString(n, 1)
		if err != nil {
			return d, err
		}
		if d.PinStateInitial, err = ParsePinState(s); err != nil {
			return d, err
		}
	}
	if n, ok := lsexp.FindNode(node, "style"); ok {
		if d.Style, err = lsexp.GetString(n, 1); err != nil {
			return d, err
		}
	}
	return d, nil
}

// decodeRange reads (from X Y) and an optional (to X Y); a missing "to"
// produces a single-point range.
func decodeRange(node lsexp.Sexp) (Range, error) {
	from, err := findPoint(node, "from", true)
	if err != nil {
		return Range{}, err
	}
	to := from
	if _, ok := lsexp.FindNode(node, "to"); ok {
		if to, err = findPoint(node, "to", true); err != nil {
			return Range{}, err
		}
	}
	return Range{From: from, To: to}, nil
}

func findPoint(form lsexp.Sexp, key string, required bool) (Point, error) {
	node, ok := lsexp.FindNode(form, key)
	if !ok || node.IsLeaf() {
		if required {
			return Point{}, fmt.Errorf("missing (%s X Y)", key)
		}
		return Point{}, nil
	}
	x, y, err := lsexp.GetIntPair(node)
	if err != nil {
		return Point{}, err
	}
	return Point{X: x, Y: y}, nil
}

func findVec(form lsexp.Sexp, key string, required bool) (Vec, error) {
	node, ok := lsexp.FindNode(form, key)
	if !ok || node.IsLeaf() {
		if required {
			return Vec{}, fmt.Errorf("missing (%s X Y)", key)
		}
		return Vec{}, nil
	}
	x, y, err := lsexp.GetFloatPair(node)
	if err != nil {
		return Vec{}, err
	}
	return Vec{X: x, Y: y}, nil
}

func layoutErr(name string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrInvalidLayout, name, err)
}

func truncate(s string) string {
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}
