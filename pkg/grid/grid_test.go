package grid

import (
	"errors"
	"testing"

	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/layout"
)

func square(n int) *layout.Layout {
	return &layout.Layout{
		Name: "square",
		Dim:  layout.Point{X: n, Y: n},
		Size: layout.Vec{X: float64(n * 10), Y: float64(n * 10)},
		Gap:  layout.Vec{X: 1, Y: 1},
		Wrap: layout.Point{X: 1, Y: 1},
	}
}

func mustGrid(t *testing.T, l *layout.Layout) *Grid {
	t.Helper()
	g, err := New(l)
	if err != nil {
		t.Fatalf("New(%s) error: %v", l.Name, err)
	}
	return g
}

func builtin(t *testing.T, name string) *Grid {
	t.Helper()
	repo, err := layout.NewBuiltinRepository()
	if err != nil {
		t.Fatalf("NewBuiltinRepository() error: %v", err)
	}
	l, err := repo.Lookup(name)
	if err != nil {
		t.Fatalf("Lookup(%s) error: %v", name, err)
	}
	return mustGrid(t, l)
}

func TestCellBorderPolicies(t *testing.T) {
	g := mustGrid(t, square(3))

	tests := []struct {
		name   string
		i, j   int
		border BorderType
		want   layout.Point
	}{
		{"inside", 1, 2, BorderNone, layout.Point{X: 1, Y: 2}},
		{"wrap negative", -1, 0, BorderWrap, layout.Point{X: 2, Y: 0}},
		{"wrap far", 7, -4, BorderWrap, layout.Point{X: 1, Y: 2}},
		{"replicate high", 5, 0, BorderReplicate, layout.Point{X: 2, Y: 0}},
		{"replicate both", -3, 9, BorderReplicate, layout.Point{X: 0, Y: 2}},
		{"reflect -1", -1, 0, BorderReflect, layout.Point{X: 0, Y: 0}},
		{"reflect -2", -2, 0, BorderReflect, layout.Point{X: 1, Y: 0}},
		{"reflect dim", 3, 4, BorderReflect, layout.Point{X: 2, Y: 1}},
		{"reflect period", 6, 0, BorderReflect, layout.Point{X: 0, Y: 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := g.Cell(tt.i, tt.j, tt.border)
			if err != nil {
				t.Fatalf("Cell(%d,%d,%s) error: %v", tt.i, tt.j, tt.border, err)
			}
			if c.Idx != tt.want {
				t.Errorf("Cell(%d,%d,%s) = %v, want %v", tt.i, tt.j, tt.border, c.Idx, tt.want)
			}
		})
	}
}

func TestCellEquivalence(t *testing.T) {
	g := mustGrid(t, square(3))

	wrapped, err := g.Cell(-1, 0, BorderWrap)
	if err != nil {
		t.Fatal(err)
	}
	plain, err := g.Cell(2, 0, BorderNone)
	if err != nil {
		t.Fatal(err)
	}
	if wrapped != plain {
		t.Errorf("cell(-1,0,Wrap) = %v, want %v", wrapped, plain)
	}

	clamped, err := g.Cell(5, 0, BorderReplicate)
	if err != nil {
		t.Fatal(err)
	}
	if clamped != plain {
		t.Errorf("cell(5,0,Replicate) = %v, want %v", clamped, plain)
	}

	if _, err := g.Cell(-1, 0, BorderNone); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("cell(-1,0,None) error = %v, want ErrOutOfRange", err)
	}
}

func TestCellGeometry(t *testing.T) {
	l := square(3)
	l.Pos = layout.Vec{X: 100, Y: 50}
	g := mustGrid(t, l)

	c, _ := g.Cell(1, 2, BorderNone)
	if c.Pos != (layout.Vec{X: 111, Y: 71}) {
		t.Errorf("Pos = %v", c.Pos)
	}
	if c.Size != (layout.Vec{X: 8, Y: 8}) {
		t.Errorf("Size = %v", c.Size)
	}
	if c.Center != (layout.Vec{X: 115, Y: 75}) {
		t.Errorf("Center = %v", c.Center)
	}
	if !c.Contains(115, 75) || c.Contains(110.5, 75) {
		t.Error("Contains() disagrees with cell body")
	}
}

func TestCellByPos(t *testing.T) {
	g := mustGrid(t, square(3))

	tests := []struct {
		x, y float64
		want layout.Point
	}{
		{15, 25, layout.Point{X: 1, Y: 2}},
		{-40, 5, layout.Point{X: 0, Y: 0}},
		{400, 400, layout.Point{X: 2, Y: 2}},
		{29.99, 0, layout.Point{X: 2, Y: 0}},
	}
	for _, tt := range tests {
		c, err := g.CellByPos(tt.x, tt.y, BorderNone)
		if err != nil {
			t.Fatalf("CellByPos(%v,%v) error: %v", tt.x, tt.y, err)
		}
		if c.Idx != tt.want {
			t.Errorf("CellByPos(%v,%v) = %v, want %v", tt.x, tt.y, c.Idx, tt.want)
		}
	}
}

func TestAuxPoints(t *testing.T) {
	g := builtin(t, "arduino")

	vcc := g.AuxPoint("Vcc")
	if vcc == nil || vcc.Idx != (layout.Point{X: -1, Y: 0}) {
		t.Fatalf("Vcc = %+v", vcc)
	}
	if gnd := g.AuxPointAt(-1, 11); gnd == nil || gnd.Name != "Gnd" {
		t.Errorf("AuxPointAt(-1,11) = %+v", gnd)
	}
	if g.AuxPoint("U3Vcc") != nil {
		t.Error("arduino layout does not carry usb3")
	}
	if g.AuxPointAt(4, 4) != nil {
		t.Error("matrix cell reported as aux point")
	}

	// Two points share each side column.
	if ap := g.AuxPointInColumn(-1); ap != nil {
		t.Errorf("ambiguous column lookup returned %s", ap.Name)
	}
	if ap := g.AuxPointInColumn(10); ap != nil {
		t.Errorf("ambiguous column lookup returned %s", ap.Name)
	}
	if ap := g.AuxPointInColumn(3); ap != nil {
		t.Errorf("empty column lookup returned %s", ap.Name)
	}
}

func TestAuxPointCollision(t *testing.T) {
	l := square(3)
	l.Dim.Y = 1
	l.Size.Y = 10
	l.Aux = []layout.AuxCategory{layout.AuxVoltageSource}
	// Vcc and Gnd land on the same point with a single row.
	if _, err := New(l); !errors.Is(err, ErrInvalidLayout) {
		t.Fatalf("New() error = %v, want ErrInvalidLayout", err)
	}
}

func TestVirtualPoints(t *testing.T) {
	g := builtin(t, "basic")

	if p := g.VirtualPoint(-2, 0); p == nil {
		t.Fatal("virtual point (-2,0) not registered")
	}
	if p := g.VirtualPoint(0, 0); p != nil {
		t.Errorf("matrix point reported as virtual: %v", p)
	}

	plus := g.LineAt(layout.Point{X: -2, Y: 0})
	if plus == nil || plus.Role != layout.RolePlus {
		t.Fatalf("virtual point not attached to plus rail: %+v", plus)
	}
	if len(plus.Points) != 11 {
		t.Errorf("plus rail has %d points, want 11", len(plus.Points))
	}
	if _, ok := g.PointPos(layout.Point{X: -2, Y: 0}); !ok {
		t.Error("PointPos() does not resolve virtual point")
	}
	if _, ok := g.PointPos(layout.Point{X: -5, Y: 0}); ok {
		t.Error("PointPos() resolved an unknown point")
	}
}

func TestLines(t *testing.T) {
	g := builtin(t, "basic")

	// 2 rails + 10 columns + 10 columns + bridge row.
	lines := g.Lines()
	if len(lines) != 23 {
		t.Fatalf("basic has %d lines, want 23", len(lines))
	}
	for i, l := range lines {
		if l.ID != i {
			t.Errorf("line %d has ID %d", i, l.ID)
		}
	}

	col := g.LineAt(layout.Point{X: 3, Y: 2})
	if col == nil || len(col.Points) != 4 || col.Points[0] != (layout.Point{X: 3, Y: 1}) {
		t.Errorf("column line = %+v", col)
	}
	if g.LineAt(layout.Point{X: 3, Y: 1}) != col {
		t.Error("points of one column resolved to different lines")
	}
	if col.Domain != 2 {
		t.Errorf("column line domain = %d, want 2", col.Domain)
	}
}

func TestOverlappingDomains(t *testing.T) {
	l := square(3)
	l.Domains = []layout.Domain{
		{Range: layout.Range{To: layout.Point{X: 2}}, Horizontal: true},
		{Range: layout.Range{To: layout.Point{Y: 2}}},
	}
	if _, err := New(l); !errors.Is(err, ErrInvalidLayout) {
		t.Fatalf("New() error = %v, want ErrInvalidLayout", err)
	}
}

func analogLayout(minus layout.Range, state layout.PinState) *layout.Layout {
	return &layout.Layout{
		Name: "analog",
		Dim:  layout.Point{X: 4, Y: 3},
		Size: layout.Vec{X: 40, Y: 30},
		Wrap: layout.Point{X: 1, Y: 1},
		Domains: []layout.Domain{
			{Range: layout.Range{To: layout.Point{X: 3}}, Horizontal: true, Role: layout.RolePlus},
			{Range: layout.Range{From: layout.Point{Y: 1}, To: layout.Point{X: 3, Y: 1}}, Horizontal: true, Role: layout.RoleMinus},
			{
				Range:           layout.Range{From: layout.Point{Y: 2}, To: layout.Point{X: 2, Y: 2}},
				Horizontal:      true,
				Role:            layout.RoleAnalog,
				Minus:           &minus,
				PinStateInitial: state,
			},
		},
	}
}

func TestAnalogMinusMapping(t *testing.T) {
	tests := []struct {
		name    string
		minus   layout.Range
		wantErr bool
	}{
		{"equal length", layout.Range{From: layout.Point{Y: 1}, To: layout.Point{X: 2, Y: 1}}, false},
		{"single point", layout.Range{From: layout.Point{X: 3, Y: 1}, To: layout.Point{X: 3, Y: 1}}, false},
		{"mismatch", layout.Range{From: layout.Point{Y: 1}, To: layout.Point{X: 1, Y: 1}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := New(analogLayout(tt.minus, layout.PinOutput))
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidLayout) {
					t.Fatalf("New() error = %v, want ErrInvalidLayout", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("New() error: %v", err)
			}
			pts := tt.minus.Points()
			for i := 0; i < 3; i++ {
				line := g.LineAt(layout.Point{X: i, Y: 2})
				want := pts[0]
				if len(pts) > 1 {
					want = pts[i]
				}
				if line == nil || !line.Analog() || *line.Minus != want {
					t.Errorf("analog line %d = %+v, want minus %v", i, line, want)
				}
			}
		})
	}
}

func TestElectricalStructure(t *testing.T) {
	minus := layout.Range{From: layout.Point{Y: 1}, To: layout.Point{X: 2, Y: 1}}

	t.Run("fold input", func(t *testing.T) {
		g := mustGrid(t, analogLayout(minus, layout.PinInput))
		s, err := g.ElectricalStructure(false)
		if err != nil {
			t.Fatal(err)
		}
		if len(s.CellStruct[0]) != 7 {
			t.Errorf("plus line has %d points, want 7", len(s.CellStruct[0]))
		}
		if len(s.CellStruct) != 2 || len(s.EmbeddedPlates) != 0 {
			t.Errorf("unexpected structure: %+v", s)
		}
	})

	t.Run("fold output", func(t *testing.T) {
		g := mustGrid(t, analogLayout(minus, layout.PinOutput))
		s, err := g.ElectricalStructure(false)
		if err != nil {
			t.Fatal(err)
		}
		if len(s.CellStruct[1]) != 7 || len(s.CellStruct[0]) != 4 {
			t.Errorf("unexpected folding: %+v", s.CellStruct)
		}
	})

	t.Run("fold output ground on plus line", func(t *testing.T) {
		onPlus := layout.Range{To: layout.Point{X: 2}}
		g := mustGrid(t, analogLayout(onPlus, layout.PinOutput))
		s, err := g.ElectricalStructure(false)
		if err != nil {
			t.Fatal(err)
		}
		if len(s.CellStruct[0]) != 4 || len(s.CellStruct[1]) != 7 {
			t.Errorf("output folded into a non-minus line: %+v", s.CellStruct)
		}
	})

	t.Run("embed", func(t *testing.T) {
		g := builtin(t, "arduino")
		s, err := g.ElectricalStructure(true)
		if err != nil {
			t.Fatal(err)
		}
		var sources, pins int
		for _, p := range s.EmbeddedPlates {
			switch p.Kind {
			case PlateVoltageSource:
				sources++
			case PlateArduinoPin:
				pins++
			}
		}
		if sources != 2 || pins != 6 {
			t.Fatalf("sources = %d, pins = %d, want 2 and 6", sources, pins)
		}
		last := s.EmbeddedPlates[len(s.EmbeddedPlates)-1]
		if last.Properties["pin"] != "A5" || last.Points[1] != (layout.Point{X: 5, Y: 10}) {
			t.Errorf("last pin plate = %+v", last)
		}
	})
}
