package board

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/OpenTraceLab/OpenTraceBreadboard/internal/logx"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/current"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/grid"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/layer"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/layout"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/scene"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func pt(x, y int) layout.Point { return layout.Point{X: x, Y: y} }

func newBoard(t *testing.T, name string) *Breadboard {
	t.Helper()
	opts := DefaultOptions()
	opts.Layout = name
	opts.Logger = logx.Discard()
	opts.Clock = current.NewManualClock(epoch)
	b, err := New(opts, nil)
	if err != nil {
		t.Fatalf("New(%s) error: %v", name, err)
	}
	return b
}

func TestNewUnknownLayout(t *testing.T) {
	opts := DefaultOptions()
	opts.Layout = "nope"
	opts.Logger = logx.Discard()
	if _, err := New(opts, nil); !errors.Is(err, layout.ErrNotFound) {
		t.Errorf("New() error = %v, want ErrNotFound", err)
	}
}

func TestLayerOrder(t *testing.T) {
	b := newBoard(t, "mini")
	root := b.Scene(epoch)
	if len(root.Children) != len(LayerNames) {
		t.Fatalf("scene has %d layers, want %d", len(root.Children), len(LayerNames))
	}
	for i, n := range root.Children {
		if n.NodeID() != LayerNames[i] {
			t.Errorf("layer %d = %s, want %s", i, n.NodeID(), LayerNames[i])
		}
	}
}

func TestShortCircuitEvents(t *testing.T) {
	b := newBoard(t, "mini")
	var start, end, any int
	b.OnShortCircuitStart(func() {
		start++
		// Handlers run after the board is unlocked.
		if !b.ShortCircuit() {
			t.Error("start fired without a short circuit")
		}
	})
	b.OnShortCircuitEnd(func() { end++ })
	b.OnShortCircuit(func() { any++ })
	b.OnShortCircuit(nil)

	burn := []current.Thread{{From: pt(0, 0), To: pt(2, 0), Weight: 3}}
	for range 2 {
		if err := b.SetCurrents(burn, nil); err != nil {
			t.Fatal(err)
		}
	}
	if start != 1 || any != 2 || end != 0 {
		t.Fatalf("after burning reports: start=%d any=%d end=%d", start, any, end)
	}
	if err := b.SetCurrents(nil, nil); err != nil {
		t.Fatal(err)
	}
	if end != 1 {
		t.Errorf("end fired %d times, want 1", end)
	}
}

func TestSetLayout(t *testing.T) {
	b := newBoard(t, "mini")
	if err := b.SetCurrents([]current.Thread{{From: pt(0, 0), To: pt(2, 0), Weight: 4}}, nil); err != nil {
		t.Fatal(err)
	}
	var ended bool
	b.OnShortCircuitEnd(func() { ended = true })

	if err := b.SetLayout("missing"); !errors.Is(err, layout.ErrNotFound) {
		t.Fatalf("SetLayout(missing) error = %v", err)
	}
	if b.Options().Layout != "mini" || len(b.Currents()) != 1 || ended {
		t.Fatal("failed SetLayout changed the board")
	}

	if err := b.SetLayout("basic"); err != nil {
		t.Fatal(err)
	}
	if got := b.Grid().Layout().Name; got != "basic" {
		t.Errorf("layout = %s, want basic", got)
	}
	if len(b.Currents()) != 0 || b.ShortCircuit() {
		t.Error("simulation state survived a layout change")
	}
	if !ended {
		t.Error("layout change did not end the short circuit")
	}
}

func TestRedrawKeepsState(t *testing.T) {
	b := newBoard(t, "basic")
	th := []current.Thread{{From: pt(0, 1), To: pt(0, 4), Weight: 0.5}}
	if err := b.SetCurrents(th, map[int]float64{2: 3.3}); err != nil {
		t.Fatal(err)
	}
	id := b.Currents()[0].ID
	if err := b.Redraw(true, false, true); err != nil {
		t.Fatal(err)
	}
	root := b.Scene(epoch.Add(time.Second))
	if root.Find(id) == nil {
		t.Error("current line lost on redraw")
	}
	if root.Find("voltage-2-label") == nil {
		t.Error("verbose redraw lacks voltage label")
	}
	if o := b.Options(); !o.Schematic || o.Detailed || !o.Verbose {
		t.Errorf("options after Redraw = %+v", o)
	}
}

func TestParticles(t *testing.T) {
	b := newBoard(t, "basic")
	if err := b.SetCurrents([]current.Thread{{From: pt(0, 1), To: pt(0, 4), Weight: 0.5}}, nil); err != nil {
		t.Fatal(err)
	}
	now := epoch.Add(700 * time.Millisecond)
	want := len(b.Currents()[0].Snapshot(now))
	if got := len(b.Particles(now)); got != want {
		t.Errorf("Particles() = %d, want %d", got, want)
	}

	b.SetSpare(true)
	b.SetCurrents(nil, nil)
	b.SetCurrents([]current.Thread{{From: pt(0, 1), To: pt(0, 4), Weight: 0.5}}, nil)
	if b.Currents()[0].Active() || len(b.Particles(now)) != 0 {
		t.Error("spare mode animates particles")
	}
}

func TestStructure(t *testing.T) {
	b := newBoard(t, "arduino")
	s, err := b.Structure()
	if err != nil {
		t.Fatal(err)
	}
	for _, p := range s.EmbeddedPlates {
		if p.Kind == grid.PlateArduinoPin {
			t.Fatal("pins embedded without EmbedArduino")
		}
	}

	opts := DefaultOptions()
	opts.Layout = "arduino"
	opts.EmbedArduino = true
	opts.Logger = logx.Discard()
	b, err = New(opts, nil)
	if err != nil {
		t.Fatal(err)
	}
	if s, err = b.Structure(); err != nil {
		t.Fatal(err)
	}
	pins := 0
	for _, p := range s.EmbeddedPlates {
		if p.Kind == grid.PlateArduinoPin {
			pins++
		}
	}
	if pins != 6 {
		t.Errorf("embedded pins = %d, want 6", pins)
	}
}

func TestPlateMenu(t *testing.T) {
	b := newBoard(t, "basic")
	if err := b.AddPlate(layer.Plate{ID: "r1", Kind: "resistor", Points: []layout.Point{pt(1, 1), pt(1, 3)}}); err != nil {
		t.Fatal(err)
	}
	if err := b.OpenPlateMenu("r1"); err != nil {
		t.Fatal(err)
	}
	if m, ok := b.Menu(); !ok || m.Target != "r1" {
		t.Fatalf("Menu() = %+v, %v", m, ok)
	}
	if err := b.SelectMenuItem(1); err != nil {
		t.Fatal(err)
	}
	if len(b.Plates()) != 0 {
		t.Error("Remove menu item kept the plate")
	}
}

func TestPlateAt(t *testing.T) {
	b := newBoard(t, "basic")
	if err := b.AddPlate(layer.Plate{ID: "r1", Kind: "resistor", Points: []layout.Point{pt(1, 1), pt(1, 3)}}); err != nil {
		t.Fatal(err)
	}
	on, err := b.Grid().Cell(1, 3, grid.BorderNone)
	if err != nil {
		t.Fatal(err)
	}
	off, err := b.Grid().Cell(2, 2, grid.BorderNone)
	if err != nil {
		t.Fatal(err)
	}
	if p, ok := b.PlateAt(on.Center); !ok || p.ID != "r1" {
		t.Errorf("PlateAt(%v) = %q, %v", on.Center, p.ID, ok)
	}
	if _, ok := b.PlateAt(off.Center); ok {
		t.Errorf("PlateAt(%v) found a plate on a free cell", off.Center)
	}
}

func TestVisibility(t *testing.T) {
	v := NewVisibility()
	if !v.IsVisible(LayerLabel) {
		t.Fatal("layers start hidden")
	}
	v.ShowOnly(LayerBackground, LayerCurrent)
	tests := map[string]bool{LayerBackground: true, LayerCurrent: true, LayerLabel: false, LayerMenu: false}
	for name, want := range tests {
		if got := v.IsVisible(name); got != want {
			t.Errorf("IsVisible(%s) = %v, want %v", name, got, want)
		}
	}
	v.ShowAll()
	if !v.IsVisible(LayerLabel) {
		t.Error("ShowAll() left a layer hidden")
	}

	b := newBoard(t, "mini")
	v.ShowCircuitOnly()
	b.SetVisibility(v)
	texts := b.Scene(epoch).Count(func(n scene.Node) bool { _, ok := n.(*scene.Text); return ok })
	if texts != 0 {
		t.Errorf("hidden label layer still shows %d texts", texts)
	}
	b.ToggleLayer(LayerLabel)
	if !b.Visibility().IsVisible(LayerLabel) {
		t.Error("ToggleLayer() did not show the label layer")
	}
}

func TestLoadOptions(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		t.Helper()
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		return p
	}

	p := write("ok.toml", `
layout = "arduino"
verbose = true
theme = "nord"

[animation]
animation_delta = 150.0
duration_min = "1s"
`)
	o, err := LoadOptions(p)
	if err != nil {
		t.Fatal(err)
	}
	if o.Layout != "arduino" || !o.Verbose || o.Theme != "nord" {
		t.Errorf("options = %+v", o)
	}
	if o.Animation.AnimationDelta != 150 || o.Animation.DurationMin != time.Second {
		t.Errorf("animation = %+v", o.Animation)
	}
	if o.Animation.DurationMax != current.DefaultConfig().DurationMax || !o.Detailed {
		t.Error("missing keys lost their defaults")
	}

	tests := []struct {
		name, body, want string
	}{
		{"unknown key", `colour = "red"`, "unknown key"},
		{"bad theme", `theme = "neon"`, "unknown theme"},
		{"bad level", `log_level = "loud"`, "unknown level"},
		{"bad durations", "[animation]\nduration_min = \"10s\"", "exceeds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadOptions(write(strings.ReplaceAll(tt.name, " ", "_")+".toml", tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("LoadOptions() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestWriteOptions(t *testing.T) {
	var sb strings.Builder
	if err := WriteOptions(&sb, DefaultOptions()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(sb.String(), `layout = "basic"`) {
		t.Errorf("encoded options:\n%s", sb.String())
	}
	if strings.Contains(sb.String(), "Logger") {
		t.Error("runtime fields encoded")
	}
}
