// Package board is the programmatic surface of a breadboard: it owns the
// grid built from a layout and the stack of layers drawn on top of it, and
// accepts simulation reports.
package board

import (
	"fmt"
	"sync"
	"time"

	"github.com/OpenTraceLab/OpenTraceBreadboard/internal/logx"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/current"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/grid"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/layer"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/layout"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/render/theme"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/scene"
)

// Breadboard is a board built from a named layout. Its methods may be
// called from several goroutines, but reports must still arrive in order:
// every SetCurrents call is taken as the complete state of the circuit.
type Breadboard struct {
	mu sync.Mutex

	opts       Options
	repo       *layout.Repository
	log        *logx.Logger
	palette    *theme.Palette
	clock      current.Clock
	visibility *Visibility
	events     events

	grid   *grid.Grid
	layers *layerSet
	root   *scene.Group

	// short-circuit transitions seen while the lock is held, fired after
	// it is released so handlers may call back into the board
	pending []*[]Handler
}

type layerSet struct {
	background *layer.BackgroundLayer
	region     *layer.RegionLayer
	voltage    *layer.VoltageLayer
	plate      *layer.PlateLayer
	current    *layer.CurrentLayer
	label      *layer.LabelLayer
	popup      *layer.PopupLayer
	menu       *layer.MenuLayer
	all        []layer.Layer
}

// New builds a board. A nil repo uses the built-in layouts.
func New(opts Options, repo *layout.Repository) (*Breadboard, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if repo == nil {
		var err error
		if repo, err = layout.NewBuiltinRepository(); err != nil {
			return nil, err
		}
	}
	log := opts.Logger
	if log == nil {
		level, _ := logx.ParseLevel(opts.LogLevel)
		log = logx.NewStderr(level, "board: ")
	}
	clock := opts.Clock
	if clock == nil {
		clock = current.SystemClock{}
	}
	t, _ := theme.Parse(opts.Theme)

	b := &Breadboard{
		opts:       opts,
		repo:       repo,
		log:        log,
		palette:    theme.Get(t),
		clock:      clock,
		visibility: NewVisibility(),
		root:       scene.NewGroup("breadboard", "board"),
	}
	g, ls, err := b.build(opts.Layout)
	if err != nil {
		return nil, err
	}
	b.install(g, ls)
	return b, nil
}

// build constructs a grid and a fresh layer stack without touching the
// current board.
func (b *Breadboard) build(name string) (*grid.Grid, *layerSet, error) {
	l, err := b.repo.Lookup(name)
	if err != nil {
		return nil, nil, fmt.Errorf("board: %w", err)
	}
	g, err := grid.New(l)
	if err != nil {
		return nil, nil, fmt.Errorf("board: layout %s: %w", name, err)
	}

	deps := layer.Deps{Grid: g, Palette: b.palette, Log: b.log}
	ls := &layerSet{
		background: layer.NewBackgroundLayer(deps),
		region:     layer.NewRegionLayer(deps),
		voltage:    layer.NewVoltageLayer(deps),
		plate:      layer.NewPlateLayer(deps),
		current:    layer.NewCurrentLayer(deps, b.opts.Animation, b.clock),
		label:      layer.NewLabelLayer(deps),
		popup:      layer.NewPopupLayer(deps),
		menu:       layer.NewMenuLayer(deps),
	}
	ls.all = []layer.Layer{
		ls.background, ls.region, ls.voltage, ls.plate,
		ls.current, ls.label, ls.popup, ls.menu,
	}
	ls.current.SetShortCircuitHandlers(layer.ShortCircuitHandlers{
		Any:   func() { b.pending = append(b.pending, &b.events.any) },
		Start: func() { b.pending = append(b.pending, &b.events.start) },
		End:   func() { b.pending = append(b.pending, &b.events.end) },
	})
	for _, ly := range ls.all {
		ly.OnContextMenuCall(ls.menu.Request)
		ly.SetPopupHost(ls.popup.Funcs())
		if err := ly.Recompose(b.mode()); err != nil {
			return nil, nil, fmt.Errorf("board: compose %s: %w", ly.Name(), err)
		}
	}
	return g, ls, nil
}

func (b *Breadboard) install(g *grid.Grid, ls *layerSet) {
	b.grid = g
	b.layers = ls
	b.root.Clear()
	for _, ly := range ls.all {
		b.root.Add(ly.Root())
	}
	b.applyVisibility()
	b.log.Infof("layout %s: %dx%d, %d lines", g.Layout().Name, g.Dim().X, g.Dim().Y, len(g.Lines()))
}

func (b *Breadboard) mode() layer.Mode {
	return layer.Mode{Schematic: b.opts.Schematic, Detailed: b.opts.Detailed, Verbose: b.opts.Verbose}
}

// unlock releases the board and fires the events queued under the lock.
func (b *Breadboard) unlock() {
	pending := b.pending
	b.pending = nil
	b.mu.Unlock()
	for _, list := range pending {
		b.events.fire(list)
	}
}

// SetLayout rebuilds the board for another layout. Plates, regions and the
// simulation state are dropped. On error the previous board stays intact.
func (b *Breadboard) SetLayout(name string) error {
	b.mu.Lock()
	defer b.unlock()

	g, ls, err := b.build(name)
	if err != nil {
		return err
	}
	// Retire the old currents so a pending short circuit ends.
	if err := b.layers.current.SetCurrents(nil, b.opts.Spare, b.opts.ShowSource); err != nil {
		b.log.Warnf("%v", err)
	}
	b.opts.Layout = name
	b.install(g, ls)
	return nil
}

// SetCurrents applies a simulation report: the complete set of threads and
// the line voltages keyed by line ID. A nil voltage map keeps the previous
// voltages.
func (b *Breadboard) SetCurrents(threads []current.Thread, voltages map[int]float64) error {
	b.mu.Lock()
	defer b.unlock()

	err := b.layers.current.SetCurrents(threads, b.opts.Spare, b.opts.ShowSource)
	if voltages != nil {
		b.layers.voltage.SetVoltages(voltages)
	}
	return err
}

// SetPinsValues updates the analog pin readouts, keyed by pin name.
func (b *Breadboard) SetPinsValues(values map[string]float64) {
	b.mu.Lock()
	defer b.unlock()
	b.layers.label.SetPinsValues(values)
}

// Redraw switches display modes and recomposes every layer.
func (b *Breadboard) Redraw(schematic, detailed, verbose bool) error {
	b.mu.Lock()
	defer b.unlock()

	b.opts.Schematic, b.opts.Detailed, b.opts.Verbose = schematic, detailed, verbose
	for _, ly := range b.layers.all {
		if err := ly.Recompose(b.mode()); err != nil {
			return fmt.Errorf("board: recompose %s: %w", ly.Name(), err)
		}
	}
	return nil
}

// SetSpare switches the performance mode used by following reports.
func (b *Breadboard) SetSpare(spare bool) {
	b.mu.Lock()
	defer b.unlock()
	b.opts.Spare = spare
}

// AddPlate places a plate on the board.
func (b *Breadboard) AddPlate(p layer.Plate) error {
	b.mu.Lock()
	defer b.unlock()
	return b.layers.plate.AddPlate(p)
}

// SetPlates replaces every plate. On error the previous plates are kept.
func (b *Breadboard) SetPlates(plates []layer.Plate) error {
	b.mu.Lock()
	defer b.unlock()
	return b.layers.plate.SetPlates(plates)
}

// RemovePlate removes one plate.
func (b *Breadboard) RemovePlate(id string) error {
	b.mu.Lock()
	defer b.unlock()
	return b.layers.plate.RemovePlate(id)
}

// ClearPlates removes every plate.
func (b *Breadboard) ClearPlates() {
	b.mu.Lock()
	defer b.unlock()
	b.layers.plate.ClearPlates()
}

// Plates returns the placed plates.
func (b *Breadboard) Plates() []layer.Plate {
	b.mu.Lock()
	defer b.unlock()
	return b.layers.plate.Plates()
}

// PlateAt returns the plate covering the cell at a board position.
func (b *Breadboard) PlateAt(pos layout.Vec) (layer.Plate, bool) {
	b.mu.Lock()
	defer b.unlock()
	c, err := b.grid.CellByPos(pos.X, pos.Y, grid.BorderNone)
	if err != nil || !c.Contains(pos.X, pos.Y) {
		return layer.Plate{}, false
	}
	for _, p := range b.layers.plate.Plates() {
		for _, pt := range p.Points {
			if pt == c.Idx {
				return p, true
			}
		}
	}
	return layer.Plate{}, false
}

// OpenPlateMenu opens the context menu of a plate.
func (b *Breadboard) OpenPlateMenu(id string) error {
	b.mu.Lock()
	defer b.unlock()
	return b.layers.plate.PlateContextMenu(id)
}

// Menu returns the open context menu, if any.
func (b *Breadboard) Menu() (layer.MenuRequest, bool) {
	b.mu.Lock()
	defer b.unlock()
	return b.layers.menu.Current()
}

// SelectMenuItem runs an item of the open context menu.
func (b *Breadboard) SelectMenuItem(i int) error {
	b.mu.Lock()
	defer b.unlock()
	return b.layers.menu.Select(i)
}

// CloseMenu dismisses the open context menu.
func (b *Breadboard) CloseMenu() {
	b.mu.Lock()
	defer b.unlock()
	b.layers.menu.Close()
}

// HighlightRegion highlights a rectangle of cells and returns its ID.
func (b *Breadboard) HighlightRegion(from, to layout.Point, color string) (string, error) {
	b.mu.Lock()
	defer b.unlock()
	return b.layers.region.HighlightRegion(from, to, color)
}

// ClearRegions removes every highlight.
func (b *Breadboard) ClearRegions() {
	b.mu.Lock()
	defer b.unlock()
	b.layers.region.ClearRegions()
}

// Scene samples the animation at now and returns the board scene. The
// scene is only stable until the next call on the board; renderers running
// on another goroutine use View.
func (b *Breadboard) Scene(now time.Time) *scene.Group {
	b.mu.Lock()
	defer b.unlock()
	b.layers.current.Animate(now)
	return b.root
}

// View samples the animation at now and calls fn with the scene while the
// board is locked.
func (b *Breadboard) View(now time.Time, fn func(root *scene.Group)) {
	b.mu.Lock()
	defer b.unlock()
	b.layers.current.Animate(now)
	fn(b.root)
}

// Particles returns every visible particle at now.
func (b *Breadboard) Particles(now time.Time) []current.ParticleState {
	b.mu.Lock()
	defer b.unlock()
	var out []current.ParticleState
	for _, c := range b.layers.current.Currents() {
		out = append(out, c.Snapshot(now)...)
	}
	return out
}

// Currents returns the live currents.
func (b *Breadboard) Currents() []*current.Current {
	b.mu.Lock()
	defer b.unlock()
	return b.layers.current.Currents()
}

// ShortCircuit reports whether a current is burning.
func (b *Breadboard) ShortCircuit() bool {
	b.mu.Lock()
	defer b.unlock()
	return b.layers.current.ShortCircuit()
}

// Structure returns the electrical structure of the layout.
func (b *Breadboard) Structure() (grid.Structure, error) {
	b.mu.Lock()
	defer b.unlock()
	return b.grid.ElectricalStructure(b.opts.EmbedArduino)
}

// Grid returns the grid of the current layout.
func (b *Breadboard) Grid() *grid.Grid {
	b.mu.Lock()
	defer b.unlock()
	return b.grid
}

// Layouts lists the layouts the board can switch to.
func (b *Breadboard) Layouts() []string {
	return b.repo.Names()
}

// Options returns the options in effect.
func (b *Breadboard) Options() Options {
	b.mu.Lock()
	defer b.unlock()
	return b.opts
}

// Palette returns the colour palette of the board.
func (b *Breadboard) Palette() *theme.Palette { return b.palette }

// Visibility returns a copy of the layer visibility configuration.
func (b *Breadboard) Visibility() *Visibility {
	b.mu.Lock()
	defer b.unlock()
	return b.visibility.clone()
}

// SetVisibility applies a layer visibility configuration.
func (b *Breadboard) SetVisibility(v *Visibility) {
	b.mu.Lock()
	defer b.unlock()
	b.visibility = v.clone()
	b.applyVisibility()
}

// ToggleLayer flips the visibility of one layer.
func (b *Breadboard) ToggleLayer(name string) {
	b.mu.Lock()
	defer b.unlock()
	b.visibility.SetVisible(name, !b.visibility.IsVisible(name))
	b.applyVisibility()
}

func (b *Breadboard) applyVisibility() {
	for _, ly := range b.layers.all {
		if b.visibility.IsVisible(ly.Name()) {
			ly.Show()
		} else {
			ly.Hide()
		}
	}
}
