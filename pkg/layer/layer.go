// Package layer composes a breadboard from independent drawing layers.
//
// Every layer owns one scene group and rebuilds it completely on Recompose.
// Layers never reference the menu or popup host directly; they receive
// callbacks once and call through them.
package layer

import (
	"github.com/OpenTraceLab/OpenTraceBreadboard/internal/logx"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/grid"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/layout"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/render/theme"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/scene"
)

// Mode is the display mode shared by all layers.
type Mode struct {
	Schematic bool
	Detailed  bool
	Verbose   bool
}

// Layer is the lifecycle every board layer implements.
type Layer interface {
	Name() string
	Root() *scene.Group
	Compose() error
	Recompose(m Mode) error
	Hide()
	Show()
	Toggle()
	Visible() bool
	OnContextMenuCall(fn ContextMenuFunc)
	SetPopupHost(p PopupFuncs)
}

// MenuItem is one entry of a context menu.
type MenuItem struct {
	Label  string
	Action func()
}

// MenuRequest asks the menu host to open a context menu.
type MenuRequest struct {
	Layer  string
	Target string
	Pos    layout.Vec
	Items  []MenuItem
}

// ContextMenuFunc opens a context menu on the host.
type ContextMenuFunc func(req MenuRequest)

// Popup is a small informational box anchored on the board.
type Popup struct {
	ID     string
	Title  string
	Lines  []string
	Anchor layout.Vec
}

// PopupFuncs are the popup host callbacks handed to every layer.
type PopupFuncs struct {
	Draw  func(p Popup)
	Show  func(id string)
	Hide  func(id string)
	Clear func(id string)
}

// Deps are the collaborators shared by all layers of a board.
type Deps struct {
	Grid    *grid.Grid
	Palette *theme.Palette
	Log     *logx.Logger
}

// Base implements the parts of Layer common to all layers. Concrete layers
// embed it and provide Compose and Recompose.
type Base struct {
	name    string
	grid    *grid.Grid
	palette *theme.Palette
	log     *logx.Logger
	mode    Mode
	root    *scene.Group

	contextMenu ContextMenuFunc
	popup       PopupFuncs
}

func newBase(name string, deps Deps) Base {
	p := deps.Palette
	if p == nil {
		p = theme.Get(theme.ThemeClassic)
	}
	return Base{
		name:    name,
		grid:    deps.Grid,
		palette: p,
		log:     deps.Log,
		root:    scene.NewGroup(name, "layer"),
	}
}

func (b *Base) Name() string       { return b.name }
func (b *Base) Root() *scene.Group { return b.root }
func (b *Base) Mode() Mode         { return b.mode }
func (b *Base) Hide()              { b.root.Hidden = true }
func (b *Base) Show()              { b.root.Hidden = false }
func (b *Base) Toggle()            { b.root.Hidden = !b.root.Hidden }
func (b *Base) Visible() bool      { return !b.root.Hidden }

// OnContextMenuCall installs the menu host callback.
func (b *Base) OnContextMenuCall(fn ContextMenuFunc) { b.contextMenu = fn }

// SetPopupHost installs the popup host callbacks.
func (b *Base) SetPopupHost(p PopupFuncs) { b.popup = p }

func (b *Base) callContextMenu(target string, pos layout.Vec, items []MenuItem) {
	if b.contextMenu == nil {
		b.log.Debugf("%s: context menu for %s dropped, no host", b.name, target)
		return
	}
	b.contextMenu(MenuRequest{Layer: b.name, Target: target, Pos: pos, Items: items})
}

func (b *Base) drawPopup(p Popup) {
	if b.popup.Draw != nil {
		b.popup.Draw(p)
	}
}

func (b *Base) showPopup(id string) {
	if b.popup.Show != nil {
		b.popup.Show(id)
	}
}

func (b *Base) hidePopup(id string) {
	if b.popup.Hide != nil {
		b.popup.Hide(id)
	}
}

func (b *Base) clearPopup(id string) {
	if b.popup.Clear != nil {
		b.popup.Clear(id)
	}
}

// reset drops the layer content, keeping visibility.
func (b *Base) reset() {
	b.root.Clear()
}

func vecPoint(v layout.Vec) scene.Point {
	return scene.Point{X: v.X, Y: v.Y}
}
