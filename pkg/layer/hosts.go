package layer

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/render/theme"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/scene"
)

// MenuLayer hosts the single open context menu of a board.
type MenuLayer struct {
	Base
	open *MenuRequest
}

// NewMenuLayer creates the menu host.
func NewMenuLayer(deps Deps) *MenuLayer {
	return &MenuLayer{Base: newBase("menu", deps)}
}

// Request is the ContextMenuFunc handed to other layers.
func (l *MenuLayer) Request(req MenuRequest) {
	l.open = &req
	l.Compose()
}

// Current returns the open menu, if any.
func (l *MenuLayer) Current() (MenuRequest, bool) {
	if l.open == nil {
		return MenuRequest{}, false
	}
	return *l.open, true
}

// Select runs the action of an item of the open menu and closes it.
func (l *MenuLayer) Select(i int) error {
	if l.open == nil {
		return fmt.Errorf("menu: no menu open")
	}
	if i < 0 || i >= len(l.open.Items) {
		return fmt.Errorf("menu: item %d out of range (%d items)", i, len(l.open.Items))
	}
	action := l.open.Items[i].Action
	l.Close()
	if action != nil {
		action()
	}
	return nil
}

// Close dismisses the open menu.
func (l *MenuLayer) Close() {
	l.open = nil
	l.Compose()
}

func (l *MenuLayer) Recompose(m Mode) error {
	l.mode = m
	return l.Compose()
}

func (l *MenuLayer) Compose() error {
	l.reset()
	if l.open == nil {
		return nil
	}
	const itemH, width = 18.0, 110.0
	g := l.root.Group("menu-"+l.open.Target, "menu")
	g.Add(&scene.Rect{
		ID: "menu-body", X: l.open.Pos.X, Y: l.open.Pos.Y,
		W: width, H: itemH*float64(len(l.open.Items)) + 4,
		Radius: 3,
		Style:  scene.Style{Fill: l.palette.Hex(theme.Menu), Stroke: l.palette.Hex(theme.LabelMuted), StrokeWidth: 1},
	})
	for i, item := range l.open.Items {
		g.Add(&scene.Text{
			ID: fmt.Sprintf("menu-item-%d", i),
			X:  l.open.Pos.X + 8, Y: l.open.Pos.Y + itemH*float64(i+1) - 2,
			Text: item.Label, Size: 12,
			Style: scene.Style{Fill: l.palette.Hex(theme.Label)},
		})
	}
	return nil
}

type popupEntry struct {
	popup   Popup
	visible bool
}

// PopupLayer hosts informational popups for every other layer.
type PopupLayer struct {
	Base
	popups map[string]*popupEntry
	order  []string
}

// NewPopupLayer creates the popup host.
func NewPopupLayer(deps Deps) *PopupLayer {
	return &PopupLayer{Base: newBase("popup", deps), popups: make(map[string]*popupEntry)}
}

// Funcs returns the callbacks handed to other layers.
func (l *PopupLayer) Funcs() PopupFuncs {
	return PopupFuncs{
		Draw:  l.draw,
		Show:  func(id string) { l.setVisible(id, true) },
		Hide:  func(id string) { l.setVisible(id, false) },
		Clear: l.clear,
	}
}

// Shown returns the IDs of the visible popups.
func (l *PopupLayer) Shown() []string {
	var out []string
	for _, id := range l.order {
		if l.popups[id].visible {
			out = append(out, id)
		}
	}
	return out
}

func (l *PopupLayer) draw(p Popup) {
	if e, ok := l.popups[p.ID]; ok {
		e.popup = p
	} else {
		l.popups[p.ID] = &popupEntry{popup: p}
		l.order = append(l.order, p.ID)
	}
	l.Compose()
}

func (l *PopupLayer) setVisible(id string, v bool) {
	if e, ok := l.popups[id]; ok && e.visible != v {
		e.visible = v
		l.Compose()
	}
}

func (l *PopupLayer) clear(id string) {
	if _, ok := l.popups[id]; !ok {
		return
	}
	delete(l.popups, id)
	for i, o := range l.order {
		if o == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	l.Compose()
}

func (l *PopupLayer) Recompose(m Mode) error {
	l.mode = m
	return l.Compose()
}

func (l *PopupLayer) Compose() error {
	l.reset()
	const lineH = 14.0
	for _, id := range l.order {
		e := l.popups[id]
		if !e.visible {
			continue
		}
		p := e.popup
		g := l.root.Group(id, "popup")
		g.Add(&scene.Rect{
			ID: id + "-body", X: p.Anchor.X + 6, Y: p.Anchor.Y + 6,
			W: 160, H: lineH*float64(len(p.Lines)+1) + 6, Radius: 3,
			Style: scene.Style{Fill: l.palette.Hex(theme.Popup), Stroke: l.palette.Hex(theme.LabelMuted), StrokeWidth: 1},
		})
		g.Add(&scene.Text{
			ID: id + "-title", X: p.Anchor.X + 12, Y: p.Anchor.Y + 6 + lineH,
			Text: p.Title, Size: 12, Style: scene.Style{Fill: l.palette.Hex(theme.Label)},
		})
		for i, line := range p.Lines {
			g.Add(&scene.Text{
				ID: fmt.Sprintf("%s-line-%d", id, i), X: p.Anchor.X + 12, Y: p.Anchor.Y + 6 + lineH*float64(i+2),
				Text: line, Size: 11, Style: scene.Style{Fill: l.palette.Hex(theme.LabelMuted)},
			})
		}
	}
	return nil
}
