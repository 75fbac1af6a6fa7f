package layer

import (
	"errors"
	"fmt"
	"sort"

	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/grid"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/layout"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/render/theme"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/scene"
)

var (
	// ErrPlateExists is returned when a plate ID is already placed.
	ErrPlateExists = errors.New("plate: already placed")
	// ErrCellOccupied is returned when a plate would overlap another one.
	ErrCellOccupied = errors.New("plate: cell occupied")
	// ErrPlateNotFound is returned for unknown plate IDs.
	ErrPlateNotFound = errors.New("plate: not found")
)

// Plate is a component placed on the board. Only its footprint matters to
// the board; everything else is carried through as properties.
type Plate struct {
	ID         string
	Kind       string
	Points     []layout.Point
	Properties map[string]string
}

// PlateLayer tracks placed plates and the cells they occupy.
type PlateLayer struct {
	Base
	plates map[string]Plate
	order  []string
}

// NewPlateLayer creates an empty plate layer.
func NewPlateLayer(deps Deps) *PlateLayer {
	return &PlateLayer{Base: newBase("plate", deps), plates: make(map[string]Plate)}
}

// AddPlate places a plate, marking its matrix cells occupied.
func (l *PlateLayer) AddPlate(p Plate) error {
	if _, ok := l.plates[p.ID]; ok {
		return fmt.Errorf("%w: %s", ErrPlateExists, p.ID)
	}
	if len(p.Points) == 0 {
		return fmt.Errorf("plate: %s has no points", p.ID)
	}
	var cells []*grid.Cell
	for _, pt := range p.Points {
		if !l.grid.InMatrix(pt) {
			if l.grid.IsAux(pt) {
				continue
			}
			return fmt.Errorf("plate: %s point %v: %w", p.ID, pt, grid.ErrOutOfRange)
		}
		c, _ := l.grid.Cell(pt.X, pt.Y, grid.BorderNone)
		if c.Occupied {
			return fmt.Errorf("%w: %s at %v", ErrCellOccupied, p.ID, pt)
		}
		cells = append(cells, c)
	}
	for _, c := range cells {
		c.Occupied = true
	}
	p.Points = append([]layout.Point(nil), p.Points...)
	l.plates[p.ID] = p
	l.order = append(l.order, p.ID)
	return l.Compose()
}

// RemovePlate removes a plate and frees its cells.
func (l *PlateLayer) RemovePlate(id string) error {
	p, ok := l.plates[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPlateNotFound, id)
	}
	l.free(p)
	delete(l.plates, id)
	for i, o := range l.order {
		if o == id {
			l.order = append(l.order[:i], l.order[i+1:]...)
			break
		}
	}
	l.clearPopup("plate-" + id)
	return l.Compose()
}

// SetPlates replaces every plate. On error the previous plates are restored.
func (l *PlateLayer) SetPlates(plates []Plate) error {
	prev := l.Plates()
	l.ClearPlates()
	for _, p := range plates {
		if err := l.AddPlate(p); err != nil {
			l.ClearPlates()
			for _, old := range prev {
				l.AddPlate(old)
			}
			return err
		}
	}
	return nil
}

// ClearPlates removes every plate.
func (l *PlateLayer) ClearPlates() {
	for _, id := range l.order {
		l.free(l.plates[id])
		l.clearPopup("plate-" + id)
	}
	l.plates = make(map[string]Plate)
	l.order = nil
	l.Compose()
}

// Plates returns the placed plates in placement order.
func (l *PlateLayer) Plates() []Plate {
	out := make([]Plate, 0, len(l.order))
	for _, id := range l.order {
		out = append(out, l.plates[id])
	}
	return out
}

// PlateContextMenu asks the menu host for a plate's context menu.
func (l *PlateLayer) PlateContextMenu(id string) error {
	p, ok := l.plates[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrPlateNotFound, id)
	}
	pos, _ := l.grid.PointPos(p.Points[0])
	l.callContextMenu(id, pos, []MenuItem{
		{Label: "Info", Action: func() { l.ShowPlateInfo(id) }},
		{Label: "Remove", Action: func() {
			if err := l.RemovePlate(id); err != nil {
				l.log.Warnf("plate: %v", err)
			}
		}},
	})
	return nil
}

// ShowPlateInfo shows a popup listing the plate properties.
func (l *PlateLayer) ShowPlateInfo(id string) {
	p, ok := l.plates[id]
	if !ok {
		return
	}
	keys := make([]string, 0, len(p.Properties))
	for k := range p.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	lines := make([]string, 0, len(keys))
	for _, k := range keys {
		lines = append(lines, fmt.Sprintf("%s: %s", k, p.Properties[k]))
	}
	pos, _ := l.grid.PointPos(p.Points[0])
	popupID := "plate-" + id
	l.drawPopup(Popup{ID: popupID, Title: p.Kind + " " + id, Lines: lines, Anchor: pos})
	l.showPopup(popupID)
}

// HidePlateInfo hides a plate popup.
func (l *PlateLayer) HidePlateInfo(id string) {
	l.hidePopup("plate-" + id)
}

func (l *PlateLayer) free(p Plate) {
	for _, pt := range p.Points {
		if c, err := l.grid.Cell(pt.X, pt.Y, grid.BorderNone); err == nil {
			c.Occupied = false
		}
	}
}

func (l *PlateLayer) Recompose(m Mode) error {
	l.mode = m
	return l.Compose()
}

func (l *PlateLayer) Compose() error {
	l.reset()
	g := l.root.Group("plate-bodies", "plates")
	pitch := l.grid.Pitch()
	for _, id := range l.order {
		p := l.plates[id]
		var b scene.Bounds
		first := true
		for _, pt := range p.Points {
			c, ok := l.grid.PointPos(pt)
			if !ok {
				continue
			}
			if first {
				b = scene.Bounds{MinX: c.X, MinY: c.Y, MaxX: c.X, MaxY: c.Y}
				first = false
				continue
			}
			b.MinX, b.MinY = min(b.MinX, c.X), min(b.MinY, c.Y)
			b.MaxX, b.MaxY = max(b.MaxX, c.X), max(b.MaxY, c.Y)
		}
		if first {
			continue
		}
		pg := g.Group("plate-"+id, p.Kind)
		pg.Add(&scene.Rect{
			ID: "plate-" + id + "-body",
			X:  b.MinX - pitch.X/3, Y: b.MinY - pitch.Y/3,
			W: b.Width() + 2*pitch.X/3, H: b.Height() + 2*pitch.Y/3,
			Radius: 3,
			Style:  scene.Style{Fill: l.palette.Hex(theme.Plate), Opacity: 0.85},
		})
		if l.mode.Verbose || l.mode.Detailed {
			pg.Add(&scene.Text{
				ID: "plate-" + id + "-label", X: (b.MinX + b.MaxX) / 2, Y: (b.MinY+b.MaxY)/2 + 4,
				Text: p.Kind, Size: min(pitch.X, pitch.Y) / 3, Anchor: scene.AnchorMiddle,
				Style: scene.Style{Fill: l.palette.Hex(theme.Board)},
			})
		}
	}
	return nil
}
