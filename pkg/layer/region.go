package layer

import (
	"fmt"

	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/grid"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/layout"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/render/theme"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/scene"
)

// Region is a highlighted rectangle of cells.
type Region struct {
	ID    string
	Range layout.Range
	Color string // #rrggbb, empty for the theme colour
}

// RegionLayer highlights cell ranges and tints occupied cells.
type RegionLayer struct {
	Base
	regions []Region
	next    int
}

// NewRegionLayer creates an empty region layer.
func NewRegionLayer(deps Deps) *RegionLayer {
	return &RegionLayer{Base: newBase("region", deps)}
}

// HighlightRegion adds a highlighted range and returns its ID. Both corners
// are clamped into the matrix.
func (l *RegionLayer) HighlightRegion(from, to layout.Point, color string) (string, error) {
	a, err := l.grid.Cell(from.X, from.Y, grid.BorderReplicate)
	if err != nil {
		return "", err
	}
	b, err := l.grid.Cell(to.X, to.Y, grid.BorderReplicate)
	if err != nil {
		return "", err
	}
	id := fmt.Sprintf("region-%d", l.next)
	l.next++
	l.regions = append(l.regions, Region{ID: id, Range: layout.Range{From: a.Idx, To: b.Idx}, Color: color})
	return id, l.Compose()
}

// Regions returns the current highlights.
func (l *RegionLayer) Regions() []Region {
	return append([]Region(nil), l.regions...)
}

// ClearRegions removes every highlight.
func (l *RegionLayer) ClearRegions() {
	l.regions = nil
	l.Compose()
}

func (l *RegionLayer) Recompose(m Mode) error {
	l.mode = m
	return l.Compose()
}

func (l *RegionLayer) Compose() error {
	l.reset()
	g := l.root.Group("region-highlights", "regions")
	alpha := l.palette.Opacity(theme.Region)

	for _, r := range l.regions {
		lo, _ := l.grid.Cell(min(r.Range.From.X, r.Range.To.X), min(r.Range.From.Y, r.Range.To.Y), grid.BorderNone)
		hi, _ := l.grid.Cell(max(r.Range.From.X, r.Range.To.X), max(r.Range.From.Y, r.Range.To.Y), grid.BorderNone)
		fill := r.Color
		if fill == "" {
			fill = l.palette.Hex(theme.Region)
		}
		g.Add(&scene.Rect{
			ID: r.ID,
			X:  lo.Pos.X, Y: lo.Pos.Y,
			W: hi.Pos.X + hi.Size.X - lo.Pos.X, H: hi.Pos.Y + hi.Size.Y - lo.Pos.Y,
			Radius: 2,
			Style:  scene.Style{Fill: fill, Opacity: alpha},
		})
	}

	occ := l.root.Group("region-occupied", "occupied")
	l.grid.Cells(func(c *grid.Cell) {
		if !c.Occupied {
			return
		}
		occ.Add(&scene.Rect{
			ID: "occupied-" + c.Idx.String(),
			X:  c.Pos.X, Y: c.Pos.Y, W: c.Size.X, H: c.Size.Y,
			Style: scene.Style{Fill: l.palette.Hex(theme.Region), Opacity: alpha / 2},
		})
	})
	return nil
}
