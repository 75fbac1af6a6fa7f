package grid

import (
	"fmt"
	"strconv"

	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/layout"
)

// PlateKind identifies plates that the board places on its own.
type PlateKind string

const (
	PlateVoltageSource PlateKind = "voltage_source"
	PlateArduinoPin    PlateKind = "arduino_pin"
)

// EmbeddedPlate is a plate implied by the layout rather than by the user.
type EmbeddedPlate struct {
	ID         string
	Kind       PlateKind
	Points     []layout.Point
	Properties map[string]string
}

// Structure is the electrical view of a grid handed to a circuit solver.
type Structure struct {
	// CellStruct maps line ID to its points after analog folding.
	CellStruct     map[int][]layout.Point
	EmbeddedPlates []EmbeddedPlate
}

var sourcePlateIDs = map[layout.AuxCategory]string{
	layout.AuxVoltageSource: "vsrc",
	layout.AuxUSB1:          "usb1",
	layout.AuxUSB3:          "usb3",
}

// ElectricalStructure describes lines and implied plates. With embedArduino
// set every analog point gets its own pin plate; otherwise analog points are
// folded into the plus or minus lines.
func (g *Grid) ElectricalStructure(embedArduino bool) (Structure, error) {
	s := Structure{CellStruct: make(map[int][]layout.Point)}

	for _, cat := range g.layout.Aux {
		specs := auxSpecs[cat]
		pts := make([]layout.Point, 0, len(specs))
		for _, spec := range specs {
			if ap := g.AuxPoint(spec.name); ap != nil {
				pts = append(pts, ap.Idx)
			}
		}
		s.EmbeddedPlates = append(s.EmbeddedPlates, EmbeddedPlate{
			ID:         sourcePlateIDs[cat],
			Kind:       PlateVoltageSource,
			Points:     pts,
			Properties: map[string]string{"voltage": auxVoltage[cat]},
		})
	}

	pin := 0
	for _, line := range g.lines {
		if !line.Analog() {
			s.CellStruct[line.ID] = append(s.CellStruct[line.ID], line.Points...)
			continue
		}
		if embedArduino {
			s.CellStruct[line.ID] = append(s.CellStruct[line.ID], line.Points...)
			s.EmbeddedPlates = append(s.EmbeddedPlates, EmbeddedPlate{
				ID:     "pin-" + strconv.Itoa(pin),
				Kind:   PlateArduinoPin,
				Points: []layout.Point{line.Points[0], *line.Minus},
				Properties: map[string]string{
					"pin":   "A" + strconv.Itoa(pin),
					"state": line.PinState.String(),
				},
			})
			pin++
			continue
		}
		target, err := g.foldTarget(line)
		if err != nil {
			return Structure{}, fmt.Errorf("electrical structure: %w", err)
		}
		s.CellStruct[target.ID] = append(s.CellStruct[target.ID], line.Points...)
	}
	return s, nil
}
