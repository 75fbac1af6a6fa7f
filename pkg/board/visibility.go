package board

// Layer names, in composition order.
const (
	LayerBackground = "background"
	LayerRegion     = "region"
	LayerVoltage    = "voltage"
	LayerPlate      = "plate"
	LayerCurrent    = "current"
	LayerLabel      = "label"
	LayerPopup      = "popup"
	LayerMenu       = "menu"
)

// LayerNames lists every board layer in composition order.
var LayerNames = []string{
	LayerBackground, LayerRegion, LayerVoltage, LayerPlate,
	LayerCurrent, LayerLabel, LayerPopup, LayerMenu,
}

// Visibility controls which layers are shown. Layers without an explicit
// setting follow the default, which starts visible.
type Visibility struct {
	visible     map[string]bool
	hiddenByDef bool
}

// NewVisibility returns a configuration with every layer visible.
func NewVisibility() *Visibility {
	return &Visibility{visible: make(map[string]bool)}
}

// SetVisible sets the visibility of one layer.
func (v *Visibility) SetVisible(layer string, visible bool) {
	v.visible[layer] = visible
}

// IsVisible reports whether a layer is visible.
func (v *Visibility) IsVisible(layer string) bool {
	if visible, ok := v.visible[layer]; ok {
		return visible
	}
	return !v.hiddenByDef
}

// HideAll hides every layer.
func (v *Visibility) HideAll() {
	v.visible = make(map[string]bool)
	v.hiddenByDef = true
}

// ShowAll shows every layer.
func (v *Visibility) ShowAll() {
	v.visible = make(map[string]bool)
	v.hiddenByDef = false
}

// ShowOnly shows the named layers and hides the rest.
func (v *Visibility) ShowOnly(layers ...string) {
	v.HideAll()
	for _, l := range layers {
		v.SetVisible(l, true)
	}
}

// ShowCircuitOnly keeps the board and the simulation state, hiding
// annotations and hosts.
func (v *Visibility) ShowCircuitOnly() {
	v.ShowOnly(LayerBackground, LayerVoltage, LayerCurrent)
}

func (v *Visibility) clone() *Visibility {
	c := &Visibility{visible: make(map[string]bool, len(v.visible)), hiddenByDef: v.hiddenByDef}
	for k, val := range v.visible {
		c.visible[k] = val
	}
	return c
}
