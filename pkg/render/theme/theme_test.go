package theme

import (
	"image/color"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		want    ColorTheme
		wantErr bool
	}{
		{"classic", ThemeClassic, false},
		{"Nord", ThemeNord, false},
		{"DARK", ThemeDark, false},
		{"solarized", ThemeClassic, true},
	}
	for _, tt := range tests {
		got, err := Parse(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("Parse(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestPaletteFallbacks(t *testing.T) {
	p := Get(ColorTheme(99))
	if p.Theme != ThemeClassic {
		t.Errorf("unknown theme resolved to %v", p.Theme)
	}
	gray := color.NRGBA{R: 128, G: 128, B: 128, A: 255}
	if p.Color("nope") != gray {
		t.Errorf("unknown element = %v", p.Color("nope"))
	}
	if p.Hex(RailPlus) != "#c83434" {
		t.Errorf("Hex(RailPlus) = %s", p.Hex(RailPlus))
	}
}

func TestParseHex(t *testing.T) {
	got := ParseHex("#c83434", 0.5)
	want := color.NRGBA{R: 200, G: 52, B: 52, A: 128}
	if got != want {
		t.Errorf("ParseHex() = %v, want %v", got, want)
	}
	if ParseHex("bogus", 1).R != 128 {
		t.Error("malformed hex should fall back to gray")
	}
}

func TestMix(t *testing.T) {
	if got := Mix("#000000", "#ffffff", 0.5); got != "#808080" {
		t.Errorf("Mix() = %s, want #808080", got)
	}
}
