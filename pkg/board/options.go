package board

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"

	"github.com/OpenTraceLab/OpenTraceBreadboard/internal/logx"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/current"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/render/theme"
)

// Options controls how a Breadboard is built and displayed.
type Options struct {
	Layout string `toml:"layout"`

	// Reconciliation
	Spare        bool `toml:"spare"`         // draw currents without particles
	ShowSource   bool `toml:"show_source"`   // keep threads touching aux points
	EmbedArduino bool `toml:"embed_arduino"` // analog pins become plates in Structure

	// Display mode
	Schematic bool   `toml:"schematic"`
	Detailed  bool   `toml:"detailed"`
	Verbose   bool   `toml:"verbose"`
	Theme     string `toml:"theme"`

	LogLevel  string         `toml:"log_level"`
	Animation current.Config `toml:"animation"`

	// Not read from files. Nil values select stderr logging at LogLevel and
	// the system clock.
	Logger *logx.Logger  `toml:"-"`
	Clock  current.Clock `toml:"-"`
}

// DefaultOptions returns options for the basic layout in detailed mode.
func DefaultOptions() Options {
	return Options{
		Layout:    "basic",
		Detailed:  true,
		Theme:     theme.ThemeNames[theme.ThemeClassic],
		LogLevel:  logx.LevelWarn.String(),
		Animation: current.DefaultConfig(),
	}
}

// Validate checks the options for errors.
func (o Options) Validate() error {
	if o.Layout == "" {
		return fmt.Errorf("options: layout name is empty")
	}
	if _, err := theme.Parse(o.Theme); err != nil {
		return fmt.Errorf("options: %w", err)
	}
	if _, err := logx.ParseLevel(o.LogLevel); err != nil {
		return fmt.Errorf("options: %w", err)
	}
	if err := o.Animation.Validate(); err != nil {
		return fmt.Errorf("options: %w", err)
	}
	return nil
}

// LoadOptions reads a TOML options file. Keys missing from the file keep
// their default values.
func LoadOptions(path string) (Options, error) {
	opts := DefaultOptions()
	md, err := toml.DecodeFile(path, &opts)
	if err != nil {
		return Options{}, fmt.Errorf("options: %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Options{}, fmt.Errorf("options: %s: unknown key %q", path, undecoded[0].String())
	}
	if err := opts.Validate(); err != nil {
		return Options{}, fmt.Errorf("%s: %w", path, err)
	}
	return opts, nil
}

// WriteOptions encodes options as TOML.
func WriteOptions(w io.Writer, o Options) error {
	return toml.NewEncoder(w).Encode(o)
}
