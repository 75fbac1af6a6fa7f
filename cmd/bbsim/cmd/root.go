package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceBreadboard/internal/logx"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/board"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/layout"
)

var (
	// Global flags
	configPath   string
	layoutDirs   []string
	layoutFiles  []string
	layoutName   string
	themeName    string
	logLevel     string
	verbose      bool
	spare        bool
	schematic    bool
	embedArduino bool
)

var rootCmd = &cobra.Command{
	Use:   "bbsim",
	Short: "OpenTraceBreadboard - breadboard circuit viewer and trace player",
	Long: `bbsim renders breadboard layouts and replays recorded simulation traces:
  - inspect built-in and file layouts and their electrical lines
  - replay traces headless, in the terminal or in a window
  - export SVG snapshots of the board at any point of a trace

Examples:
  bbsim layout list                        # List available layouts
  bbsim layout lines arduino               # Show electrical lines
  bbsim watch blink.trace                  # Replay in the terminal
  bbsim view --layout mini                 # Open the board window
  bbsim render --trace blink.trace --at 2s -o board.svg`,
	Version:       "0.9.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configPath, "config", "c", "", "options file (TOML)")
	pf.StringSliceVar(&layoutDirs, "layout-dir", nil, "directory of extra layout files (repeatable)")
	pf.StringSliceVar(&layoutFiles, "layout-file", nil, "extra layout file (repeatable)")
	pf.StringVarP(&layoutName, "layout", "l", "", "board layout (overrides the options file)")
	pf.StringVar(&themeName, "theme", "", "colour theme: classic, dark or nord")
	pf.StringVar(&logLevel, "log-level", "", "log level: error, warn, info or debug")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose board labels and debug logging")
	pf.BoolVar(&spare, "spare", false, "performance mode without particle animation")
	pf.BoolVar(&schematic, "schematic", false, "draw lines instead of cells")
	pf.BoolVar(&embedArduino, "embed-arduino", false, "give every analog pin its own plate")
}

// loadOptions reads the options file and applies flag overrides.
func loadOptions(cmd *cobra.Command) (board.Options, error) {
	opts := board.DefaultOptions()
	if configPath != "" {
		var err error
		if opts, err = board.LoadOptions(configPath); err != nil {
			return opts, err
		}
	}
	flags := cmd.Flags()
	if layoutName != "" {
		opts.Layout = layoutName
	}
	if themeName != "" {
		opts.Theme = themeName
	}
	if logLevel != "" {
		opts.LogLevel = logLevel
	}
	if verbose {
		opts.Verbose = true
		if logLevel == "" {
			opts.LogLevel = logx.LevelDebug.String()
		}
	}
	if flags.Changed("spare") {
		opts.Spare = spare
	}
	if flags.Changed("schematic") {
		opts.Schematic = schematic
		opts.Detailed = !schematic
	}
	if flags.Changed("embed-arduino") {
		opts.EmbedArduino = embedArduino
	}
	if err := opts.Validate(); err != nil {
		return opts, err
	}

	level, err := logx.ParseLevel(opts.LogLevel)
	if err != nil {
		return opts, err
	}
	opts.Logger = logx.NewStderr(level, "bbsim: ")
	return opts, nil
}

// loadRepository returns the built-in layouts plus any layout directories.
func loadRepository() (*layout.Repository, error) {
	repo, err := layout.NewBuiltinRepository()
	if err != nil {
		return nil, err
	}
	for _, dir := range layoutDirs {
		if err := repo.LoadDir(dir); err != nil {
			return nil, fmt.Errorf("loading layouts from %s: %w", dir, err)
		}
	}
	if err := repo.LoadFiles(layoutFiles...); err != nil {
		return nil, err
	}
	return repo, nil
}

// newBoard builds the board selected by the global flags. adjust runs on
// the options before the board is built.
func newBoard(cmd *cobra.Command, adjust ...func(*board.Options)) (*board.Breadboard, board.Options, error) {
	opts, err := loadOptions(cmd)
	if err != nil {
		return nil, opts, err
	}
	for _, fn := range adjust {
		fn(&opts)
	}
	repo, err := loadRepository()
	if err != nil {
		return nil, opts, err
	}
	b, err := board.New(opts, repo)
	if err != nil {
		return nil, opts, err
	}
	return b, opts, nil
}
