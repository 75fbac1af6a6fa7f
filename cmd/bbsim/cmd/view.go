package cmd

import (
	"fmt"
	"log"
	"os"

	"gioui.org/app"
	"gioui.org/unit"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceBreadboard/internal/ui"
)

var viewCmd = &cobra.Command{
	Use:   "view [trace]",
	Short: "Open the board in a window",
	Long: `Opens the board in an interactive Gio window and replays an optional trace.

Controls:
  Left Drag         - Pan
  Scroll Wheel      - Zoom in/out
  Right Click       - Plate menu
  Space             - Fit board to window
  R / Shift+R       - Rotate 90°
  F                 - Flip board
  L                 - Toggle labels
  S                 - Stop replay
  Q / Escape        - Quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runView,
}

func init() {
	rootCmd.AddCommand(viewCmd)
	addPlaybackFlags(viewCmd)
	viewCmd.Flags().BoolVar(&watchNoSound, "no-sound", false, "do not open the audio device")
}

func runView(cmd *cobra.Command, args []string) error {
	b, opts, err := newBoard(cmd)
	if err != nil {
		return err
	}
	cfg := ui.Config{Speed: replaySpeed, Loop: replayLoop}
	title := "Breadboard - " + b.Options().Layout
	if len(args) == 1 {
		if cfg.Trace, err = openTrace(args[0], b); err != nil {
			return err
		}
		title = "Breadboard - " + args[0]
		fmt.Printf("✓ Loaded trace: %d frames over %s\n", len(cfg.Trace.Frames), cfg.Trace.Duration())
	}
	if !watchNoSound {
		if al := openAlarm(b, opts); al != nil {
			defer al.Close()
		}
	}

	go func() {
		w := new(app.Window)
		w.Option(app.Title(title))
		w.Option(app.Size(unit.Dp(1200), unit.Dp(800)))

		if err := ui.NewViewer(w, b, cfg, opts.Logger).Run(); err != nil {
			log.Fatal(err)
		}
		os.Exit(0)
	}()
	app.Main()
	return nil
}
