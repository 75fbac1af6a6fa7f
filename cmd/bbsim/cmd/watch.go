package cmd

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceBreadboard/internal/tui"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/trace"
)

var watchNoSound bool

var watchCmd = &cobra.Command{
	Use:   "watch [trace]",
	Short: "Show the board in the terminal",
	Long: `Draws the board in the terminal and replays an optional trace into it.
A siren sounds while a short circuit is reported unless --no-sound is given.

Controls:
  Arrows         - Pan
  + / -          - Zoom in/out
  F              - Fit board to terminal
  R / X          - Rotate 90° / flip
  L / V          - Toggle labels / voltage layer
  M              - Mute the siren
  Q / Escape     - Quit`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	addPlaybackFlags(watchCmd)
	watchCmd.Flags().BoolVar(&watchNoSound, "no-sound", false, "do not open the audio device")
}

func runWatch(cmd *cobra.Command, args []string) error {
	b, opts, err := newBoard(cmd)
	if err != nil {
		return err
	}
	var tr *trace.Trace
	if len(args) == 1 {
		if tr, err = openTrace(args[0], b); err != nil {
			return err
		}
	}

	var muter tui.Muter
	if !watchNoSound {
		if al := openAlarm(b, opts); al != nil {
			defer al.Close()
			muter = al
		}
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("terminal: %w", err)
	}
	defer screen.Fini()

	ctx, stop := playbackContext(cmd)
	defer stop()

	app := tui.New(screen, b, muter, tui.Config{Trace: tr, Speed: replaySpeed, Loop: replayLoop}, opts.Logger)
	return app.Run(ctx)
}
