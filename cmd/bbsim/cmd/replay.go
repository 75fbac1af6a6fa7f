package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/alarm"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/board"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/trace"
)

var (
	replaySpeed float64
	replayLoop  bool
	replaySound bool
)

var replayCmd = &cobra.Command{
	Use:   "replay <trace>",
	Short: "Replay a trace without a display",
	Long: `Feeds the frames of a trace file into a board at their recorded times and
prints one line per frame with the live currents and short-circuit changes.

With --sound a siren plays while a short circuit is reported.`,
	Args: cobra.ExactArgs(1),
	RunE: runReplay,
}

func init() {
	rootCmd.AddCommand(replayCmd)
	addPlaybackFlags(replayCmd)
	replayCmd.Flags().BoolVar(&replaySound, "sound", false, "sound a siren during short circuits")
}

func addPlaybackFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&replaySpeed, "speed", 1, "playback rate, 2 is twice real time")
	cmd.Flags().BoolVar(&replayLoop, "loop", false, "restart the trace when it ends")
}

// openTrace reads a trace file and switches the board to the layout the
// trace names, unless --layout was given.
func openTrace(path string, b *board.Breadboard) (*trace.Trace, error) {
	tr, err := trace.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if tr.Layout != "" && layoutName == "" && tr.Layout != b.Options().Layout {
		if err := b.SetLayout(tr.Layout); err != nil {
			return nil, fmt.Errorf("trace %s: %w", path, err)
		}
	}
	return tr, nil
}

// openAlarm opens the siren and attaches it to the board. Audio failures
// are reported and playback goes on silently.
func openAlarm(b *board.Breadboard, opts board.Options) *alarm.Alarm {
	al, err := alarm.New(alarm.DefaultConfig(), opts.Logger)
	if err == nil {
		err = al.Open()
	}
	if err != nil {
		opts.Logger.Warnf("sound disabled: %v", err)
		return nil
	}
	al.Attach(b)
	return al
}

func runReplay(cmd *cobra.Command, args []string) error {
	b, opts, err := newBoard(cmd)
	if err != nil {
		return err
	}
	tr, err := openTrace(args[0], b)
	if err != nil {
		return err
	}
	if replaySound {
		if al := openAlarm(b, opts); al != nil {
			defer al.Close()
		}
	}

	out := cmd.OutOrStdout()
	b.OnShortCircuitStart(func() { fmt.Fprintln(out, "  ⚡ short circuit") })
	b.OnShortCircuitEnd(func() { fmt.Fprintln(out, "  ✓ short circuit cleared") })

	ctx, stop := playbackContext(cmd)
	defer stop()

	fmt.Fprintf(out, "Replaying %s: %d frames over %s on %s\n",
		args[0], len(tr.Frames), tr.Duration(), b.Options().Layout)

	p := trace.NewPlayer()
	p.Speed = replaySpeed
	p.Loop = replayLoop
	p.Log = opts.Logger
	p.OnFrame = func(i int, f trace.Frame) {
		burning := 0
		for _, c := range b.Currents() {
			if c.Burning() {
				burning++
			}
		}
		fmt.Fprintf(out, "%4d  %10s  %2d currents  %2d burning  %2d voltages  %2d pins\n",
			i, f.At, len(b.Currents()), burning, len(f.Voltages), len(f.Pins))
	}
	if err := p.Play(ctx, tr, b); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// playbackContext is the command context cancelled on interrupt.
func playbackContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt)
}
