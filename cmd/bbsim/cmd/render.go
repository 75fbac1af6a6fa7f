package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/board"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/current"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/render/svgout"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/render/theme"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/scene"
)

var (
	renderTrace  string
	renderAt     time.Duration
	renderOut    string
	renderWidth  int
	renderHeight int
	renderRotate float64
	renderTitle  string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Export an SVG snapshot of the board",
	Long: `Renders the board as an SVG document. With --trace the frames up to --at
are applied first, so currents and particles show their state at that
moment of the recording.`,
	Args: cobra.NoArgs,
	RunE: runRender,
}

func init() {
	rootCmd.AddCommand(renderCmd)
	f := renderCmd.Flags()
	f.StringVar(&renderTrace, "trace", "", "trace file to apply")
	f.DurationVar(&renderAt, "at", 0, "trace time of the snapshot")
	f.StringVarP(&renderOut, "out", "o", "-", "output file, - for stdout")
	f.IntVar(&renderWidth, "width", svgout.DefaultOptions().Width, "page width in pixels")
	f.IntVar(&renderHeight, "height", svgout.DefaultOptions().Height, "page height in pixels")
	f.Float64Var(&renderRotate, "rotate", 0, "rotation in degrees")
	f.StringVar(&renderTitle, "title", "", "document title")
}

func runRender(cmd *cobra.Command, args []string) error {
	epoch := time.Unix(0, 0)
	clock := current.NewManualClock(epoch)
	b, _, err := newBoard(cmd, func(o *board.Options) { o.Clock = clock })
	if err != nil {
		return err
	}

	if renderTrace != "" {
		tr, err := openTrace(renderTrace, b)
		if err != nil {
			return err
		}
		for _, f := range tr.Frames {
			if f.At > renderAt {
				break
			}
			clock.Set(epoch.Add(f.At))
			if err := b.SetCurrents(f.Threads, f.Voltages); err != nil {
				return fmt.Errorf("frame at %s: %w", f.At, err)
			}
			if f.Pins != nil {
				b.SetPinsValues(f.Pins)
			}
		}
	}
	now := epoch.Add(renderAt)
	clock.Set(now)

	var w io.Writer = cmd.OutOrStdout()
	if renderOut != "-" {
		file, err := os.Create(renderOut)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}

	opts := svgout.Options{
		Width:      renderWidth,
		Height:     renderHeight,
		Background: b.Palette().Hex(theme.Background),
		Title:      renderTitle,
		Rotation:   renderRotate,
	}
	if opts.Title == "" {
		opts.Title = b.Options().Layout
	}
	b.View(now, func(root *scene.Group) {
		err = svgout.Render(w, root, opts)
	})
	if err != nil {
		return err
	}
	if renderOut != "-" {
		fmt.Fprintf(os.Stderr, "✓ wrote %s\n", renderOut)
	}
	return nil
}
