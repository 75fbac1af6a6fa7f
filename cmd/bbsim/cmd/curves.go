package cmd

import (
	"fmt"
	"image/color"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/current"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/render/theme"
)

var (
	curvesOut string
	curvesMax float64
)

var curvesCmd = &cobra.Command{
	Use:   "curves",
	Short: "Plot how current weight maps to animation",
	Long: `Plots normalized weight, opacity and particle cycle time against the raw
weight of a current, using the animation settings of the effective options.
The image format follows the extension of --out (png, svg, pdf).`,
	Args: cobra.NoArgs,
	RunE: runCurves,
}

func init() {
	rootCmd.AddCommand(curvesCmd)
	curvesCmd.Flags().StringVarP(&curvesOut, "out", "o", "curves.png", "output image")
	curvesCmd.Flags().Float64Var(&curvesMax, "max", 5, "largest raw weight plotted")
}

func runCurves(cmd *cobra.Command, args []string) error {
	if curvesMax <= 0 {
		return fmt.Errorf("--max must be positive, got %g", curvesMax)
	}
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	anim := opts.Animation

	p := plot.New()
	p.Title.Text = "Current weight"
	p.X.Label.Text = "raw weight"
	p.Y.Label.Text = "fraction"
	p.X.Min, p.X.Max = 0, curvesMax
	p.Y.Min, p.Y.Max = 0, 1.05
	p.Add(plotter.NewGrid())

	curves := []struct {
		name  string
		color string
		fn    func(w float64) float64
	}{
		{"normalized", current.Colors[0], current.Normalize},
		{"opacity", current.Colors[2], func(w float64) float64 {
			return current.PickOpacityFromRange(current.Normalize(w))
		}},
		{"cycle / max", current.Colors[4], func(w float64) float64 {
			return float64(anim.Duration(current.Normalize(w))) / float64(anim.DurationMax)
		}},
	}
	for _, c := range curves {
		f := plotter.NewFunction(c.fn)
		f.Samples = 200
		f.Color = theme.ParseHex(c.color, 1)
		f.Width = vg.Points(1.5)
		p.Add(f)
		p.Legend.Add(c.name, f)
	}
	p.Legend.Top = true
	p.Legend.Left = false

	// Above the threshold particles give way to a marching dashed line.
	burn := plotter.NewFunction(func(float64) float64 { return 0 })
	burn.XMin, burn.XMax = current.BurningThreshold, curvesMax
	burn.Color = color.NRGBA{R: 255, A: 160}
	burn.Width = vg.Points(4)
	p.Add(burn)
	p.Legend.Add("burning", burn)

	if err := p.Save(8*vg.Inch, 5*vg.Inch, curvesOut); err != nil {
		return fmt.Errorf("saving %s: %w", curvesOut, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ wrote %s\n", curvesOut)
	return nil
}
