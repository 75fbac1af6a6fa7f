package cmd

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/grid"
	"github.com/OpenTraceLab/OpenTraceBreadboard/pkg/layout"
)

var layoutCmd = &cobra.Command{
	Use:   "layout",
	Short: "Breadboard layout operations",
	Long:  `Commands for inspecting built-in layouts and layout files (.bbl)`,
}

var layoutListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available layouts",
	Args:  cobra.NoArgs,
	RunE:  runLayoutList,
}

var layoutInfoCmd = &cobra.Command{
	Use:   "info <layout>",
	Short: "Show layout geometry and domains",
	Args:  cobra.ExactArgs(1),
	RunE:  runLayoutInfo,
}

var layoutLinesCmd = &cobra.Command{
	Use:   "lines <layout>",
	Short: "Show electrical lines and embedded plates",
	Long: `Builds the grid of a layout and prints its electrical lines, followed by
the plates the layout implies (voltage sources, Arduino pins with
--embed-arduino).`,
	Args: cobra.ExactArgs(1),
	RunE: runLayoutLines,
}

var layoutCheckCmd = &cobra.Command{
	Use:   "check <file>...",
	Short: "Parse and validate layout files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runLayoutCheck,
}

func init() {
	rootCmd.AddCommand(layoutCmd)
	layoutCmd.AddCommand(layoutListCmd)
	layoutCmd.AddCommand(layoutInfoCmd)
	layoutCmd.AddCommand(layoutLinesCmd)
	layoutCmd.AddCommand(layoutCheckCmd)
}

func runLayoutList(cmd *cobra.Command, args []string) error {
	repo, err := loadRepository()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tLABEL\tCELLS\tDOMAINS")
	for _, name := range repo.Names() {
		l, err := repo.Lookup(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%dx%d\t%d\n", l.Name, l.Label, l.Dim.X, l.Dim.Y, len(l.Domains))
	}
	return w.Flush()
}

func lookupGrid(name string) (*grid.Grid, error) {
	repo, err := loadRepository()
	if err != nil {
		return nil, err
	}
	l, err := repo.Lookup(name)
	if err != nil {
		return nil, err
	}
	return grid.New(l)
}

func runLayoutInfo(cmd *cobra.Command, args []string) error {
	g, err := lookupGrid(args[0])
	if err != nil {
		return err
	}
	l := g.Layout()
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Layout: %s (%s)\n", l.Name, l.Label)
	fmt.Fprintf(out, "  Cells:  %d x %d\n", l.Dim.X, l.Dim.Y)
	fmt.Fprintf(out, "  Size:   %.1f x %.1f\n", l.Size.X, l.Size.Y)
	fmt.Fprintf(out, "  Pitch:  %.2f x %.2f\n", g.Pitch().X, g.Pitch().Y)
	fmt.Fprintf(out, "  Gap:    %.1f x %.1f\n", l.Gap.X, l.Gap.Y)
	fmt.Fprintf(out, "  Offset: %.1f, %.1f\n", l.Pos.X, l.Pos.Y)
	fmt.Fprintf(out, "  Wrap:   %d x %d\n", l.Wrap.X, l.Wrap.Y)

	fmt.Fprintf(out, "\nDomains (%d):\n", len(l.Domains))
	for i, d := range l.Domains {
		dir := "vertical"
		if d.Horizontal {
			dir = "horizontal"
		}
		fmt.Fprintf(out, "  %2d: %v..%v %s role=%s", i, d.Range.From, d.Range.To, dir, d.Role)
		if d.Virtual != nil {
			fmt.Fprintf(out, " virtual=%v..%v", d.Virtual.From, d.Virtual.To)
		}
		if d.Role == layout.RoleAnalog {
			fmt.Fprintf(out, " pin=%s", d.PinStateInitial)
		}
		fmt.Fprintln(out)
	}

	if aux := g.AuxPoints(); len(aux) > 0 {
		fmt.Fprintf(out, "\nAux points (%d):\n", len(aux))
		for _, ap := range aux {
			fmt.Fprintf(out, "  %-6s at %v (%.1f, %.1f)\n", ap.Name, ap.Idx, ap.Pos.X, ap.Pos.Y)
		}
	}
	if virt := g.VirtualPoints(); len(virt) > 0 {
		fmt.Fprintf(out, "\nVirtual points: %d\n", len(virt))
	}
	return nil
}

func runLayoutLines(cmd *cobra.Command, args []string) error {
	g, err := lookupGrid(args[0])
	if err != nil {
		return err
	}
	st, err := g.ElectricalStructure(embedArduino)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	lines := g.Lines()
	fmt.Fprintf(out, "Lines (%d):\n", len(lines))
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "  ID\tROLE\tPOINTS\tFIRST\tLAST")
	for _, line := range lines {
		pts := st.CellStruct[line.ID]
		if len(pts) == 0 {
			continue // folded into another line
		}
		fmt.Fprintf(w, "  %d\t%s\t%d\t%v\t%v\n", line.ID, line.Role, len(pts), pts[0], pts[len(pts)-1])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	plates := append([]grid.EmbeddedPlate(nil), st.EmbeddedPlates...)
	sort.Slice(plates, func(i, j int) bool { return plates[i].ID < plates[j].ID })
	fmt.Fprintf(out, "\nEmbedded plates (%d):\n", len(plates))
	for _, p := range plates {
		fmt.Fprintf(out, "  %-10s %-15s %v\n", p.ID, p.Kind, p.Points)
	}
	return nil
}

func runLayoutCheck(cmd *cobra.Command, args []string) error {
	failed := 0
	for _, path := range args {
		layouts, err := layout.ParseFile(path)
		if err == nil {
			for _, l := range layouts {
				if _, gerr := grid.New(l); gerr != nil {
					err = fmt.Errorf("%s: %w", l.Name, gerr)
					break
				}
			}
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ %s: %d layout(s)\n", path, len(layouts))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files invalid", failed, len(args))
	}
	return nil
}
