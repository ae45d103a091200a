package main

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/spf13/cobra"

	"sprite-curator/internal/config"
	"sprite-curator/internal/direction"
	"sprite-curator/internal/ensemble"
	"sprite-curator/internal/gate"
	"sprite-curator/internal/grid"
	"sprite-curator/internal/raster"
)

type directionsOutput struct {
	Path     string           `json:"path"`
	Geometry grid.Geometry    `json:"geometry"`
	Result   *ensemble.Result `json:"result"`
	Verdict  gate.Verdict     `json:"verdict"`
}

// frameFlags selects the frame grid explicitly; zero values fall back to
// the best detected layout.
type frameFlags struct {
	frameWidth   int
	frameHeight  int
	framesPerRow int
	rows         int
}

func (f *frameFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.frameWidth, "frame-width", 0, "Frame width in px (default: detected)")
	cmd.Flags().IntVar(&f.frameHeight, "frame-height", 0, "Frame height in px (default: detected)")
	cmd.Flags().IntVar(&f.framesPerRow, "frames-per-row", 0, "Frames per row (default: all columns)")
	cmd.Flags().IntVar(&f.rows, "rows", 0, "Number of rows (default: all rows)")
}

func (f *frameFlags) geometry(img image.Image, cfg *config.Config) (geo grid.Geometry, perRow, rows int, err error) {
	b := img.Bounds()
	switch {
	case f.frameWidth > 0 && f.frameHeight > 0:
		geo = grid.NewGeometry(b.Dx(), b.Dy(), f.frameWidth, f.frameHeight)
	case f.frameWidth > 0 || f.frameHeight > 0:
		return geo, 0, 0, errors.New("--frame-width and --frame-height must be given together")
	default:
		a := grid.Analyze(img, grid.Hint{}, cfg.GridParams())
		if a.Best == nil {
			return geo, 0, 0, errors.New("no frame layout detected; pass --frame-width and --frame-height")
		}
		geo = a.Best.Geometry()
	}
	if err := geo.Validate(); err != nil {
		if grid.IsDegenerate(err) && f.frameWidth == 0 {
			return geo, 0, 0, fmt.Errorf("%w; pass --frame-width and --frame-height", err)
		}
		return geo, 0, 0, err
	}

	perRow, rows = geo.Columns, geo.Rows
	if f.framesPerRow > 0 {
		perRow = f.framesPerRow
	}
	if f.rows > 0 {
		rows = f.rows
	}
	return geo, perRow, rows, nil
}

func newDirectionsCommand(ctx *commandContext) *cobra.Command {
	var ff frameFlags

	cmd := &cobra.Command{
		Use:   "directions <image>",
		Short: "Resolve the facing direction of each sheet row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			src, err := raster.Load(args[0])
			if err != nil {
				return err
			}
			geo, perRow, rows, err := ff.geometry(src.Image, cfg)
			if err != nil {
				return err
			}

			resolver, err := ctx.resolver(cmd.Context())
			if err != nil {
				return err
			}
			res, err := resolver.ResolveRows(cmd.Context(), src.Image, geo, perRow, rows)
			if err != nil {
				return err
			}
			verdict := gate.ClassifyDirection(res)

			if ctx.jsonOutput() {
				return writeJSON(cmd, directionsOutput{Path: args[0], Geometry: geo, Result: res, Verdict: verdict})
			}

			names := make([]string, 0, len(res.PerMethod))
			for name := range res.PerMethod {
				names = append(names, name)
			}
			sort.Strings(names)

			table := make([][]string, 0, len(names))
			for _, name := range names {
				mr := res.PerMethod[name]
				row := []string{name, ftoa(mr.Confidence)}
				for _, d := range direction.All {
					if r, ok := mr.Row(d); ok {
						row = append(row, itoa(r))
					} else {
						row = append(row, "-")
					}
				}
				row = append(row, mr.Error)
				table = append(table, row)
			}
			printTable(cmd,
				[]string{"Method", "Confidence", "Down", "Up", "Left", "Right", "Error"},
				table,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
			)
			best := res.BestMethod
			if best == "" {
				best = "none"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Frame %dx%d, %d rows of %d. Best: %s. Verdict: %s\n",
				geo.FrameWidth, geo.FrameHeight, rows, perRow, best, verdict)
			return nil
		},
	}
	ff.register(cmd)
	return cmd
}
