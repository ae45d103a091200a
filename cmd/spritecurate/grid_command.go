package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sprite-curator/internal/gate"
	"sprite-curator/internal/grid"
	"sprite-curator/internal/raster"
)

type gridOutput struct {
	Path     string        `json:"path"`
	Geometry grid.Geometry `json:"geometry"`
	Verdict  gate.Verdict  `json:"verdict"`
	Error    string        `json:"error,omitempty"`
}

func newGridCommand(ctx *commandContext) *cobra.Command {
	var minPeriod, maxPeriod int

	cmd := &cobra.Command{
		Use:   "grid <image>...",
		Short: "Detect frame size and grid from pixel data",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			params := cfg.GridParams()
			if cmd.Flags().Changed("min-period") || cmd.Flags().Changed("max-period") {
				params = params.WithPeriodRange(minPeriod, maxPeriod)
			}

			outputs := make([]gridOutput, 0, len(args))
			for _, path := range args {
				src, err := raster.Load(path)
				if raster.IsDecodeError(err) {
					outputs = append(outputs, gridOutput{Path: path, Verdict: gate.Failed, Error: err.Error()})
					continue
				}
				if err != nil {
					return err
				}
				geo, detectErr := grid.Detect(src.Image, params)
				out := gridOutput{Path: path, Geometry: geo, Verdict: gate.ClassifyGeometry(geo, detectErr)}
				if detectErr != nil {
					out.Error = detectErr.Error()
				}
				outputs = append(outputs, out)
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, outputs)
			}
			rows := make([][]string, 0, len(outputs))
			for _, o := range outputs {
				g := o.Geometry
				rows = append(rows, []string{
					o.Path,
					fmt.Sprintf("%dx%d", g.FrameWidth, g.FrameHeight),
					fmt.Sprintf("%dx%d", g.Columns, g.Rows),
					itoa(g.TotalFrames),
					itoa(g.Padding),
					ftoa(g.Confidence.Width) + " / " + ftoa(g.Confidence.Height),
					o.Verdict.String(),
				})
			}
			printTable(cmd,
				[]string{"Image", "Frame", "Grid", "Frames", "Padding", "Confidence W/H", "Verdict"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft},
			)
			return nil
		},
	}

	def := grid.DefaultParams()
	cmd.Flags().IntVar(&minPeriod, "min-period", def.MinPeriod, "Smallest frame size to search (px)")
	cmd.Flags().IntVar(&maxPeriod, "max-period", def.MaxPeriod, "Largest frame size to search (px)")
	return cmd
}
