package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sprite-curator/internal/gate"
	"sprite-curator/internal/grid"
	"sprite-curator/internal/raster"
	"sprite-curator/internal/semantic"
)

type layoutOutput struct {
	Path       string                     `json:"path"`
	Analysis   grid.Analysis              `json:"analysis"`
	Verdict    gate.Verdict               `json:"verdict"`
	Route      string                     `json:"route"`
	Validation *semantic.LayoutValidation `json:"validation,omitempty"`
}

func newLayoutCommand(ctx *commandContext) *cobra.Command {
	var title, description string
	var validate bool

	cmd := &cobra.Command{
		Use:   "layout <image>",
		Short: "List layout candidates and the gate verdict for one sheet",
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

			a := grid.Analyze(src.Image, grid.Hint{Title: title, Description: description}, cfg.GridParams())
			verdict := gate.ClassifyGrid(a.Best, nil)
			out := layoutOutput{Path: args[0], Analysis: a, Verdict: verdict, Route: verdict.Route().String()}

			if validate || cfg.Semantic.ValidateLayouts {
				client, err := ctx.classifier()
				if err != nil {
					return err
				}
				if client == nil {
					return fmt.Errorf("layout validation needs [semantic] enabled = true")
				}
				if a.Best != nil {
					v, err := semantic.ValidateLayout(cmd.Context(), client, src.Image, *a.Best)
					if err != nil {
						return err
					}
					out.Validation = &v
				}
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, out)
			}

			rows := make([][]string, 0, len(a.Candidates))
			for _, l := range a.Candidates {
				rows = append(rows, []string{
					string(l.Method),
					fmt.Sprintf("%dx%d", l.FrameWidth, l.FrameHeight),
					fmt.Sprintf("%dx%d", l.Columns, l.Rows),
					itoa(l.TotalFrames),
					fmt.Sprintf("%v", l.PerfectFit),
					fmt.Sprintf("%.1f%%", l.WastePercent),
				})
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%s: %dx%d\n", args[0], a.ImageWidth, a.ImageHeight)
			printTable(cmd,
				[]string{"Method", "Frame", "Grid", "Frames", "Perfect", "Waste"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft, alignRight},
			)
			if a.Best != nil {
				fmt.Fprintf(w, "Best: %dx%d via %s\n", a.Best.FrameWidth, a.Best.FrameHeight, a.Best.Method)
			}
			fmt.Fprintf(w, "Verdict: %s (route: %s)\n", verdict, verdict.Route())
			if v := out.Validation; v != nil {
				fmt.Fprintf(w, "Validation: validated=%v confidence=%.3f\n", v.Validated, v.Confidence)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Sheet title, searched for a WxH frame size")
	cmd.Flags().StringVar(&description, "description", "", "Sheet description, searched for a WxH frame size")
	cmd.Flags().BoolVar(&validate, "validate", false, "Check sampled frames with the semantic classifier")
	return cmd
}
