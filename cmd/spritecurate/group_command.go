package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sprite-curator/internal/frames"
	"sprite-curator/internal/raster"
	"sprite-curator/internal/similarity"
)

type groupOutput struct {
	Path   string             `json:"path"`
	Frames int                `json:"frames"`
	Groups []similarity.Group `json:"groups"`
}

func newGroupCommand(ctx *commandContext) *cobra.Command {
	var ff frameFlags
	var threshold int

	cmd := &cobra.Command{
		Use:   "group <image>",
		Short: "Cluster visually similar frames by perceptual hash",
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
			rowFrames, err := frames.Rows(src.Image, geo, perRow, rows)
			if err != nil {
				return err
			}
			fs := frames.Flatten(rowFrames)

			params := cfg.GroupingParams()
			if cmd.Flags().Changed("threshold") {
				params = params.WithThreshold(threshold)
			}
			groups, err := similarity.Cluster(fs, params)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, groupOutput{Path: args[0], Frames: len(fs), Groups: groups})
			}

			table := make([][]string, 0, len(groups))
			for _, g := range groups {
				idx := make([]string, len(g.Frames))
				for i, f := range g.Frames {
					idx[i] = itoa(f.Index)
				}
				r := g.Region(geo.FrameWidth, geo.FrameHeight)
				table = append(table, []string{
					itoa(g.ID),
					itoa(g.Size),
					fmt.Sprintf("%v", g.IsSequence),
					fmt.Sprintf("%d,%d %dx%d", r.X, r.Y, r.Width, r.Height),
					strings.Join(idx, " "),
				})
			}
			printTable(cmd,
				[]string{"Group", "Size", "Sequence", "Region", "Frames"},
				table,
				[]columnAlignment{alignRight, alignRight, alignLeft, alignLeft, alignLeft},
			)
			fmt.Fprintf(cmd.OutOrStdout(), "%d frames in %d groups\n", len(fs), len(groups))
			return nil
		},
	}
	ff.register(cmd)
	cmd.Flags().IntVar(&threshold, "threshold", similarity.DefaultThreshold, "Maximum Hamming distance to a group seed")
	return cmd
}
