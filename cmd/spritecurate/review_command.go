package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sprite-curator/internal/catalog"
)

type reviewOutput struct {
	Stats   catalog.Stats         `json:"stats"`
	Entries []catalog.ReviewEntry `json:"entries"`
}

func newReviewCommand(ctx *commandContext) *cobra.Command {
	var processed bool
	var runID string

	cmd := &cobra.Command{
		Use:   "review",
		Short: "List sheets waiting for manual review",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}
			store, err := catalog.Open(cfg.Catalog.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			if processed || runID != "" {
				return listProcessed(cmd, ctx, store, runID)
			}

			entries, err := store.ReviewQueue(cmd.Context())
			if err != nil {
				return err
			}
			stats, err := store.Stats(cmd.Context())
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, reviewOutput{Stats: stats, Entries: entries})
			}

			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				best := "-"
				if len(e.Candidates) > 0 {
					c := e.Candidates[0]
					best = fmt.Sprintf("%dx%d (%s)", c.FrameWidth, c.FrameHeight, c.Method)
				}
				rows = append(rows, []string{
					e.ID,
					e.ImagePath,
					fmt.Sprintf("%dx%d", e.ImageWidth, e.ImageHeight),
					e.Verdict,
					itoa(len(e.Candidates)),
					best,
					e.Reason,
				})
			}
			printTable(cmd,
				[]string{"Sheet", "Image", "Size", "Verdict", "Candidates", "First candidate", "Reason"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignLeft, alignLeft},
			)
			fmt.Fprintf(cmd.OutOrStdout(), "%d processed (%d frames), %d awaiting review\n",
				stats.Processed, stats.ExtractedFrames, stats.NeedsReview)
			return nil
		},
	}

	cmd.Flags().BoolVar(&processed, "processed", false, "List processed sheets instead of the review queue")
	cmd.Flags().StringVar(&runID, "run", "", "Only list processed sheets from this run (implies --processed)")
	return cmd
}

func listProcessed(cmd *cobra.Command, ctx *commandContext, store *catalog.Store, runID string) error {
	sheets, err := store.ProcessedSheets(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if ctx.jsonOutput() {
		return writeJSON(cmd, sheets)
	}

	rows := make([][]string, 0, len(sheets))
	for _, p := range sheets {
		kind := p.Kind
		if kind == "" {
			kind = "-"
		}
		rows = append(rows, []string{
			p.ID,
			fmt.Sprintf("%dx%d", p.Layout.FrameWidth, p.Layout.FrameHeight),
			string(p.Layout.Method),
			itoa(p.ExtractedFrames),
			kind,
			p.DirectionVerdict,
			itoa(p.GroupCount),
			p.RunID,
		})
	}
	printTable(cmd,
		[]string{"Sheet", "Frame", "Method", "Frames", "Kind", "Directions", "Groups", "Run"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	)
	return nil
}
