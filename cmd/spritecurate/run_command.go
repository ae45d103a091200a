package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"sprite-curator/internal/catalog"
	"sprite-curator/internal/pipeline"
)

type runOutput struct {
	Summary  pipeline.Summary   `json:"summary"`
	Outcomes []pipeline.Outcome `json:"outcomes"`
	Catalog  string             `json:"catalog"`
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var manifest, outputDir string
	var workers int
	var charactersOnly, dryRun, noDirections bool

	cmd := &cobra.Command{
		Use:   "run [--manifest file.yaml | <image>...]",
		Short: "Gate, extract and catalog a batch of sprite sheets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig(cmd)
			if err != nil {
				return err
			}

			var sheets []pipeline.Sheet
			switch {
			case manifest != "" && len(args) > 0:
				return errors.New("pass either --manifest or image paths, not both")
			case manifest != "":
				sheets, err = pipeline.LoadManifest(manifest)
			default:
				sheets, err = pipeline.SheetsFromPaths(args)
			}
			if err != nil {
				return err
			}

			store, err := catalog.Open(cfg.Catalog.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			pcfg := pipeline.DefaultConfig()
			pcfg.Workers = cfg.Pipeline.Workers
			pcfg.GridParams = cfg.GridParams()
			pcfg.Grouping = cfg.GroupingParams()
			pcfg.GroupingEnabled = cfg.Grouping.Enabled
			pcfg.CharactersOnly = cfg.Pipeline.CharactersOnly || charactersOnly
			if workers > 0 {
				pcfg.Workers = workers
			}

			var sink pipeline.FrameSink = pipeline.DirSink{Root: cfg.Pipeline.OutputDir}
			if outputDir != "" {
				sink = pipeline.DirSink{Root: outputDir}
			}
			if dryRun {
				sink = pipeline.DiscardSink{}
			}

			opts := []pipeline.Option{pipeline.WithLogger(ctx.log())}
			if !noDirections {
				resolver, err := ctx.resolver(cmd.Context())
				if err != nil {
					return err
				}
				opts = append(opts, pipeline.WithResolver(resolver))
			}
			if cfg.Semantic.ValidateLayouts {
				client, err := ctx.classifier()
				if err != nil {
					return err
				}
				if client != nil {
					opts = append(opts, pipeline.WithLayoutValidator(client))
				}
			}

			runner, err := pipeline.NewRunner(pcfg, sink, store, opts...)
			if err != nil {
				return err
			}
			stats, runErr := runner.Run(cmd.Context(), sheets)
			if stats == nil {
				return runErr
			}

			sum := stats.Summary()
			if ctx.jsonOutput() {
				if err := writeJSON(cmd, runOutput{Summary: sum, Outcomes: stats.Outcomes(), Catalog: store.Path()}); err != nil {
					return err
				}
				return runErr
			}

			rows := make([][]string, 0, sum.Total)
			for _, o := range stats.Outcomes() {
				frame := "-"
				if o.Layout != nil {
					frame = fmt.Sprintf("%dx%d", o.Layout.FrameWidth, o.Layout.FrameHeight)
				}
				rows = append(rows, []string{
					o.SheetID,
					string(o.Status),
					o.Verdict.String(),
					frame,
					itoa(o.Frames),
					o.DirectionVerdict.String(),
					itoa(len(o.Groups)),
					o.Error,
				})
			}
			printTable(cmd,
				[]string{"Sheet", "Status", "Verdict", "Frame", "Frames", "Directions", "Groups", "Error"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignRight, alignLeft},
			)
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join([]string{
				fmt.Sprintf("Run %s", sum.RunID),
				fmt.Sprintf("total %d", sum.Total),
				fmt.Sprintf("processed %d", sum.Processed),
				fmt.Sprintf("needs review %d", sum.NeedsReview),
				fmt.Sprintf("failed %d", sum.Failed),
				fmt.Sprintf("skipped %d", sum.Skipped),
				fmt.Sprintf("frames %d", sum.ExtractedFrames),
				fmt.Sprintf("success %.1f%%", sum.SuccessRate),
			}, ", "))
			return runErr
		},
	}

	cmd.Flags().StringVarP(&manifest, "manifest", "m", "", "YAML manifest of sheets")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Frame output directory (default from config)")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Concurrent sheets (default from config)")
	cmd.Flags().BoolVar(&charactersOnly, "characters-only", false, "Skip sheets that are not animated characters")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Do not write frame files")
	cmd.Flags().BoolVar(&noDirections, "no-directions", false, "Skip direction resolution")
	return cmd
}
