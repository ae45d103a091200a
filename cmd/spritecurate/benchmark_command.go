package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"sprite-curator/internal/benchmark"
)

func newBenchmarkCommand(ctx *commandContext) *cobra.Command {
	var method string
	var parallel int

	cmd := &cobra.Command{
		Use:   "benchmark <corpus.yaml>",
		Short: "Score direction methods against ground-truth sheets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := ctx.ensureConfig(cmd); err != nil {
				return err
			}
			cases, err := benchmark.LoadCorpus(args[0])
			if err != nil {
				return err
			}
			resolver, err := ctx.resolver(cmd.Context())
			if err != nil {
				return err
			}
			report, err := benchmark.Run(cmd.Context(), resolver, cases, benchmark.Options{
				Parallel: parallel,
				Method:   method,
				Logger:   ctx.log(),
			})
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, report)
			}

			var rows [][]string
			for _, cr := range report.Cases {
				if cr.Error != "" {
					rows = append(rows, []string{cr.Name, "-", "-", "-", cr.Error})
					continue
				}
				names := make([]string, 0, len(cr.Methods))
				for name := range cr.Methods {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					ms := cr.Methods[name]
					rows = append(rows, []string{
						cr.Name,
						name,
						fmt.Sprintf("%.1f%% (%d/%d)", ms.Accuracy, ms.Correct, ms.Total),
						ftoa(ms.Confidence),
						ms.Error,
					})
				}
			}
			printTable(cmd,
				[]string{"Case", "Method", "Accuracy", "Confidence", "Error"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignLeft},
			)

			names := make([]string, 0, len(report.Summary))
			for name := range report.Summary {
				names = append(names, name)
			}
			sort.Strings(names)
			summary := make([][]string, 0, len(names))
			for _, name := range names {
				s := report.Summary[name]
				summary = append(summary, []string{
					name,
					fmt.Sprintf("%.1f%%", s.MeanAccuracy),
					ftoa(s.MeanConfidence),
					itoa(s.Cases),
					itoa(s.Failures),
					itoa(s.BestCount),
				})
			}
			printTable(cmd,
				[]string{"Method", "Mean accuracy", "Mean confidence", "Cases", "Failures", "Best"},
				summary,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&method, "method", "", "Score only this method (traditional, feature, semantic)")
	cmd.Flags().IntVar(&parallel, "parallel", 4, "Cases scored concurrently")
	return cmd
}
