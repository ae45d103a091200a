// Command gridtest runs layout detection on a sprite sheet and prints the
// intermediate signals.
package main

import (
	"flag"
	"fmt"
	"os"

	"sprite-curator/internal/gate"
	"sprite-curator/internal/grid"
	"sprite-curator/internal/raster"
)

func main() {
	imagePath := flag.String("image", "", "Path to sprite sheet (PNG, GIF, JPEG, TIFF or WebP)")
	minPeriod := flag.Int("min-period", grid.DefaultParams().MinPeriod, "Smallest frame size to search (px)")
	maxPeriod := flag.Int("max-period", grid.DefaultParams().MaxPeriod, "Largest frame size to search (px)")
	title := flag.String("title", "", "Sheet title, searched for a WxH frame size")
	verbose := flag.Bool("verbose", false, "Print edge signals and peaks")
	flag.Parse()

	if *imagePath == "" {
		fmt.Println("Usage: gridtest -image <path> [-min-period 8] [-max-period 128] [-title text] [-verbose]")
		os.Exit(1)
	}

	src, err := raster.Load(*imagePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load image: %v\n", err)
		os.Exit(1)
	}

	bounds := src.Image.Bounds()
	fmt.Printf("Loaded %s image: %dx%d pixels (alpha: %v)\n", src.Format, bounds.Dx(), bounds.Dy(), src.HasAlpha)

	params := grid.DefaultParams().WithPeriodRange(*minPeriod, *maxPeriod)
	fmt.Printf("\nDetection parameters:\n")
	fmt.Printf("  Period: %d-%d px\n", params.MinPeriod, params.MaxPeriod)
	fmt.Printf("  Peaks: min distance %d px, threshold mean + %.1f stddev\n", params.MinPeakDistance, params.PeakSigma)

	a := grid.Analyze(src.Image, grid.Hint{Title: *title}, params)
	d := a.Detection

	if *verbose {
		fmt.Printf("\nColumn signal (%d samples):\n", len(d.ColumnSignal))
		printSignal(d.ColumnSignal)
		fmt.Printf("Row signal (%d samples):\n", len(d.RowSignal))
		printSignal(d.RowSignal)
	}
	fmt.Printf("\nColumn peaks: %v (median spacing %d)\n", d.ColumnPeaks, d.WidthFromPeaks)
	fmt.Printf("Row peaks:    %v (median spacing %d)\n", d.RowPeaks, d.HeightFromPeaks)

	g := d.Geometry
	fmt.Printf("\nAutocorrelation: %dx%d frames, %dx%d grid, padding %d, score %.1f/%.1f\n",
		g.FrameWidth, g.FrameHeight, g.Columns, g.Rows, g.Padding, g.Confidence.Width, g.Confidence.Height)
	if err := g.Validate(); err != nil {
		fmt.Printf("  %v\n", err)
	}

	fmt.Printf("\nCandidates (%d):\n", len(a.Candidates))
	fmt.Printf("%-16s %10s %10s %8s %8s %8s\n", "Method", "Frame", "Grid", "Frames", "Perfect", "Waste")
	for _, l := range a.Candidates {
		fmt.Printf("%-16s %10s %10s %8d %8v %7.1f%%\n",
			l.Method,
			fmt.Sprintf("%dx%d", l.FrameWidth, l.FrameHeight),
			fmt.Sprintf("%dx%d", l.Columns, l.Rows),
			l.TotalFrames, l.PerfectFit, l.WastePercent)
	}

	verdict := gate.ClassifyGrid(a.Best, nil)
	if a.Best != nil {
		fmt.Printf("\nBest: %dx%d via %s\n", a.Best.FrameWidth, a.Best.FrameHeight, a.Best.Method)
	} else {
		fmt.Printf("\nBest: none\n")
	}
	fmt.Printf("Verdict: %s (route: %s)\n", verdict, verdict.Route())
}

func printSignal(signal []float64) {
	for i, v := range signal {
		fmt.Printf("%8.0f", v)
		if (i+1)%10 == 0 {
			fmt.Println()
		}
	}
	fmt.Println()
}
