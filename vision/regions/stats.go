package regions

import (
	"fmt"
	"io"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// CoverageSummary describes the mask coverage of a run of frames. Coverage is the fraction of
// member pixels in a mask.
type CoverageSummary struct {
	Frames int
	Mean   float64
	Median float64
	Max    float64
	// Empty counts frames with no member pixels at all.
	Empty int
	// Coverages holds the summarized values in frame order.
	Coverages []float64
}

// SummarizeCoverage summarizes per frame coverages.
func SummarizeCoverage(coverages []float64) (CoverageSummary, error) {
	if len(coverages) == 0 {
		return CoverageSummary{}, errors.New("no coverage values to summarize")
	}
	data := stats.LoadRawData(coverages)
	mean, err := data.Mean()
	if err != nil {
		return CoverageSummary{}, err
	}
	median, err := data.Median()
	if err != nil {
		return CoverageSummary{}, err
	}
	maxCoverage, err := data.Max()
	if err != nil {
		return CoverageSummary{}, err
	}
	summary := CoverageSummary{
		Frames:    len(coverages),
		Mean:      mean,
		Median:    median,
		Max:       maxCoverage,
		Coverages: append([]float64(nil), coverages...),
	}
	for _, c := range coverages {
		if c == 0 {
			summary.Empty++
		}
	}
	return summary, nil
}

// String renders the summary as a table.
func (cs CoverageSummary) String() string {
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Frames", "Empty", "Mean", "Median", "Max"})
	t.AppendRow(table.Row{
		cs.Frames,
		cs.Empty,
		fmt.Sprintf("%.2f%%", cs.Mean*100),
		fmt.Sprintf("%.2f%%", cs.Median*100),
		fmt.Sprintf("%.2f%%", cs.Max*100),
	})
	return t.Render()
}

// PlotCoverage saves a line plot of coverage per frame. The image format follows the extension
// of path.
func PlotCoverage(indexes []int, coverages []float64, path string) error {
	if len(indexes) != len(coverages) {
		return errors.Errorf("have %d frame indexes for %d coverages", len(indexes), len(coverages))
	}
	if len(coverages) == 0 {
		return errors.New("no coverage values to plot")
	}
	points := make(plotter.XYs, len(coverages))
	for i, c := range coverages {
		points[i].X = float64(indexes[i])
		points[i].Y = c
	}

	p := plot.New()
	p.Title.Text = "Mask coverage"
	p.X.Label.Text = "frame"
	p.Y.Label.Text = "coverage"
	p.Y.Min = 0
	line, err := plotter.NewLine(points)
	if err != nil {
		return err
	}
	p.Add(line, plotter.NewGrid())
	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}

// FprintCoverageHistogram writes a text histogram of coverages in the given number of bins.
func FprintCoverageHistogram(w io.Writer, coverages []float64, bins int) error {
	if len(coverages) == 0 {
		return errors.New("no coverage values to plot")
	}
	if bins < 1 {
		return errors.Errorf("histogram needs at least one bin, got %d", bins)
	}
	data := stats.LoadRawData(coverages)
	lowest, err := data.Min()
	if err != nil {
		return err
	}
	highest, err := data.Max()
	if err != nil {
		return err
	}
	// a single value has no range to bin
	if lowest == highest {
		_, err := fmt.Fprintf(w, "all %d frames at %.2f%%\n", len(coverages), lowest*100)
		return err
	}
	return histogram.Fprint(w, histogram.Hist(bins, coverages), histogram.Linear(40))
}
