package types

import (
	"fmt"
	"os"
	"path"
	"strconv"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// CoverageAnalyzer counts the distinct states seen so far after every episode
type CoverageAnalyzer struct {
	uniqueStates    map[string]bool
	numUniqueStates []float64
}

var _ Analyzer = &CoverageAnalyzer{}

func PureCoverage() *CoverageAnalyzer {
	return &CoverageAnalyzer{
		uniqueStates:    make(map[string]bool),
		numUniqueStates: make([]float64, 0),
	}
}

func (c *CoverageAnalyzer) Analyze(_, _ int, _ string, trace *Trace) {
	for j := 0; j < trace.Len(); j++ {
		s, _, _, ns, _ := trace.Get(j)
		c.uniqueStates[s.Hash()] = true
		c.uniqueStates[ns.Hash()] = true
	}
	c.numUniqueStates = append(c.numUniqueStates, float64(len(c.uniqueStates)))
}

func (c *CoverageAnalyzer) DataSet() DataSet {
	out := make([]float64, len(c.numUniqueStates))
	copy(out, c.numUniqueStates)
	return out
}

func (c *CoverageAnalyzer) Reset() {
	c.uniqueStates = make(map[string]bool)
	c.numUniqueStates = make([]float64, 0)
}

// PlotSeries draws one line per named series against the episode index
func PlotSeries(file, title, yLabel string, names []string, series [][]float64) error {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Episode"
	p.Y.Label.Text = yLabel
	for i := 0; i < len(names); i++ {
		points := make(plotter.XYs, len(series[i]))
		for j, v := range series[i] {
			points[j] = plotter.XY{
				X: float64(j),
				Y: v,
			}
		}
		line, err := plotter.NewLine(points)
		if err != nil {
			continue
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(names[i], line)
	}
	return errors.Wrapf(p.Save(8*vg.Inch, 8*vg.Inch, file), "saving plot %s", file)
}

// PureCoveragePlotter plots the CoverageAnalyzer datasets of every experiment
func PureCoveragePlotter(plotPath string) Comparator {
	return func(run int, names []string, ds []DataSet) error {
		if err := os.MkdirAll(plotPath, os.ModePerm); err != nil {
			return err
		}
		series := make([][]float64, len(names))
		for i := range names {
			series[i] = ds[i].([]float64)
			if n := len(series[i]); n > 0 {
				fmt.Printf("Number of unique states: %.0f for experiment: %s\n", series[i][n-1], names[i])
			}
		}
		return PlotSeries(path.Join(plotPath, strconv.Itoa(run)+"_pure_coverage.png"), "Comparison", "States covered", names, series)
	}
}
