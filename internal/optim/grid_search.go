// Package optim fits rate constants by brute force: it scans a grid of
// multipliers over selected rate-table entries and keeps the run that
// minimizes a chosen result metric.
package optim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/chemevol/internal/experiment"
)

type GridSearch struct {
	rateIndexes []int
	grids       [][]float64
}

// NewGridSearch scans grids[i] as candidate multipliers for rate-table
// entry rateIndexes[i], over the full cross product.
func NewGridSearch(rateIndexes []int, grids [][]float64) *GridSearch {
	return &GridSearch{rateIndexes: rateIndexes, grids: grids}
}

// LogSpace returns n multipliers spaced logarithmically from lo to hi.
func LogSpace(lo, hi float64, n int) []float64 {
	if n < 2 {
		return []float64{lo}
	}
	out := make([]float64, n)
	ratio := math.Pow(hi/lo, 1/float64(n-1))
	v := lo
	for i := range out {
		out[i] = v
		v *= ratio
	}
	return out
}

// Search runs one experiment per grid point and returns the rate scales
// minimizing result metric metricName. Runs that fail to build or
// evolve are skipped; an error is returned only when no run produced
// the metric.
func (g *GridSearch) Search(
	ctx context.Context,
	build func(scales map[int]float64) (*experiment.Experiment, error),
	metricName string,
) (map[int]float64, float64, error) {

	best := math.Inf(1)
	var bestScales map[int]float64

	g.searchRecursive(ctx, 0, make(map[int]float64), build, metricName, &best, &bestScales)

	if bestScales == nil {
		return nil, 0, fmt.Errorf("optim: no run produced metric %q", metricName)
	}
	return bestScales, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[int]float64,
	build func(map[int]float64) (*experiment.Experiment, error),
	metricName string,
	best *float64,
	bestScales *map[int]float64,
) {
	if ctx.Err() != nil {
		return
	}

	if depth == len(g.rateIndexes) {
		exp, err := build(current)
		if err != nil {
			return
		}
		result, err := exp.Run(ctx)
		if err != nil {
			return
		}
		val, ok := result.Metrics[metricName]
		if !ok {
			return
		}
		if val < *best {
			*best = val
			scales := make(map[int]float64, len(current))
			for k, v := range current {
				scales[k] = v
			}
			*bestScales = scales
		}
		return
	}

	idx := g.rateIndexes[depth]
	for _, val := range g.grids[depth] {
		current[idx] = val
		g.searchRecursive(ctx, depth+1, current, build, metricName, best, bestScales)
	}
	delete(current, idx)
}
