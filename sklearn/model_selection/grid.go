package model_selection

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/YuminosukeSato/kgeval/sklearn/linear_model"
)

// Params is one hyperparameter candidate for LogisticRegression.
type Params struct {
	C       float64
	Penalty string
	Solver  string
}

// String formats the candidate the way reports print it.
func (p Params) String() string {
	return fmt.Sprintf("C=%g, penalty=%s, solver=%s", p.C, p.Penalty, p.Solver)
}

// Options converts the candidate into LogisticRegression options.
func (p Params) Options() []linear_model.LogisticRegressionOption {
	return []linear_model.LogisticRegressionOption{
		linear_model.WithLRC(p.C),
		linear_model.WithLRPenalty(p.Penalty),
		linear_model.WithLRSolver(p.Solver),
	}
}

// LogSpace returns num values spaced evenly on a log10 scale from
// 10^start to 10^stop inclusive, like numpy.logspace.
func LogSpace(start, stop float64, num int) []float64 {
	if num <= 0 {
		return nil
	}
	out := make([]float64, num)
	if num == 1 {
		out[0] = math.Pow(10, start)
		return out
	}
	floats.Span(out, start, stop)
	for i, e := range out {
		out[i] = math.Pow(10, e)
	}
	return out
}

// DefaultCs is logspace(-5, 5, 11).
func DefaultCs() []float64 {
	return LogSpace(-5, 5, 11)
}

// ParameterGrid enumerates every (C, penalty, solver) combination. C varies
// slowest, then penalty (l1 before l2), then solver in
// linear_model.SolversFor order. Search tie-breaks depend on this order.
func ParameterGrid(cs []float64) []Params {
	penalties := []string{linear_model.PenaltyL1, linear_model.PenaltyL2}
	var grid []Params
	for _, c := range cs {
		for _, penalty := range penalties {
			for _, solver := range linear_model.SolversFor(penalty) {
				grid = append(grid, Params{C: c, Penalty: penalty, Solver: solver})
			}
		}
	}
	return grid
}

// DefaultGrid is ParameterGrid(DefaultCs()): 66 candidates.
func DefaultGrid() []Params {
	return ParameterGrid(DefaultCs())
}
