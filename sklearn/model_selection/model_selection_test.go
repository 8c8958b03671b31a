package model_selection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/kgeval/pkg/errors"
	"github.com/YuminosukeSato/kgeval/sklearn/linear_model"
)

// labels returns nPos ones followed by nNeg zeros, interleaved so the
// classes are not contiguous.
func labels(nPos, nNeg int) *mat.VecDense {
	y := mat.NewVecDense(nPos+nNeg, nil)
	for i := 0; i < nPos; i++ {
		y.SetVec(i*(nPos+nNeg)/nPos, 1)
	}
	return y
}

func ratio(y mat.Vector, indices []int) float64 {
	pos := 0
	for _, i := range indices {
		if y.AtVec(i) == 1 {
			pos++
		}
	}
	return float64(pos) / float64(len(indices))
}

func TestStratifiedKFold_Partition(t *testing.T) {
	tests := []struct {
		name       string
		nPos, nNeg int
		k          int
	}{
		{"balanced 100 / 5", 50, 50, 5},
		{"imbalanced 100 / 5", 30, 70, 5},
		{"uneven 37 / 3", 11, 26, 3},
		{"minimum / 5", 5, 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			y := labels(tt.nPos, tt.nNeg)
			n := y.Len()
			folds, err := NewStratifiedKFold(tt.k, true, 42).Split(y)
			require.NoError(t, err)
			require.Len(t, folds, tt.k)

			seen := make([]int, n)
			overall := float64(tt.nPos) / float64(n)
			for _, f := range folds {
				assert.Equal(t, n, len(f.TrainIndices)+len(f.TestIndices))
				assert.IsIncreasing(t, f.TestIndices)
				assert.IsIncreasing(t, f.TrainIndices)
				for _, i := range f.TestIndices {
					seen[i]++
				}

				// Within one record of the overall class ratio.
				tol := 1.0 / float64(len(f.TestIndices))
				assert.InDelta(t, overall, ratio(y, f.TestIndices), tol+1e-12)

				// Fold sizes differ by at most one.
				assert.InDelta(t, float64(n)/float64(tt.k), float64(len(f.TestIndices)), 1)
			}
			for i, c := range seen {
				assert.Equal(t, 1, c, "index %d must be tested exactly once", i)
			}
		})
	}
}

func TestStratifiedKFold_Deterministic(t *testing.T) {
	y := labels(40, 60)

	a, err := NewStratifiedKFold(5, true, 7).Split(y)
	require.NoError(t, err)
	b, err := NewStratifiedKFold(5, true, 7).Split(y)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := NewStratifiedKFold(5, true, 8).Split(y)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestStratifiedKFold_InsufficientData(t *testing.T) {
	y := labels(4, 20)
	_, err := NewStratifiedKFold(5, true, 42).Split(y)

	var ierr *errors.InsufficientDataError
	require.True(t, errors.As(err, &ierr), "got %v", err)
	assert.Equal(t, 1, ierr.Class)
	assert.Equal(t, 4, ierr.Count)
	assert.Equal(t, 5, ierr.Required)
}

func TestTrainTestSplit(t *testing.T) {
	y := labels(50, 50)
	split, err := TrainTestSplit(y, 0.3, 42)
	require.NoError(t, err)

	assert.Len(t, split.TestIndices, 30)
	assert.Len(t, split.TrainIndices, 70)
	assert.InDelta(t, 0.5, ratio(y, split.TestIndices), 1e-12)
	assert.InDelta(t, 0.5, ratio(y, split.TrainIndices), 1e-12)

	again, err := TrainTestSplit(y, 0.3, 42)
	require.NoError(t, err)
	assert.Equal(t, split, again)
}

func TestTrainTestSplit_ClampsSmallClasses(t *testing.T) {
	// round(2 * 0.1) == 0 would leave the test side without positives.
	y := labels(2, 18)
	split, err := TrainTestSplit(y, 0.1, 1)
	require.NoError(t, err)
	assert.Greater(t, ratio(y, split.TestIndices), 0.0)
	assert.Greater(t, ratio(y, split.TrainIndices), 0.0)
}

func TestTrainTestSplit_Errors(t *testing.T) {
	y := labels(10, 10)
	for _, f := range []float64{0, 1, -0.5, 1.5, math.NaN()} {
		_, err := TrainTestSplit(y, f, 42)
		var verr *errors.ValidationError
		assert.True(t, errors.As(err, &verr), "fraction %v", f)
	}

	_, err := TrainTestSplit(labels(1, 10), 0.3, 42)
	var ierr *errors.InsufficientDataError
	assert.True(t, errors.As(err, &ierr))
}

func TestLogSpace(t *testing.T) {
	cs := DefaultCs()
	require.Len(t, cs, 11)
	for i, c := range cs {
		assert.InEpsilon(t, math.Pow(10, float64(i-5)), c, 1e-12)
	}
	assert.Nil(t, LogSpace(0, 1, 0))
	assert.Equal(t, []float64{100}, LogSpace(2, 5, 1))
}

func TestParameterGrid_Order(t *testing.T) {
	grid := DefaultGrid()
	require.Len(t, grid, 66)

	want := []Params{
		{C: 1e-5, Penalty: linear_model.PenaltyL1, Solver: linear_model.SolverLiblinear},
		{C: 1e-5, Penalty: linear_model.PenaltyL1, Solver: linear_model.SolverSaga},
		{C: 1e-5, Penalty: linear_model.PenaltyL2, Solver: linear_model.SolverLBFGS},
		{C: 1e-5, Penalty: linear_model.PenaltyL2, Solver: linear_model.SolverLiblinear},
		{C: 1e-5, Penalty: linear_model.PenaltyL2, Solver: linear_model.SolverNewtonCG},
		{C: 1e-5, Penalty: linear_model.PenaltyL2, Solver: linear_model.SolverSaga},
	}
	for i, p := range want {
		assert.Equal(t, p.Penalty, grid[i].Penalty)
		assert.Equal(t, p.Solver, grid[i].Solver)
		assert.InEpsilon(t, p.C, grid[i].C, 1e-12)
	}
	assert.InEpsilon(t, 1e-4, grid[6].C, 1e-12)
	assert.InEpsilon(t, 1e5, grid[65].C, 1e-12)
}

func TestParams_String(t *testing.T) {
	p := Params{C: 0.1, Penalty: "l2", Solver: "lbfgs"}
	assert.Equal(t, "C=0.1, penalty=l2, solver=lbfgs", p.String())
}

func TestRowsAndElements(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewVecDense(3, []float64{0, 1, 0})

	sub := Rows(X, []int{2, 0})
	assert.Equal(t, []float64{5, 6, 1, 2}, sub.RawMatrix().Data)
	assert.Equal(t, []float64{0, 0}, Elements(y, []int{2, 0}).RawVector().Data)
}
