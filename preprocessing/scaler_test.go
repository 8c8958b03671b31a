package preprocessing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/kgeval/pkg/errors"
)

func TestStandardScaler_FitTransform(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 10,
		3, 10,
		4, 10,
	})

	scaler := NewStandardScalerDefault()
	scaled, err := scaler.FitTransform(X)
	require.NoError(t, err)

	assert.InDeltaSlice(t, []float64{2.5, 10}, scaler.Mean, 1e-12)
	// population std of 1..4 is sqrt(1.25); constant column keeps scale 1
	assert.InDelta(t, math.Sqrt(1.25), scaler.Scale[0], 1e-12)
	assert.Equal(t, 1.0, scaler.Scale[1])

	col := mat.Col(nil, 0, scaled)
	sum, sumSq := 0.0, 0.0
	for _, v := range col {
		sum += v
		sumSq += v * v
	}
	assert.InDelta(t, 0, sum/4, 1e-12)
	assert.InDelta(t, 1, sumSq/4, 1e-12)
	assert.Equal(t, 0.0, scaled.At(2, 1))
}

func TestStandardScaler_TrainStatisticsOnly(t *testing.T) {
	train := mat.NewDense(2, 1, []float64{0, 2})
	test := mat.NewDense(1, 1, []float64{100})

	scaler := NewStandardScalerDefault()
	require.NoError(t, scaler.Fit(train))

	out, err := scaler.Transform(test)
	require.NoError(t, err)
	assert.InDelta(t, 99.0, out.At(0, 0), 1e-12)
}

func TestStandardScaler_InverseTransform(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, -4, 5, 0, 9, 8})
	scaler := NewStandardScalerDefault()

	scaled, err := scaler.FitTransform(X)
	require.NoError(t, err)

	back, err := scaler.InverseTransform(scaled)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X, back, 1e-10))
}

func TestStandardScaler_Errors(t *testing.T) {
	scaler := NewStandardScalerDefault()

	_, err := scaler.Transform(mat.NewDense(1, 1, nil))
	var notFitted *errors.NotFittedError
	assert.True(t, errors.As(err, &notFitted))

	require.NoError(t, scaler.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})))
	_, err = scaler.Transform(mat.NewDense(1, 3, nil))
	var dimErr *errors.DimensionError
	assert.True(t, errors.As(err, &dimErr))
}

func TestStandardScaler_LargeMatrixMatchesSequential(t *testing.T) {
	n := transformParallelThreshold + 37
	data := make([]float64, n*2)
	for i := range data {
		data[i] = float64(i%97) * 0.5
	}
	X := mat.NewDense(n, 2, data)

	scaler := NewStandardScalerDefault()
	out, err := scaler.FitTransform(X)
	require.NoError(t, err)

	for _, i := range []int{0, n / 2, n - 1} {
		for j := 0; j < 2; j++ {
			want := (X.At(i, j) - scaler.Mean[j]) / scaler.Scale[j]
			assert.InDelta(t, want, out.At(i, j), 1e-12)
		}
	}
}
