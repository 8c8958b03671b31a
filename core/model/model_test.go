package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/kgeval/pkg/errors"
)

func TestStateManager(t *testing.T) {
	s := NewStateManager()

	err := s.RequireFitted("LogisticRegression", "Predict")
	var notFitted *errors.NotFittedError
	require.True(t, errors.As(err, &notFitted))

	s.SetFitted(4, 100)
	assert.NoError(t, s.RequireFitted("LogisticRegression", "Predict"))
	assert.NoError(t, s.RequireFeatures("Predict", 4))

	var dimErr *errors.DimensionError
	require.True(t, errors.As(s.RequireFeatures("Predict", 3), &dimErr))
	assert.Equal(t, 4, dimErr.Expected)

	s.Reset()
	assert.False(t, s.IsFitted())
}

func TestModelWeights_RoundTrip(t *testing.T) {
	mw := &ModelWeights{
		ModelType:       "LogisticRegression",
		Version:         WeightsVersion,
		Coefficients:    []float64{0.5, -1.25},
		Intercept:       0.1,
		Classes:         []int{0, 1},
		Features:        []string{"age", "num_courses_taken"},
		ScalerMean:      []float64{40, 2},
		ScalerScale:     []float64{10, 1},
		Hyperparameters: map[string]interface{}{"C": 1.0, "penalty": "l2"},
	}
	require.NoError(t, mw.Validate())

	data, err := mw.ToJSON()
	require.NoError(t, err)

	var decoded ModelWeights
	require.NoError(t, decoded.FromJSON(data))
	assert.Equal(t, mw.Coefficients, decoded.Coefficients)
	assert.Equal(t, mw.Features, decoded.Features)
	assert.Equal(t, "l2", decoded.Hyperparameters["penalty"])
}

func TestModelWeights_Validate(t *testing.T) {
	mw := &ModelWeights{ModelType: "LogisticRegression", Version: WeightsVersion, Coefficients: []float64{1}}
	assert.Error(t, mw.Validate())

	mw.ScalerMean = []float64{0}
	mw.ScalerScale = []float64{1}
	assert.NoError(t, mw.Validate())

	mw.Features = []string{"a", "b"}
	assert.Error(t, mw.Validate())
}
