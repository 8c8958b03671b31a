// Package pipeline chains a StandardScaler and a LogisticRegression into the
// fitted model artifact returned by the trainers.
package pipeline

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/kgeval/core/model"
	"github.com/YuminosukeSato/kgeval/metrics"
	"github.com/YuminosukeSato/kgeval/preprocessing"
	"github.com/YuminosukeSato/kgeval/sklearn/linear_model"
	"github.com/YuminosukeSato/kgeval/sklearn/model_selection"
)

// ModelType is written into exported weights.
const ModelType = "LogisticRegression"

var _ model.Classifier = (*Artifact)(nil)

// Artifact is a scaler → class-balanced logistic regression pipeline.
// The scaler is fitted on the training partition only.
type Artifact struct {
	Params     model_selection.Params
	Scaler     *preprocessing.StandardScaler
	Classifier *linear_model.LogisticRegression
}

// New creates an unfitted pipeline for params. Extra options are applied
// after params (max_iter, tol, random_state).
func New(params model_selection.Params, opts ...linear_model.LogisticRegressionOption) *Artifact {
	lrOpts := append([]linear_model.LogisticRegressionOption{
		linear_model.WithLRClassWeight(linear_model.ClassWeightBalanced),
	}, params.Options()...)
	lrOpts = append(lrOpts, opts...)

	return &Artifact{
		Params:     params,
		Scaler:     preprocessing.NewStandardScalerDefault(),
		Classifier: linear_model.NewLogisticRegression(lrOpts...),
	}
}

// Fit fits the scaler on X and the classifier on the scaled X.
func (a *Artifact) Fit(X, y mat.Matrix) error {
	Xs, err := a.Scaler.FitTransform(X)
	if err != nil {
		return err
	}
	return a.Classifier.Fit(Xs, y)
}

// Predict returns the predicted class of every row as an n×1 matrix.
func (a *Artifact) Predict(X mat.Matrix) (mat.Matrix, error) {
	Xs, err := a.Scaler.Transform(X)
	if err != nil {
		return nil, err
	}
	return a.Classifier.Predict(Xs)
}

// PredictProba returns class probabilities for every row.
func (a *Artifact) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	Xs, err := a.Scaler.Transform(X)
	if err != nil {
		return nil, err
	}
	return a.Classifier.PredictProba(Xs)
}

// Classes returns the class labels seen during fitting.
func (a *Artifact) Classes() []int {
	return a.Classifier.Classes()
}

// GetParams returns the classifier hyperparameters.
func (a *Artifact) GetParams() map[string]interface{} {
	return a.Classifier.GetParams()
}

// PredictVector is Predict flattened to a vector.
func (a *Artifact) PredictVector(X mat.Matrix) (*mat.VecDense, error) {
	pred, err := a.Predict(X)
	if err != nil {
		return nil, err
	}
	values := mat.Col(nil, 0, pred)
	return mat.NewVecDense(len(values), values), nil
}

// Evaluate predicts X and scores the predictions against y.
func (a *Artifact) Evaluate(X mat.Matrix, y mat.Vector) (*metrics.EvaluationReport, error) {
	pred, err := a.PredictVector(X)
	if err != nil {
		return nil, err
	}
	return metrics.Evaluate(y, pred)
}

// BalancedAccuracy predicts X and returns the balanced accuracy against y.
func (a *Artifact) BalancedAccuracy(X mat.Matrix, y mat.Vector) (float64, error) {
	pred, err := a.PredictVector(X)
	if err != nil {
		return 0, err
	}
	return metrics.BalancedAccuracy(y, pred)
}

// Weights exports the fitted pipeline. features names the columns of X.
func (a *Artifact) Weights(features []string) *model.ModelWeights {
	return &model.ModelWeights{
		ModelType:       ModelType,
		Version:         model.WeightsVersion,
		Coefficients:    a.Classifier.Coef(),
		Intercept:       a.Classifier.Intercept(),
		Classes:         a.Classifier.Classes(),
		Features:        append([]string(nil), features...),
		ScalerMean:      append([]float64(nil), a.Scaler.Mean...),
		ScalerScale:     append([]float64(nil), a.Scaler.Scale...),
		Hyperparameters: a.Classifier.GetParams(),
	}
}
