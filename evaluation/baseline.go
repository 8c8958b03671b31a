package evaluation

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/kgeval/metrics"
	"github.com/YuminosukeSato/kgeval/pipeline"
	"github.com/YuminosukeSato/kgeval/pkg/log"
	"github.com/YuminosukeSato/kgeval/sklearn/linear_model"
	"github.com/YuminosukeSato/kgeval/sklearn/model_selection"
)

// BaselineParams is the fixed configuration of the baseline classifier.
var BaselineParams = model_selection.Params{
	C:       1.0,
	Penalty: linear_model.PenaltyL2,
	Solver:  linear_model.SolverLBFGS,
}

// BaselineConfig holds the solver settings of the baseline classifier.
type BaselineConfig struct {
	MaxIter int
	Tol     float64
}

// DefaultBaselineConfig returns max_iter=1000, tol=1e-4.
func DefaultBaselineConfig() BaselineConfig {
	return BaselineConfig{MaxIter: 1000, Tol: 1e-4}
}

// BaselineTrainer fits one pipeline on one stratified train/test split.
type BaselineTrainer struct {
	trainerBase
	config BaselineConfig
}

// NewBaselineTrainer creates a BaselineTrainer.
func NewBaselineTrainer(config BaselineConfig, opts ...Option) *BaselineTrainer {
	return &BaselineTrainer{
		trainerBase: newTrainerBase("baseline", opts),
		config:      config,
	}
}

// Train splits (X, y) at testFraction, fits the scaler and classifier on the
// training side only and evaluates on the test side.
//
// It fails with a ValidationError when testFraction is outside (0, 1) and with
// an InsufficientDataError when a class cannot appear on both sides.
func (t *BaselineTrainer) Train(ctx context.Context, X mat.Matrix, y mat.Vector, testFraction float64, seed int64) (*pipeline.Artifact, *metrics.EvaluationReport, error) {
	const op = "BaselineTrainer.Train"
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, nil, cancelled(ctx, op, err)
	}
	if err := checkInput(op, X, y, 2); err != nil {
		return nil, nil, err
	}

	split, err := model_selection.TrainTestSplit(y, testFraction, seed)
	if err != nil {
		return nil, nil, err
	}

	XTrain := model_selection.Rows(X, split.TrainIndices)
	yTrain := model_selection.Elements(y, split.TrainIndices)
	XTest := model_selection.Rows(X, split.TestIndices)
	yTest := model_selection.Elements(y, split.TestIndices)

	artifact := pipeline.New(BaselineParams, fitOptions(t.config.MaxIter, t.config.Tol, seed, t.logger)...)
	if err := artifact.Fit(XTrain, yTrain); err != nil {
		return nil, nil, err
	}
	report, err := artifact.Evaluate(XTest, yTest)
	if err != nil {
		return nil, nil, err
	}

	t.logger.Info("baseline evaluated",
		log.OperationKey, log.OperationFit,
		log.TestFractionKey, testFraction,
		log.RandomSeedKey, seed,
		log.SamplesKey, y.Len(),
		log.AccuracyKey, report.Accuracy,
		log.BalancedAccuracyKey, report.BalancedAccuracy,
		log.DurationMsKey, elapsedMs(start),
	)
	return artifact, report, nil
}
