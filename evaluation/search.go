package evaluation

import (
	"context"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/kgeval/core/parallel"
	"github.com/YuminosukeSato/kgeval/pipeline"
	"github.com/YuminosukeSato/kgeval/pkg/errors"
	"github.com/YuminosukeSato/kgeval/pkg/log"
	"github.com/YuminosukeSato/kgeval/sklearn/model_selection"
)

// SearchConfig configures a nested grid search.
type SearchConfig struct {
	OuterFolds int
	InnerFolds int
	Grid       []model_selection.Params
	// Workers bounds the goroutines used for outer folds and, separately, for
	// the candidates of each fold. Values below 1 mean one per CPU.
	Workers int
	MaxIter int
	Tol     float64
}

// DefaultSearchConfig returns 5 outer folds, 3 inner folds, the
// logspace(-5, 5, 11) grid over every penalty/solver pair, max_iter=1000 and
// tol=1e-4.
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		OuterFolds: 5,
		InnerFolds: 3,
		Grid:       model_selection.DefaultGrid(),
		Workers:    0,
		MaxIter:    1000,
		Tol:        1e-4,
	}
}

// Validate checks the configuration.
func (c SearchConfig) Validate() error {
	if c.OuterFolds < 2 {
		return errors.NewValidationError("outer_folds", "must be at least 2", c.OuterFolds)
	}
	if c.InnerFolds < 2 {
		return errors.NewValidationError("inner_folds", "must be at least 2", c.InnerFolds)
	}
	if len(c.Grid) == 0 {
		return errors.NewValidationError("grid", "must contain at least one candidate", len(c.Grid))
	}
	if c.MaxIter < 1 {
		return errors.NewValidationError("max_iter", "must be at least 1", c.MaxIter)
	}
	if !(c.Tol > 0) {
		return errors.NewValidationError("tol", "must be positive", c.Tol)
	}
	return nil
}

// GridSearchTrainer runs nested stratified cross-validation: the inner folds
// select hyperparameters by balanced accuracy, the outer folds estimate how
// that selection generalizes.
type GridSearchTrainer struct {
	trainerBase
	config SearchConfig
}

// NewGridSearchTrainer creates a GridSearchTrainer after validating config.
func NewGridSearchTrainer(config SearchConfig, opts ...Option) (*GridSearchTrainer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	config.Grid = append([]model_selection.Params(nil), config.Grid...)
	return &GridSearchTrainer{
		trainerBase: newTrainerBase("grid_search", opts),
		config:      config,
	}, nil
}

// Config returns the trainer configuration.
func (t *GridSearchTrainer) Config() SearchConfig {
	return t.config
}

// Search runs the nested cross-validation on (X, y).
//
// Outer folds and candidates run concurrently; results are merged by index so
// the outcome only depends on (X, y, seed). Any fold failure aborts the call.
// A cancelled ctx returns an error matching errors.ErrCancelled and no result.
func (t *GridSearchTrainer) Search(ctx context.Context, X mat.Matrix, y mat.Vector, seed int64) (*SearchResult, error) {
	const op = "GridSearchTrainer.Search"
	start := time.Now()

	if err := ctx.Err(); err != nil {
		return nil, cancelled(ctx, op, err)
	}
	if err := checkInput(op, X, y, t.config.OuterFolds); err != nil {
		return nil, err
	}

	outerCV := model_selection.NewStratifiedKFold(t.config.OuterFolds, true, seed)
	outer, err := outerCV.Split(y)
	if err != nil {
		return nil, err
	}

	t.logger.Info("nested grid search started",
		log.OperationKey, log.OperationSearch,
		log.SamplesKey, y.Len(),
		log.CandidatesKey, len(t.config.Grid),
		log.WorkersKey, parallel.Workers(t.config.Workers, outerCV.GetNSplits()),
		log.RandomSeedKey, seed,
	)

	folds := make([]FoldResult, len(outer))
	err = parallel.ForEach(ctx, len(outer), t.config.Workers, func(ctx context.Context, i int) error {
		fold, err := t.runOuterFold(ctx, X, y, i, outer[i], seed)
		if err != nil {
			return err
		}
		folds[i] = *fold
		return nil
	})
	if err != nil {
		return nil, cancelled(ctx, op, err)
	}

	result := &SearchResult{
		Model: folds[len(folds)-1].Model,
		Folds: folds,
	}
	mean, variance := stat.PopMeanVariance(result.Accuracies(), nil)
	result.MeanAccuracy = mean
	result.StdAccuracy = math.Sqrt(variance)

	t.logger.Info("nested grid search finished",
		log.OperationKey, log.OperationSearch,
		log.MeanAccuracyKey, result.MeanAccuracy,
		log.StdAccuracyKey, result.StdAccuracy,
		log.DurationMsKey, elapsedMs(start),
	)
	return result, nil
}

// runOuterFold selects the best candidate on the outer-train partition,
// refits it there and evaluates it on the outer-test partition.
func (t *GridSearchTrainer) runOuterFold(ctx context.Context, X mat.Matrix, y mat.Vector, index int, fold model_selection.Fold, seed int64) (*FoldResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := t.logger.With(log.FoldKey, index+1)
	logger.Debug("outer fold started", log.PhaseKey, log.PhaseTraining)

	XTrain := model_selection.Rows(X, fold.TrainIndices)
	yTrain := model_selection.Elements(y, fold.TrainIndices)
	XTest := model_selection.Rows(X, fold.TestIndices)
	yTest := model_selection.Elements(y, fold.TestIndices)

	best, err := t.selectCandidate(ctx, logger, XTrain, yTrain, seed)
	if err != nil {
		return nil, err
	}

	artifact := pipeline.New(best.Params, fitOptions(t.config.MaxIter, t.config.Tol, seed, logger)...)
	if err := artifact.Fit(XTrain, yTrain); err != nil {
		return nil, err
	}
	report, err := artifact.Evaluate(XTest, yTest)
	if err != nil {
		return nil, err
	}

	logger.Debug("outer fold finished",
		log.PhaseKey, log.PhaseTesting,
		log.CKey, best.Params.C,
		log.PenaltyKey, best.Params.Penalty,
		log.SolverKey, best.Params.Solver,
		log.ScoreKey, best.MeanScore,
		log.AccuracyKey, report.Accuracy,
	)
	return &FoldResult{
		Index:  index,
		Best:   best,
		Report: report,
		Model:  artifact,
	}, nil
}

// selectCandidate scores every grid candidate with inner cross-validation and
// returns the one with the highest mean balanced accuracy. Ties go to the
// earliest candidate in grid order.
func (t *GridSearchTrainer) selectCandidate(ctx context.Context, logger log.Logger, X *mat.Dense, y *mat.VecDense, seed int64) (TrialResult, error) {
	inner, err := model_selection.NewStratifiedKFold(t.config.InnerFolds, true, seed).Split(y)
	if err != nil {
		return TrialResult{}, err
	}

	type partition struct {
		XTrain, XTest *mat.Dense
		yTrain, yTest *mat.VecDense
	}
	parts := make([]partition, len(inner))
	for k, f := range inner {
		parts[k] = partition{
			XTrain: model_selection.Rows(X, f.TrainIndices),
			XTest:  model_selection.Rows(X, f.TestIndices),
			yTrain: model_selection.Elements(y, f.TrainIndices),
			yTest:  model_selection.Elements(y, f.TestIndices),
		}
	}

	grid := t.config.Grid
	trials := make([]TrialResult, len(grid))
	err = parallel.ForEach(ctx, len(grid), t.config.Workers, func(ctx context.Context, c int) error {
		scores := make([]float64, len(parts))
		for k, p := range parts {
			artifact := pipeline.New(grid[c], fitOptions(t.config.MaxIter, t.config.Tol, seed, logger)...)
			if err := artifact.Fit(p.XTrain, p.yTrain); err != nil {
				return err
			}
			score, err := artifact.BalancedAccuracy(p.XTest, p.yTest)
			if err != nil {
				return err
			}
			scores[k] = score
		}
		trials[c] = TrialResult{
			Params:     grid[c],
			MeanScore:  stat.Mean(scores, nil),
			FoldScores: scores,
		}
		logger.Debug("candidate scored",
			log.PhaseKey, log.PhaseValidation,
			log.CKey, grid[c].C,
			log.PenaltyKey, grid[c].Penalty,
			log.SolverKey, grid[c].Solver,
			log.ScoreKey, trials[c].MeanScore,
		)
		return nil
	})
	if err != nil {
		return TrialResult{}, err
	}

	return trials[bestTrial(trials)], nil
}

// bestTrial returns the index of the highest mean score; the first one wins
// ties.
func bestTrial(trials []TrialResult) int {
	best := 0
	for c := 1; c < len(trials); c++ {
		if trials[c].MeanScore > trials[best].MeanScore {
			best = c
		}
	}
	return best
}
