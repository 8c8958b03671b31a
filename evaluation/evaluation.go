// Package evaluation runs the baseline and nested grid-search trainers and
// compares their reports.
//
// Both trainers take every setting (seed, fractions, fold counts, grid) as an
// explicit argument; nothing is read from package-level state. Trainers are
// safe for concurrent use.
package evaluation

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/kgeval/metrics"
	"github.com/YuminosukeSato/kgeval/pipeline"
	"github.com/YuminosukeSato/kgeval/pkg/errors"
	"github.com/YuminosukeSato/kgeval/pkg/log"
	"github.com/YuminosukeSato/kgeval/sklearn/linear_model"
	"github.com/YuminosukeSato/kgeval/sklearn/model_selection"
)

// Label values of the binary target.
const (
	LabelNegative = 0
	LabelPositive = 1
)

// TrialResult is the inner cross-validation outcome of one candidate.
type TrialResult struct {
	Params     model_selection.Params
	MeanScore  float64
	FoldScores []float64
}

// FoldResult is the outcome of one outer fold.
type FoldResult struct {
	// Index is 0-based; reports print Index+1.
	Index  int
	Best   TrialResult
	Report *metrics.EvaluationReport
	Model  *pipeline.Artifact
}

// SearchResult is the outcome of a nested grid search.
type SearchResult struct {
	// Model is the refitted pipeline of the last outer fold.
	Model        *pipeline.Artifact
	Folds        []FoldResult
	MeanAccuracy float64
	// StdAccuracy is the population standard deviation.
	StdAccuracy float64
}

// Reports returns the outer-fold reports in fold order.
func (r *SearchResult) Reports() []*metrics.EvaluationReport {
	out := make([]*metrics.EvaluationReport, len(r.Folds))
	for i, f := range r.Folds {
		out[i] = f.Report
	}
	return out
}

// Accuracies returns the outer-fold accuracies in fold order.
func (r *SearchResult) Accuracies() []float64 {
	out := make([]float64, len(r.Folds))
	for i, f := range r.Folds {
		out[i] = f.Report.Accuracy
	}
	return out
}

// Option configures a trainer.
type Option func(*trainerBase)

// WithLogger sets the logger used by a trainer.
func WithLogger(logger log.Logger) Option {
	return func(b *trainerBase) {
		b.logger = logger
	}
}

type trainerBase struct {
	logger log.Logger
}

func newTrainerBase(name string, opts []Option) trainerBase {
	b := trainerBase{logger: log.GetLoggerWithName(name)}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// fitOptions are the solver settings shared by every pipeline a trainer fits.
func fitOptions(maxIter int, tol float64, seed int64, logger log.Logger) []linear_model.LogisticRegressionOption {
	return []linear_model.LogisticRegressionOption{
		linear_model.WithLRMaxIter(maxIter),
		linear_model.WithLRTol(tol),
		linear_model.WithLRRandomState(seed),
		linear_model.WithLRLogger(logger),
	}
}

// checkInput validates X/y shapes and that each class has at least required
// members.
func checkInput(op string, X mat.Matrix, y mat.Vector, required int) error {
	if X == nil || y == nil {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	rows, _ := X.Dims()
	if rows == 0 {
		return errors.NewModelError(op, "empty data", errors.ErrEmptyData)
	}
	if y.Len() != rows {
		return errors.NewDimensionError(op, rows, y.Len(), 0)
	}

	counts := classCounts(y)
	for label := range counts {
		if label != LabelNegative && label != LabelPositive {
			return errors.NewValueError(op, "labels must be 0 or 1")
		}
	}
	for _, label := range []int{LabelNegative, LabelPositive} {
		if counts[label] < required {
			return errors.NewInsufficientDataError(op, label, counts[label], required)
		}
	}
	return nil
}

func classCounts(y mat.Vector) map[int]int {
	counts := make(map[int]int, 2)
	for i := 0; i < y.Len(); i++ {
		counts[int(y.AtVec(i))]++
	}
	return counts
}

// cancelled converts a context error into ErrCancelled with the context cause.
func cancelled(ctx context.Context, op string, err error) error {
	if ctx.Err() != nil {
		return errors.Cancelled(op, context.Cause(ctx))
	}
	return err
}

func elapsedMs(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
