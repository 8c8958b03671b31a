package evaluation

import (
	"context"
	"math"
	"math/rand/v2"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/kgeval/pkg/errors"
	"github.com/YuminosukeSato/kgeval/pkg/log"
	"github.com/YuminosukeSato/kgeval/sklearn/model_selection"
)

func init() {
	errors.SetWarningHandler(func(error) {})
}

// synthetic returns nPos positives and nNeg negatives in an interleaved
// order. The first feature is informative, the other two are noise.
func synthetic(nPos, nNeg int, seed uint64) (*mat.Dense, *mat.VecDense) {
	r := rand.New(rand.NewPCG(seed, seed))
	n := nPos + nNeg
	X := mat.NewDense(n, 3, nil)
	y := mat.NewVecDense(n, nil)
	pos := 0
	for i := 0; i < n; i++ {
		label := 0.0
		if pos < nPos && (i%2 == 0 || n-i <= nPos-pos) {
			label = 1
			pos++
		}
		y.SetVec(i, label)
		X.Set(i, 0, 2*label+r.NormFloat64())
		X.Set(i, 1, r.NormFloat64())
		X.Set(i, 2, 10*r.Float64())
	}
	return X, y
}

// smallConfig keeps the search fast: 3 values of C over every solver.
func smallConfig(workers int) SearchConfig {
	cfg := DefaultSearchConfig()
	cfg.Grid = model_selection.ParameterGrid([]float64{0.01, 1, 100})
	cfg.Workers = workers
	cfg.MaxIter = 200
	return cfg
}

func TestBaselineTrainer_BalancedSupport(t *testing.T) {
	X, y := synthetic(50, 50, 1)
	trainer := NewBaselineTrainer(DefaultBaselineConfig())

	artifact, report, err := trainer.Train(context.Background(), X, y, 0.3, 42)
	require.NoError(t, err)
	require.NotNil(t, artifact)

	require.Len(t, report.Classes, 2)
	for _, c := range report.Classes {
		assert.Equal(t, 15, c.Support)
	}
	assert.Equal(t, 30, report.Support())
	assert.GreaterOrEqual(t, report.Accuracy, 0.0)
	assert.LessOrEqual(t, report.Accuracy, 1.0)
	assert.Greater(t, report.Accuracy, 0.6)

	assert.Equal(t, BaselineParams, artifact.Params)
	assert.Equal(t, "balanced", artifact.GetParams()["class_weight"])
	assert.Equal(t, 1000, artifact.GetParams()["max_iter"])
}

func TestBaselineTrainer_Deterministic(t *testing.T) {
	X, y := synthetic(30, 70, 2)
	trainer := NewBaselineTrainer(DefaultBaselineConfig())

	a1, r1, err := trainer.Train(context.Background(), X, y, 0.25, 7)
	require.NoError(t, err)
	a2, r2, err := trainer.Train(context.Background(), X, y, 0.25, 7)
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, a1.Classifier.Coef(), a2.Classifier.Coef())
}

func TestBaselineTrainer_Errors(t *testing.T) {
	X, y := synthetic(10, 10, 3)
	trainer := NewBaselineTrainer(DefaultBaselineConfig())
	ctx := context.Background()

	for _, f := range []float64{0, 1, 1.2} {
		_, _, err := trainer.Train(ctx, X, y, f, 42)
		var verr *errors.ValidationError
		assert.True(t, errors.As(err, &verr), "fraction %v: %v", f, err)
	}

	// Only one positive: it cannot be on both sides of the split.
	X1, y1 := synthetic(1, 10, 3)
	_, _, err := trainer.Train(ctx, X1, y1, 0.3, 42)
	var ierr *errors.InsufficientDataError
	require.True(t, errors.As(err, &ierr), "got %v", err)
	assert.Equal(t, LabelPositive, ierr.Class)

	// No positives at all.
	X0, y0 := synthetic(0, 10, 3)
	_, _, err = trainer.Train(ctx, X0, y0, 0.3, 42)
	assert.True(t, errors.As(err, &ierr), "got %v", err)

	cctx, cancel := context.WithCancel(ctx)
	cancel()
	_, _, err = trainer.Train(cctx, X, y, 0.3, 42)
	assert.True(t, errors.Is(err, errors.ErrCancelled), "got %v", err)
}

func TestGridSearchTrainer_Search(t *testing.T) {
	X, y := synthetic(40, 60, 4)
	logger, _ := log.NewTestLogger(log.LevelDebug)
	trainer, err := NewGridSearchTrainer(smallConfig(0), WithLogger(logger))
	require.NoError(t, err)

	result, err := trainer.Search(context.Background(), X, y, 42)
	require.NoError(t, err)
	require.Len(t, result.Folds, 5)

	accs := result.Accuracies()
	sum := 0.0
	for i, f := range result.Folds {
		assert.Equal(t, i, f.Index)
		assert.GreaterOrEqual(t, f.Report.Accuracy, 0.0)
		assert.LessOrEqual(t, f.Report.Accuracy, 1.0)
		assert.GreaterOrEqual(t, f.Report.BalancedAccuracy, 0.0)
		assert.LessOrEqual(t, f.Report.BalancedAccuracy, 1.0)
		assert.Equal(t, 20, f.Report.Support())
		assert.Len(t, f.Best.FoldScores, 3)
		assert.Contains(t, trainer.Config().Grid, f.Best.Params)
		sum += accs[i]
	}

	mean := sum / 5
	assert.InDelta(t, mean, result.MeanAccuracy, 1e-12)
	variance := 0.0
	for _, a := range accs {
		variance += (a - mean) * (a - mean)
	}
	assert.InDelta(t, math.Sqrt(variance/5), result.StdAccuracy, 1e-12)

	assert.Same(t, result.Folds[4].Model, result.Model)
	assert.Len(t, result.Reports(), 5)

	assert.True(t, logger.ContainsMessage("nested grid search finished"))
	assert.True(t, logger.ContainsMessage("outer fold finished"))
	assert.True(t, logger.ContainsMessage("candidate scored"))
	assert.True(t, logger.ContainsMessage("logistic regression fitted"))
}

func TestGridSearchTrainer_DeterministicAcrossWorkers(t *testing.T) {
	X, y := synthetic(25, 35, 5)

	run := func(workers int) *SearchResult {
		trainer, err := NewGridSearchTrainer(smallConfig(workers))
		require.NoError(t, err)
		result, err := trainer.Search(context.Background(), X, y, 11)
		require.NoError(t, err)
		return result
	}

	serial := run(1)
	concurrent := run(8)
	for i := range serial.Folds {
		assert.Equal(t, serial.Folds[i].Best, concurrent.Folds[i].Best)
		assert.Equal(t, serial.Folds[i].Report, concurrent.Folds[i].Report)
	}
	assert.Equal(t, serial.MeanAccuracy, concurrent.MeanAccuracy)
	assert.Equal(t, serial.StdAccuracy, concurrent.StdAccuracy)
}

func TestGridSearchTrainer_InsufficientData(t *testing.T) {
	// Four positives cannot fill five outer folds.
	X, y := synthetic(4, 50, 6)
	trainer, err := NewGridSearchTrainer(smallConfig(0))
	require.NoError(t, err)

	_, err = trainer.Search(context.Background(), X, y, 42)
	var ierr *errors.InsufficientDataError
	require.True(t, errors.As(err, &ierr), "got %v", err)
	assert.Equal(t, LabelPositive, ierr.Class)
	assert.Equal(t, 4, ierr.Count)
	assert.Equal(t, 5, ierr.Required)
}

func TestGridSearchTrainer_Cancelled(t *testing.T) {
	X, y := synthetic(20, 20, 7)
	trainer, err := NewGridSearchTrainer(smallConfig(0))
	require.NoError(t, err)

	cause := errors.New("user aborted")
	ctx, cancel := context.WithCancelCause(context.Background())
	cancel(cause)

	result, err := trainer.Search(ctx, X, y, 42)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, errors.ErrCancelled), "got %v", err)
	assert.True(t, errors.Is(err, cause), "got %v", err)
}

// cancelOn cancels the search the first time msg is logged at Debug.
type cancelOn struct {
	log.Logger
	msg    string
	cancel context.CancelCauseFunc
	cause  error
	hits   *atomic.Int32
}

func (l *cancelOn) Debug(msg string, fields ...any) {
	l.Logger.Debug(msg, fields...)
	if msg == l.msg {
		l.hits.Add(1)
		l.cancel(l.cause)
	}
}

func (l *cancelOn) With(fields ...any) log.Logger {
	c := *l
	c.Logger = l.Logger.With(fields...)
	return &c
}

func TestGridSearchTrainer_CancelledWhileRunning(t *testing.T) {
	X, y := synthetic(40, 40, 8)
	base, _ := log.NewTestLogger(log.LevelDebug)

	tests := []struct {
		name string
		// msg is the Debug message that triggers cancellation.
		msg          string
		foldFinished bool
	}{
		{name: "between outer folds", msg: "outer fold finished", foldFinished: true},
		{name: "between candidates", msg: "candidate scored", foldFinished: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base.Clear()
			cause := errors.New("user aborted")
			ctx, cancel := context.WithCancelCause(context.Background())
			defer cancel(nil)

			logger := &cancelOn{Logger: base, msg: tt.msg, cancel: cancel, cause: cause, hits: new(atomic.Int32)}
			trainer, err := NewGridSearchTrainer(smallConfig(1), WithLogger(logger))
			require.NoError(t, err)

			result, err := trainer.Search(ctx, X, y, 42)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, errors.ErrCancelled), "got %v", err)
			assert.True(t, errors.Is(err, cause), "got %v", err)

			// One worker: nothing starts after the cancelling item.
			assert.Equal(t, int32(1), logger.hits.Load())
			assert.True(t, base.ContainsMessage("nested grid search started"))
			assert.False(t, base.ContainsMessage("nested grid search finished"))
			assert.Equal(t, tt.foldFinished, base.ContainsMessage("outer fold finished"))
		})
	}
}

func TestSearchConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*SearchConfig)
	}{
		{"outer folds", func(c *SearchConfig) { c.OuterFolds = 1 }},
		{"inner folds", func(c *SearchConfig) { c.InnerFolds = 0 }},
		{"empty grid", func(c *SearchConfig) { c.Grid = nil }},
		{"max iter", func(c *SearchConfig) { c.MaxIter = 0 }},
		{"tol", func(c *SearchConfig) { c.Tol = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSearchConfig()
			tt.modify(&cfg)
			_, err := NewGridSearchTrainer(cfg)
			var verr *errors.ValidationError
			assert.True(t, errors.As(err, &verr), "got %v", err)
		})
	}
	assert.NoError(t, DefaultSearchConfig().Validate())
	assert.Len(t, DefaultSearchConfig().Grid, 66)
}

func TestBestTrial_FirstWinsTies(t *testing.T) {
	trials := []TrialResult{
		{MeanScore: 0.5},
		{MeanScore: 0.8},
		{MeanScore: 0.7},
		{MeanScore: 0.8},
	}
	assert.Equal(t, 1, bestTrial(trials))
	assert.Equal(t, 0, bestTrial([]TrialResult{{MeanScore: 0.3}, {MeanScore: 0.3}}))
}
