// Package log defines standard attribute keys for evaluation runs.
//
// Using the same keys everywhere makes the JSON output of a nested search
// easy to filter: every fold record carries FoldKey, every candidate record
// carries the hyperparameter keys.

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of model.
	// Examples: "LogisticRegression", "StandardScaler", "Pipeline"
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	// Standard values: "fit", "predict", "transform", "score", "search"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the evaluation.
	// Examples: "training", "validation", "testing"
	PhaseKey = "ml.phase"

	// RunIDKey correlates every record of one command invocation.
	RunIDKey = "run.id"
)

// Data Shape
const (
	// SamplesKey indicates the number of samples (rows).
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns).
	FeaturesKey = "data.features"

	// ClassCountsKey records the per-class member counts of a partition.
	ClassCountsKey = "data.class_counts"
)

// Cross-validation Context
const (
	// FoldKey records the outer fold index (0-based).
	FoldKey = "cv.fold"

	// InnerFoldKey records the inner fold index (0-based).
	InnerFoldKey = "cv.inner_fold"

	// CandidatesKey records the number of grid candidates evaluated.
	CandidatesKey = "cv.candidates"

	// WorkersKey records the parallelism limit of a run.
	WorkersKey = "cv.workers"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records accuracy in [0, 1].
	AccuracyKey = "metrics.accuracy"

	// BalancedAccuracyKey records the mean of per-class recall.
	BalancedAccuracyKey = "metrics.balanced_accuracy"

	// MeanAccuracyKey and StdAccuracyKey summarize the outer folds.
	MeanAccuracyKey = "metrics.mean_accuracy"
	StdAccuracyKey  = "metrics.std_accuracy"

	// ScoreKey records a candidate's mean inner-CV score.
	ScoreKey = "metrics.score"

	// IterationKey records the number of solver iterations.
	IterationKey = "training.iteration"
)

// Hyperparameters and Configuration
const (
	// CKey records the inverse regularization strength.
	CKey = "hyperparams.C"

	// PenaltyKey records the penalty ("l1" or "l2").
	PenaltyKey = "hyperparams.penalty"

	// SolverKey records the optimization solver.
	SolverKey = "hyperparams.solver"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// TestFractionKey records the baseline test fraction.
	TestFractionKey = "config.test_fraction"
)

// Error Context
const (
	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// WarningKey carries a structured warning object.
	WarningKey = "warning"
)

// Standard attribute values.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationScore     = "score"
	OperationSearch    = "search"
	OperationCompare   = "compare"

	PhaseTraining   = "training"
	PhaseValidation = "validation"
	PhaseTesting    = "testing"
)
