package linear_model

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/kgeval/core/model"
	"github.com/YuminosukeSato/kgeval/pkg/errors"
	"github.com/YuminosukeSato/kgeval/pkg/log"
)

// Penalties.
const (
	PenaltyL1 = "l1"
	PenaltyL2 = "l2"
)

// Solvers.
const (
	SolverLBFGS     = "lbfgs"
	SolverLiblinear = "liblinear"
	SolverNewtonCG  = "newton-cg"
	SolverSaga      = "saga"
)

// Class weights.
const (
	ClassWeightNone     = "none"
	ClassWeightBalanced = "balanced"
)

// solversByPenalty lists the solvers supporting each penalty, in the order a
// hyperparameter grid enumerates them.
var solversByPenalty = map[string][]string{
	PenaltyL1: {SolverLiblinear, SolverSaga},
	PenaltyL2: {SolverLBFGS, SolverLiblinear, SolverNewtonCG, SolverSaga},
}

// SolversFor returns the solvers that support penalty, in grid order.
func SolversFor(penalty string) []string {
	return slices.Clone(solversByPenalty[penalty])
}

// LogisticRegression is a binary logistic regression classifier
// compatible with scikit-learn's LogisticRegression for the l1 and l2
// penalties.
//
// It minimizes
//
//	C * Σ s_i * logloss(y_i, w·x_i + b) + R(w)
//
// where R is ½‖w‖² (l2) or ‖w‖₁ (l1), the intercept is not penalized, and
// s_i is 1 or, with class_weight="balanced", n / (2 * n_class(y_i)).
type LogisticRegression struct {
	state *model.StateManager

	// Hyperparameters
	penalty      string  // Regularization: "l1", "l2"
	C            float64 // Inverse regularization strength
	fitIntercept bool    // Whether to fit intercept
	classWeight  string  // Class weight: "balanced", "none"
	randomState  int64   // Seed for the stochastic and coordinate solvers
	solver       string  // Solver: "lbfgs", "liblinear", "newton-cg", "saga"
	maxIter      int     // Maximum iterations (epochs for saga/liblinear)
	tol          float64 // Tolerance for stopping

	// Model parameters
	coef_      []float64 // Coefficients (n_features)
	intercept_ float64   // Intercept term
	classes_   []int     // Unique class labels, ascending
	nIter_     int       // Iterations used by the solver

	logger log.Logger
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier.
// Defaults follow scikit-learn: l2, C=1, lbfgs, max_iter=100, tol=1e-4.
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		penalty:      PenaltyL2,
		C:            1.0,
		fitIntercept: true,
		classWeight:  ClassWeightNone,
		randomState:  0,
		solver:       SolverLBFGS,
		maxIter:      100,
		tol:          1e-4,
		logger:       log.GetLoggerWithName("linear_model"),
	}

	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// WithLRPenalty sets the regularization type
func WithLRPenalty(penalty string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.penalty = penalty
	}
}

// WithLRC sets the inverse regularization strength
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.C = c
	}
}

// WithLogisticFitIntercept sets whether to fit intercept
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRSolver sets the optimization solver
func WithLRSolver(solver string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.solver = solver
	}
}

// WithLRMaxIter sets the maximum number of iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the tolerance for stopping criteria
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithLRRandomState sets the random seed
func WithLRRandomState(seed int64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.randomState = seed
	}
}

// WithLRClassWeight sets the class weighting ("balanced" or "none")
func WithLRClassWeight(classWeight string) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.classWeight = classWeight
	}
}

// WithLRLogger sets the logger used for convergence diagnostics
func WithLRLogger(logger log.Logger) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.logger = logger
	}
}

// validateParams checks the hyperparameters before fitting.
func (lr *LogisticRegression) validateParams() error {
	solvers, ok := solversByPenalty[lr.penalty]
	if !ok {
		return errors.NewValidationError("penalty", "must be 'l1' or 'l2'", lr.penalty)
	}
	if !slices.Contains(solvers, lr.solver) {
		return errors.NewValidationError("solver",
			fmt.Sprintf("does not support penalty %q; supported: %v", lr.penalty, solvers), lr.solver)
	}
	if !(lr.C > 0) || math.IsInf(lr.C, 0) {
		return errors.NewValidationError("C", "must be a positive finite number", lr.C)
	}
	if lr.maxIter < 1 {
		return errors.NewValidationError("max_iter", "must be at least 1", lr.maxIter)
	}
	if !(lr.tol > 0) {
		return errors.NewValidationError("tol", "must be positive", lr.tol)
	}
	if lr.classWeight != ClassWeightNone && lr.classWeight != ClassWeightBalanced {
		return errors.NewValidationError("class_weight", "must be 'balanced' or 'none'", lr.classWeight)
	}
	return nil
}

// Fit trains the logistic regression model on a 0/1 (or any two-valued)
// column vector y.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	if err := lr.validateParams(); err != nil {
		return err
	}

	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("LogisticRegression.Fit",
			fmt.Sprintf("y must be a column vector: got shape (%d, %d)", yRows, yCols))
	}

	lr.extractClasses(y)
	if len(lr.classes_) != 2 {
		return errors.NewValueError("LogisticRegression.Fit",
			fmt.Sprintf("binary classification needs exactly 2 classes in the data, got %d", len(lr.classes_)))
	}

	p := newProblem(X, y, lr.classes_[1], lr.classWeight, lr.penalty, lr.C, lr.fitIntercept)

	var (
		params []float64
		nIter  int
		err    error
	)
	switch lr.solver {
	case SolverLBFGS:
		params, nIter, err = solveLBFGS(p, lr.maxIter, lr.tol)
	case SolverNewtonCG:
		params, nIter, err = solveNewton(p, lr.maxIter, lr.tol)
	case SolverLiblinear:
		params, nIter, err = solveCoordinateDescent(p, lr.maxIter, lr.tol, lr.randomState)
	case SolverSaga:
		params, nIter, err = solveSaga(p, lr.maxIter, lr.tol, lr.randomState)
	}
	if err != nil {
		return errors.NewModelError("LogisticRegression.Fit", lr.solver, err)
	}
	if err := errors.CheckNumericalStability(lr.solver, params, nIter); err != nil {
		return err
	}

	lr.coef_ = params[:nFeatures]
	lr.intercept_ = params[nFeatures]
	lr.nIter_ = nIter

	if nIter >= lr.maxIter {
		errors.Warn(errors.NewConvergenceWarning(lr.solver, nIter,
			fmt.Sprintf("penalty=%s C=%g", lr.penalty, lr.C)))
	}
	lr.logger.Debug("logistic regression fitted",
		log.OperationKey, log.OperationFit,
		log.SolverKey, lr.solver,
		log.PenaltyKey, lr.penalty,
		log.CKey, lr.C,
		log.IterationKey, nIter,
		log.SamplesKey, nSamples,
	)

	lr.state.SetFitted(nFeatures, nSamples)
	return nil
}

// extractClasses identifies unique class labels in ascending order
func (lr *LogisticRegression) extractClasses(y mat.Matrix) {
	rows, _ := y.Dims()
	seen := make(map[int]struct{})
	lr.classes_ = lr.classes_[:0]
	for i := 0; i < rows; i++ {
		label := int(y.At(i, 0))
		if _, ok := seen[label]; !ok {
			seen[label] = struct{}{}
			lr.classes_ = append(lr.classes_, label)
		}
	}
	slices.Sort(lr.classes_)
}

// DecisionFunction returns w·x + b for every row.
func (lr *LogisticRegression) DecisionFunction(X mat.Matrix) (*mat.VecDense, error) {
	if err := lr.state.RequireFitted("LogisticRegression", "DecisionFunction"); err != nil {
		return nil, err
	}
	nSamples, nFeatures := X.Dims()
	if err := lr.state.RequireFeatures("LogisticRegression.DecisionFunction", nFeatures); err != nil {
		return nil, err
	}

	w := mat.NewVecDense(nFeatures, lr.coef_)
	scores := mat.NewVecDense(nSamples, nil)
	scores.MulVec(X, w)
	for i := 0; i < nSamples; i++ {
		scores.SetVec(i, scores.AtVec(i)+lr.intercept_)
	}
	return scores, nil
}

// Predict returns the predicted class of every row as an n×1 matrix.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	scores, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	n := scores.Len()
	predictions := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		if scores.AtVec(i) > 0 {
			predictions.Set(i, 0, float64(lr.classes_[1]))
		} else {
			predictions.Set(i, 0, float64(lr.classes_[0]))
		}
	}
	return predictions, nil
}

// PredictProba returns probability estimates, one column per class.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	scores, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	n := scores.Len()
	probas := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		p1 := sigmoid(scores.AtVec(i))
		probas.Set(i, 0, 1.0-p1)
		probas.Set(i, 1, p1)
	}
	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	nSamples, _ := X.Dims()
	correct := 0
	for i := 0; i < nSamples; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(nSamples), nil
}

// Classes returns the class labels seen during fitting.
func (lr *LogisticRegression) Classes() []int {
	return slices.Clone(lr.classes_)
}

// Coef returns a copy of the fitted coefficients.
func (lr *LogisticRegression) Coef() []float64 {
	return slices.Clone(lr.coef_)
}

// Intercept returns the fitted intercept.
func (lr *LogisticRegression) Intercept() float64 {
	return lr.intercept_
}

// NIter returns the number of iterations the solver ran.
func (lr *LogisticRegression) NIter() int {
	return lr.nIter_
}

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"penalty":       lr.penalty,
		"C":             lr.C,
		"fit_intercept": lr.fitIntercept,
		"class_weight":  lr.classWeight,
		"random_state":  lr.randomState,
		"solver":        lr.solver,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
	}
}

// sigmoid computes the logistic function without overflowing exp.
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1.0 / (1.0 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1.0 + e)
}

// log1pExp computes log(1 + exp(z)) stably.
func log1pExp(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}
