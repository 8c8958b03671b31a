// Package kgeval evaluates a binary "who teaches" classifier on tabular people
// data extracted from a knowledge graph.
//
// The module compares two training regimes for a scaled logistic-regression
// pipeline:
//
//   - a baseline: one stratified train/test split, C=1, l2 penalty, lbfgs
//   - a nested grid search: 5 stratified outer folds, 3 inner folds per outer
//     fold, 66 candidate hyperparameter sets selected by balanced accuracy
//
// Both regimes share the same feature matrix and class-balanced weighting and
// produce scikit-learn style classification reports.
//
// # Quick Start
//
//	ds, err := dataset.LoadCSV("data/dataset.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	search, err := evaluation.NewGridSearchTrainer(evaluation.DefaultSearchConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	baseline := evaluation.NewBaselineTrainer(evaluation.DefaultBaselineConfig())
//
//	out, err := evaluation.NewComparator(baseline, search, report.Formatter{}, 0.3, 42).
//	    Compare(context.Background(), ds)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(out)
//
// The same flow is available from the command line:
//
//	kgeval -data data/dataset.csv compare
//
// # Packages
//
//   - dataset: CSV loading and schema checks
//   - features: feature matrix and label vector construction
//   - preprocessing: StandardScaler
//   - sklearn/linear_model: LogisticRegression with lbfgs, liblinear, newton-cg and saga solvers
//   - sklearn/model_selection: StratifiedKFold, TrainTestSplit, parameter grids
//   - pipeline: scaler → classifier artifact
//   - metrics: accuracy, balanced accuracy, per-class precision/recall/F1
//   - evaluation: baseline trainer, nested grid search, comparator
//   - report: text reports and fold-accuracy charts
//   - internal/config: TOML and environment configuration
//   - core/model, core/parallel, pkg/errors, pkg/log: shared infrastructure
//
// # Determinism
//
// Every split and every stochastic solver is seeded from a single int64 seed.
// Results do not depend on the number of workers.
package kgeval
