package evaluation

import (
	"context"
	"strings"

	"github.com/YuminosukeSato/kgeval/dataset"
	"github.com/YuminosukeSato/kgeval/features"
	"github.com/YuminosukeSato/kgeval/metrics"
	"github.com/YuminosukeSato/kgeval/pkg/log"
)

// Formatter renders trainer results as text.
type Formatter interface {
	FormatBaseline(report *metrics.EvaluationReport) string
	FormatSearch(result *SearchResult) string
}

// Comparator runs both trainers on the same features and joins their reports.
type Comparator struct {
	trainerBase
	baseline     *BaselineTrainer
	search       *GridSearchTrainer
	formatter    Formatter
	testFraction float64
	seed         int64
}

// NewComparator creates a Comparator. testFraction and seed go to the
// baseline; seed also drives the grid search.
func NewComparator(baseline *BaselineTrainer, search *GridSearchTrainer, formatter Formatter, testFraction float64, seed int64, opts ...Option) *Comparator {
	return &Comparator{
		trainerBase:  newTrainerBase("comparator", opts),
		baseline:     baseline,
		search:       search,
		formatter:    formatter,
		testFraction: testFraction,
		seed:         seed,
	}
}

// Compare builds the features once, runs the baseline then the grid search
// and returns the baseline block and the search block separated by exactly
// one blank line.
//
// Errors from either trainer are returned unchanged, with no partial output.
func (c *Comparator) Compare(ctx context.Context, ds *dataset.Dataset) (string, error) {
	design, err := features.Build(ds)
	if err != nil {
		return "", err
	}

	_, baselineReport, err := c.baseline.Train(ctx, design.X, design.Y, c.testFraction, c.seed)
	if err != nil {
		return "", err
	}
	result, err := c.search.Search(ctx, design.X, design.Y, c.seed)
	if err != nil {
		return "", err
	}

	c.logger.Info("comparison finished",
		log.OperationKey, log.OperationCompare,
		log.FeaturesKey, len(design.Columns),
		log.AccuracyKey, baselineReport.Accuracy,
		log.MeanAccuracyKey, result.MeanAccuracy,
	)
	baseline := strings.TrimRight(c.formatter.FormatBaseline(baselineReport), "\n")
	return baseline + "\n\n" + c.formatter.FormatSearch(result), nil
}
