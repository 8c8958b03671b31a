// Package report renders evaluation results as text and charts.
//
// The classification table uses the layout of scikit-learn's
// classification_report with two decimals:
//
//	              precision    recall  f1-score   support
//
//	           0       0.93      0.93      0.93        15
//	           1       0.93      0.93      0.93        15
//
//	    accuracy                           0.93        30
//	   macro avg       0.93      0.93      0.93        30
//	weighted avg       0.93      0.93      0.93        30
package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/kgeval/evaluation"
	"github.com/YuminosukeSato/kgeval/metrics"
)

const (
	weightedAvgLabel = "weighted avg"
	macroAvgLabel    = "macro avg"
	accuracyLabel    = "accuracy"
)

var _ evaluation.Formatter = Formatter{}

// Formatter implements evaluation.Formatter with the package functions.
type Formatter struct{}

// FormatBaseline implements evaluation.Formatter.
func (Formatter) FormatBaseline(r *metrics.EvaluationReport) string {
	return FormatBaseline(r)
}

// FormatSearch implements evaluation.Formatter.
func (Formatter) FormatSearch(r *evaluation.SearchResult) string {
	return FormatSearch(r)
}

// FormatBaseline renders a single evaluation:
//
//	Accuracy: 0.9333
//	Classification Report:
//	<table>
func FormatBaseline(r *metrics.EvaluationReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Accuracy: %.4f\n", r.Accuracy)
	b.WriteString("Classification Report:\n")
	b.WriteString(ClassificationTable(r))
	return b.String()
}

// FormatSearch renders every outer fold in fold order followed by the mean
// and population standard deviation of the outer accuracies.
func FormatSearch(r *evaluation.SearchResult) string {
	var b strings.Builder
	for _, f := range r.Folds {
		fmt.Fprintf(&b, "Fold %d - Accuracy: %.4f\n", f.Index+1, f.Report.Accuracy)
		fmt.Fprintf(&b, "Best Params: %s (inner balanced accuracy: %.4f)\n", f.Best.Params, f.Best.MeanScore)
		b.WriteString("Classification Report:\n")
		b.WriteString(ClassificationTable(f.Report))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Mean Accuracy: %.4f (+/- %.4f)\n", r.MeanAccuracy, r.StdAccuracy)
	return b.String()
}

// ClassificationTable renders the per-class table, the accuracy row and the
// macro and weighted averages.
func ClassificationTable(r *metrics.EvaluationReport) string {
	names := make([]string, len(r.Classes))
	width := len(weightedAvgLabel)
	for i, c := range r.Classes {
		names[i] = strconv.Itoa(c.Label)
		width = max(width, len(names[i]))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%*s  %9s %9s %9s %9s\n\n", width, "", "precision", "recall", "f1-score", "support")
	for i, c := range r.Classes {
		row(&b, width, names[i], c.Precision, c.Recall, c.F1, c.Support)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%*s  %9s %9s %9.2f %9d\n", width, accuracyLabel, "", "", r.Accuracy, r.Support())
	row(&b, width, macroAvgLabel, r.MacroAvg.Precision, r.MacroAvg.Recall, r.MacroAvg.F1, r.MacroAvg.Support)
	row(&b, width, weightedAvgLabel, r.WeightedAvg.Precision, r.WeightedAvg.Recall, r.WeightedAvg.F1, r.WeightedAvg.Support)
	return b.String()
}

func row(b *strings.Builder, width int, name string, precision, recall, f1 float64, support int) {
	fmt.Fprintf(b, "%*s  %9.2f %9.2f %9.2f %9d\n", width, name, precision, recall, f1, support)
}
