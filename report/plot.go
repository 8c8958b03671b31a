package report

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/kgeval/evaluation"
	"github.com/YuminosukeSato/kgeval/pkg/errors"
)

// FoldAccuracyPlot builds a bar chart of the outer-fold accuracies with the
// mean accuracy drawn as a horizontal line.
func FoldAccuracyPlot(r *evaluation.SearchResult) (*plot.Plot, error) {
	if r == nil || len(r.Folds) == 0 {
		return nil, errors.NewValueError("FoldAccuracyPlot", "search result has no folds")
	}

	p := plot.New()
	p.Title.Text = "Nested CV: outer-fold accuracy"
	p.X.Label.Text = "Outer fold"
	p.Y.Label.Text = "Accuracy"
	p.Y.Min = 0
	p.Y.Max = 1

	accs := plotter.Values(r.Accuracies())
	bars, err := plotter.NewBarChart(accs, vg.Points(20))
	if err != nil {
		return nil, errors.Wrap(err, "bar chart")
	}
	bars.LineStyle.Width = vg.Length(0)
	bars.Color = color.RGBA{R: 66, G: 133, B: 244, A: 255}
	p.Add(bars)

	n := float64(len(accs))
	mean, err := plotter.NewLine(plotter.XYs{
		{X: -0.5, Y: r.MeanAccuracy},
		{X: n - 0.5, Y: r.MeanAccuracy},
	})
	if err != nil {
		return nil, errors.Wrap(err, "mean line")
	}
	mean.LineStyle.Width = vg.Points(2)
	mean.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(5)}
	mean.LineStyle.Color = color.RGBA{R: 219, G: 68, B: 55, A: 255}
	p.Add(mean)
	p.Legend.Add(fmt.Sprintf("mean %.4f (+/- %.4f)", r.MeanAccuracy, r.StdAccuracy), mean)
	p.Legend.Top = true

	names := make([]string, len(accs))
	for i := range names {
		names[i] = fmt.Sprintf("%d", i+1)
	}
	p.NominalX(names...)
	return p, nil
}

// PlotFoldAccuracies renders FoldAccuracyPlot to path. The image format
// follows the file extension (png, svg, pdf, ...).
func PlotFoldAccuracies(r *evaluation.SearchResult, path string) error {
	p, err := FoldAccuracyPlot(r)
	if err != nil {
		return err
	}
	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save plot %s", path)
	}
	return nil
}
