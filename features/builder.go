// Package features turns dataset records into the numeric design matrix and
// binary "teacher" label used by the trainers.
//
// Column layout, in order:
//
//	age, num_courses_taken, age_squared, age_interaction,
//	random_noise, random_noise1, random_noise2, random_noise3,
//	cat_<value> ... (one indicator per random_category value, sorted)
//
// The category vocabulary is captured by Fit and reused by every Transform,
// so train and test partitions always share the same columns.
package features

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/kgeval/dataset"
	"github.com/YuminosukeSato/kgeval/pkg/errors"
	"github.com/YuminosukeSato/kgeval/pkg/log"
)

// Numeric feature names, before the one-hot block.
const (
	FeatureAge             = "age"
	FeatureNumCoursesTaken = "num_courses_taken"
	FeatureAgeSquared      = "age_squared"
	FeatureAgeInteraction  = "age_interaction"

	// CategoryPrefix prefixes every one-hot column.
	CategoryPrefix = "cat_"
)

// NumericColumns returns the fixed leading columns of the design matrix.
func NumericColumns() []string {
	cols := []string{FeatureAge, FeatureNumCoursesTaken, FeatureAgeSquared, FeatureAgeInteraction}
	return append(cols, dataset.NoiseColumns[:]...)
}

// Design is the numeric view of a dataset.
type Design struct {
	// X is n_samples × len(Columns).
	X *mat.Dense
	// Y holds the 0/1 teacher label of every row.
	Y *mat.VecDense
	// Columns names the columns of X.
	Columns []string
}

// Labels returns Y as ints.
func (d *Design) Labels() []int {
	labels := make([]int, d.Y.Len())
	for i := range labels {
		labels[i] = int(d.Y.AtVec(i))
	}
	return labels
}

// Builder is the feature extractor. The zero value is not fitted; call Fit
// (or use Build) before Transform.
type Builder struct {
	vocabulary []string
	fitted     bool
	logger     log.Logger
}

// NewBuilder creates an unfitted Builder.
func NewBuilder() *Builder {
	return &Builder{logger: log.GetLoggerWithName("features")}
}

// Build fits the vocabulary on the whole dataset and transforms it.
func Build(ds *dataset.Dataset) (*Design, error) {
	b := NewBuilder()
	if err := b.Fit(ds); err != nil {
		return nil, err
	}
	return b.Transform(ds)
}

// Fit validates the column set and captures the random_category vocabulary.
// Null categories are not part of the vocabulary.
func (b *Builder) Fit(ds *dataset.Dataset) error {
	if err := checkSchema(ds); err != nil {
		return err
	}

	seen := make(map[string]struct{})
	for _, rec := range ds.Records {
		if rec.RandomCategory.Valid {
			seen[rec.RandomCategory.String] = struct{}{}
		}
	}
	vocab := make([]string, 0, len(seen))
	for v := range seen {
		vocab = append(vocab, v)
	}
	slices.Sort(vocab)

	b.vocabulary = vocab
	b.fitted = true
	return nil
}

// Columns returns the design-matrix column names fixed at fit time.
func (b *Builder) Columns() []string {
	cols := NumericColumns()
	for _, v := range b.vocabulary {
		cols = append(cols, CategoryPrefix+v)
	}
	return cols
}

// Vocabulary returns the sorted random_category values captured by Fit.
func (b *Builder) Vocabulary() []string {
	return slices.Clone(b.vocabulary)
}

// Transform converts the records of ds. A category never seen by Fit yields an
// all-zero indicator block rather than a new column.
func (b *Builder) Transform(ds *dataset.Dataset) (*Design, error) {
	if !b.fitted {
		return nil, errors.NewNotFittedError("features.Builder", "Transform")
	}
	if err := checkSchema(ds); err != nil {
		return nil, err
	}
	n := ds.Len()
	if n == 0 {
		return nil, errors.Wrap(errors.ErrEmptyData, "features: dataset has no records")
	}

	columns := b.Columns()
	nNumeric := len(NumericColumns())
	catIndex := make(map[string]int, len(b.vocabulary))
	for i, v := range b.vocabulary {
		catIndex[v] = nNumeric + i
	}

	X := mat.NewDense(n, len(columns), nil)
	Y := mat.NewVecDense(n, nil)

	for i, rec := range ds.Records {
		row := i + 1
		if !rec.Age.Valid {
			return nil, errors.NewRowValidationError(dataset.ColAge, row, "missing value", nil)
		}
		age := float64(rec.Age.Int)
		taken := float64(CountCourses(rec.CoursesTaken))

		X.Set(i, 0, age)
		X.Set(i, 1, taken)
		X.Set(i, 2, age*age)
		X.Set(i, 3, age*taken)

		for k, col := range dataset.NoiseColumns {
			v, err := parseNoise(rec.RandomNoise[k], col, row)
			if err != nil {
				return nil, err
			}
			X.Set(i, 4+k, v)
		}

		if rec.RandomCategory.Valid {
			if j, ok := catIndex[rec.RandomCategory.String]; ok {
				X.Set(i, j, 1)
			}
		}

		Y.SetVec(i, float64(Label(rec)))
	}

	b.logger.Debug("features built",
		log.SamplesKey, n,
		log.FeaturesKey, len(columns),
	)

	return &Design{X: X, Y: Y, Columns: columns}, nil
}

// Label is 1 when the person teaches at least one course.
func Label(rec dataset.Record) int {
	if rec.CoursesTaught.Blank() {
		return 0
	}
	return 1
}

// CountCourses counts the trimmed, non-empty comma-separated entries.
func CountCourses(courses dataset.NullString) int {
	if courses.Blank() {
		return 0
	}
	count := 0
	for _, c := range strings.Split(courses.String, ",") {
		if strings.TrimSpace(c) != "" {
			count++
		}
	}
	return count
}

func parseNoise(v dataset.NullString, column string, row int) (float64, error) {
	if v.Blank() {
		return 0, errors.NewRowValidationError(column, row, "missing value", nil)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v.String))
	if err != nil {
		return 0, errors.NewRowValidationError(column, row, "not a floating point number", v.String)
	}
	f, _ := d.Float64()
	return f, nil
}

func checkSchema(ds *dataset.Dataset) error {
	if col := ds.MissingColumn(); col != "" {
		return errors.NewSchemaError(col)
	}
	return nil
}
