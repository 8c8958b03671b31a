package dataset

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/YuminosukeSato/kgeval/pkg/errors"
)

// LoadCSV reads a dataset file written by the extraction step.
func LoadCSV(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open dataset %s", path)
	}
	defer f.Close()

	ds, err := ReadCSV(f)
	if err != nil {
		return nil, errors.Wrapf(err, "read dataset %s", path)
	}
	return ds, nil
}

// ReadCSV parses a header row followed by one record per line. Columns that
// are absent from the header stay null in every record; the feature builder
// decides whether that is fatal. Empty cells are null. The only value parsed
// here is age, which must be an integer (pandas may write it as "34.0").
func ReadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.Wrap(errors.ErrEmptyData, "dataset has no header row")
	}
	if err != nil {
		return nil, errors.Wrap(err, "read header")
	}

	columns := make([]string, len(header))
	index := make(map[string]int, len(header))
	for i, h := range header {
		columns[i] = CanonicalColumn(strings.TrimPrefix(h, "\ufeff"))
		if _, dup := index[columns[i]]; !dup {
			index[columns[i]] = i
		}
	}

	cell := func(row []string, col string) NullString {
		i, ok := index[col]
		if !ok || i >= len(row) || row[i] == "" {
			return Null
		}
		return Str(row[i])
	}

	var records []Record
	for line := 1; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "read row %d", line)
		}

		age, err := parseAge(cell(row, ColAge), line)
		if err != nil {
			return nil, err
		}

		rec := Record{
			Name:           cell(row, ColName),
			Age:            age,
			CoursesTaken:   cell(row, ColCoursesTaken),
			CoursesTaught:  cell(row, ColCoursesTaught),
			RandomCategory: cell(row, ColRandomCategory),
		}
		for k, col := range NoiseColumns {
			rec.RandomNoise[k] = cell(row, col)
		}
		records = append(records, rec)
	}

	return &Dataset{columns: columns, Records: records}, nil
}

func parseAge(v NullString, row int) (NullInt, error) {
	if v.Blank() {
		return NullInt{}, nil
	}
	d, err := decimal.NewFromString(strings.TrimSpace(v.String))
	if err != nil {
		return NullInt{}, errors.NewRowValidationError(ColAge, row, "not a number", v.String)
	}
	if !d.IsInteger() {
		return NullInt{}, errors.NewRowValidationError(ColAge, row, "not an integer", v.String)
	}
	return Int(int(d.IntPart())), nil
}
