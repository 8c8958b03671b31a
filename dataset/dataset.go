// Package dataset holds the tabular "who teaches" dataset extracted from the
// knowledge graph: one Record per person plus the column set of the source
// table.
//
// Optional fields are explicit NullString / NullInt values resolved once at
// ingestion, so feature extraction never has to probe for missing attributes.
package dataset

import (
	"slices"
	"strings"
)

// Column names of the dataset file.
const (
	ColName           = "name"
	ColAge            = "age"
	ColCoursesTaken   = "courses_taken"
	ColCoursesTaught  = "courses_taught"
	ColRandomCategory = "random_category"
)

// NoiseColumns are the four synthetic noise columns in feature order.
var NoiseColumns = [4]string{"random_noise", "random_noise1", "random_noise2", "random_noise3"}

// noiseAliases maps alternative header spellings onto NoiseColumns.
var noiseAliases = map[string]string{
	"random_noise0": "random_noise",
}

// RequiredColumns returns the columns the feature builder needs, in the order
// they are checked.
func RequiredColumns() []string {
	cols := []string{ColAge, ColCoursesTaken, ColCoursesTaught, ColRandomCategory}
	return append(cols, NoiseColumns[:]...)
}

// CanonicalColumn maps a header cell onto its canonical column name.
func CanonicalColumn(header string) string {
	name := strings.ToLower(strings.TrimSpace(header))
	if alias, ok := noiseAliases[name]; ok {
		return alias
	}
	return name
}

// NullString is a text cell that may be absent (empty CSV cell or null).
type NullString struct {
	String string
	Valid  bool
}

// Str returns a present NullString.
func Str(s string) NullString {
	return NullString{String: s, Valid: true}
}

// Null is the absent NullString.
var Null = NullString{}

// Blank reports whether the value is absent or only whitespace.
func (n NullString) Blank() bool {
	return !n.Valid || strings.TrimSpace(n.String) == ""
}

// NullInt is an integer cell that may be absent.
type NullInt struct {
	Int   int
	Valid bool
}

// Int returns a present NullInt.
func Int(v int) NullInt {
	return NullInt{Int: v, Valid: true}
}

// Record is one person of the knowledge graph. Records are never mutated
// after ingestion.
type Record struct {
	Name           NullString
	Age            NullInt
	CoursesTaken   NullString
	CoursesTaught  NullString
	RandomCategory NullString
	RandomNoise    [4]NullString
}

// Dataset is an ordered record set together with the columns its source
// exposed.
type Dataset struct {
	columns []string
	Records []Record
}

// New builds an in-memory dataset. Column names are canonicalized.
func New(columns []string, records []Record) *Dataset {
	canonical := make([]string, len(columns))
	for i, c := range columns {
		canonical[i] = CanonicalColumn(c)
	}
	return &Dataset{columns: canonical, Records: records}
}

// Full returns a dataset exposing every column, for in-memory construction.
func Full(records []Record) *Dataset {
	return New(append([]string{ColName}, RequiredColumns()...), records)
}

// Columns returns the canonical column names in source order.
func (d *Dataset) Columns() []string {
	return slices.Clone(d.columns)
}

// HasColumn reports whether the source exposed the column (aliases accepted).
func (d *Dataset) HasColumn(name string) bool {
	return slices.Contains(d.columns, CanonicalColumn(name))
}

// MissingColumn returns the first required column the dataset lacks, or "".
func (d *Dataset) MissingColumn() string {
	for _, col := range RequiredColumns() {
		if !d.HasColumn(col) {
			return col
		}
	}
	return ""
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.Records)
}
