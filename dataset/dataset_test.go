package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/kgeval/pkg/errors"
)

const sampleCSV = `name,age,courses_taken,courses_taught,random_category,random_noise,random_noise1,random_noise2,random_noise3
Alice,34,"Math, Physics",Chemistry,A,0.1,0.2,0.3,0.4
Bob,21.0,Math,,B,1,2,3,4
Carol,45,,  ,A,-1.5,0,0,1e-3
`

func TestReadCSV(t *testing.T) {
	ds, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())

	assert.Equal(t, "", ds.MissingColumn())

	alice := ds.Records[0]
	assert.Equal(t, Str("Alice"), alice.Name)
	assert.Equal(t, Int(34), alice.Age)
	assert.Equal(t, Str("Math, Physics"), alice.CoursesTaken)
	assert.Equal(t, Str("Chemistry"), alice.CoursesTaught)
	assert.Equal(t, Str("0.4"), alice.RandomNoise[3])

	bob := ds.Records[1]
	assert.Equal(t, Int(21), bob.Age)
	assert.Equal(t, Null, bob.CoursesTaught)
	assert.True(t, bob.CoursesTaught.Blank())

	carol := ds.Records[2]
	assert.Equal(t, Null, carol.CoursesTaken)
	assert.True(t, carol.CoursesTaught.Valid)
	assert.True(t, carol.CoursesTaught.Blank())
}

func TestReadCSV_MissingColumnStaysNull(t *testing.T) {
	in := "age,courses_taken,random_category\n30,Math,A\n"
	ds, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	assert.Equal(t, ColCoursesTaught, ds.MissingColumn())
	assert.False(t, ds.Records[0].CoursesTaught.Valid)
}

func TestReadCSV_NoiseAlias(t *testing.T) {
	in := "age,courses_taken,courses_taught,random_category,random_noise0,random_noise1,random_noise2,random_noise3\n30,,,A,1,2,3,4\n"
	ds, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)

	assert.True(t, ds.HasColumn("random_noise"))
	assert.True(t, ds.HasColumn("random_noise0"))
	assert.Equal(t, Str("1"), ds.Records[0].RandomNoise[0])
}

func TestReadCSV_Errors(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader(""))
		assert.True(t, errors.Is(err, errors.ErrEmptyData))
	})

	t.Run("non-integer age", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("age\n30\n30.5\n"))

		var valErr *errors.ValidationError
		require.True(t, errors.As(err, &valErr))
		assert.Equal(t, ColAge, valErr.ParamName)
		assert.Equal(t, 2, valErr.Row)
	})

	t.Run("non-numeric age", func(t *testing.T) {
		_, err := ReadCSV(strings.NewReader("age\nforty\n"))

		var valErr *errors.ValidationError
		require.True(t, errors.As(err, &valErr))
		assert.Equal(t, 1, valErr.Row)
	})
}

func TestLoadCSV_MissingFile(t *testing.T) {
	_, err := LoadCSV("does/not/exist.csv")
	assert.Error(t, err)
}

func TestFull(t *testing.T) {
	ds := Full([]Record{{Age: Int(20)}})
	assert.Equal(t, "", ds.MissingColumn())
	assert.Equal(t, ColName, ds.Columns()[0])
}
