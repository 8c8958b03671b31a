package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/kgeval/core/model"
	"github.com/YuminosukeSato/kgeval/internal/config"
	"github.com/YuminosukeSato/kgeval/pkg/errors"
)

func writePeople(t *testing.T, dir string, n int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("name,age,courses_taken,courses_taught,random_category,random_noise,random_noise1,random_noise2,random_noise3\n")
	for i := 0; i < n; i++ {
		age := 20 + i%7
		taught := ""
		if i%3 == 0 {
			age += 25
			taught = "\"Math, Physics\""
		}
		fmt.Fprintf(&b, "p%d,%d,\"C1, C2\",%s,%s,%.3f,%.3f,%.3f,%.3f\n",
			i, age, taught, []string{"A", "B", "C"}[i%3],
			float64(i%5)/5, float64(i%4)/4, float64(i%7)/7, float64(i%3)/3)
	}
	path := filepath.Join(dir, "people.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
	return path
}

func setup(t *testing.T) (dir, data, cfgPath string) {
	t.Helper()
	for _, key := range []string{
		config.EnvKgevalEnv, config.EnvDataset, config.EnvSeed,
		config.EnvTestFraction, config.EnvWorkers, config.EnvLogLevel,
	} {
		t.Setenv(key, "")
	}
	errors.SetWarningHandler(func(error) {})
	dir = t.TempDir()
	data = writePeople(t, dir, 60)
	cfgPath = filepath.Join(dir, "kgeval.toml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log_level = \"error\"\n[search]\ncs = [0.1, 10.0]\nmax_iter = 200\n"), 0o644))
	return dir, data, cfgPath
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(context.Background(), nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "Usage: kgeval")

	stderr.Reset()
	assert.Equal(t, 2, run(context.Background(), []string{"-bogus", "baseline"}, &stdout, &stderr))
}

func TestRun_UnknownCommand(t *testing.T) {
	_, data, cfgPath := setup(t)
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", cfgPath, "-data", data, "train"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), `unknown command "train"`)
	assert.Empty(t, stdout.String())
}

func TestRun_Baseline(t *testing.T) {
	dir, data, cfgPath := setup(t)
	out := filepath.Join(dir, "model.json")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", cfgPath, "-data", data, "-model-out", out, "baseline"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.True(t, strings.HasPrefix(stdout.String(), "Accuracy: "))
	assert.Contains(t, stdout.String(), "Classification Report:")

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	var w model.ModelWeights
	require.NoError(t, w.FromJSON(raw))
	assert.NoError(t, w.Validate())
	assert.Equal(t, []int{0, 1}, w.Classes)
}

func TestRun_SearchWithPlot(t *testing.T) {
	dir, data, cfgPath := setup(t)
	plot := filepath.Join(dir, "folds.png")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", cfgPath, "-data", data, "-workers", "2", "-plot", plot, "search"}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "Fold 5 - Accuracy:")
	assert.Contains(t, stdout.String(), "Mean Accuracy:")

	info, err := os.Stat(plot)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestRun_CompareDeterministic(t *testing.T) {
	_, data, cfgPath := setup(t)
	args := []string{"-config", cfgPath, "-data", data, "-seed", "7", "compare"}

	var first, second, stderr bytes.Buffer
	require.Equal(t, 0, run(context.Background(), args, &first, &stderr), stderr.String())
	require.Equal(t, 0, run(context.Background(), args, &second, &stderr), stderr.String())
	assert.Equal(t, first.String(), second.String())
	assert.Contains(t, first.String(), "\n\nFold 1 - Accuracy:")
}

func TestRun_Errors(t *testing.T) {
	dir, _, cfgPath := setup(t)

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", cfgPath, "-data", filepath.Join(dir, "missing.csv"), "baseline"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Empty(t, stdout.String())

	stderr.Reset()
	code = run(context.Background(), []string{"-config", cfgPath, "-test-fraction", "2", "baseline"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "test_fraction")
}
