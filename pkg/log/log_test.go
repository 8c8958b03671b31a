package log

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/kgeval/pkg/errors"
)

func TestTestLogger_LevelsAndFields(t *testing.T) {
	logger, _ := NewTestLogger(LevelInfo)

	logger.Debug("hidden")
	logger.With(ModelNameKey, "LogisticRegression").Info("fold finished", FoldKey, 2, AccuracyKey, 0.9)

	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "INFO", entries[0]["level"])
	assert.Equal(t, "LogisticRegression", entries[0][ModelNameKey])
	assert.True(t, logger.ContainsField(FoldKey, float64(2)))
	assert.False(t, logger.ContainsMessage("hidden"))
}

func TestTestLogger_LeadingError(t *testing.T) {
	logger, _ := NewTestLogger(LevelDebug)
	logger.Error("search failed", errors.New("boom"), FoldKey, 1)

	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "boom", entries[0]["error"])
	assert.Equal(t, float64(1), entries[0][FoldKey])
}

func TestTestLogger_Concurrent(t *testing.T) {
	logger, _ := NewTestLogger(LevelDebug)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			logger.With(FoldKey, i).Debug("candidate scored")
		}(i)
	}
	wg.Wait()

	entries, err := logger.GetLogEntries()
	require.NoError(t, err)
	assert.Len(t, entries, 8)
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(&buf, LevelInfo)

	assert.False(t, logger.Enabled(context.Background(), LevelDebug))
	assert.True(t, logger.Enabled(context.Background(), LevelWarn))

	logger.Debug("hidden")
	logger.With(ComponentKey, "evaluation").Info("search finished", MeanAccuracyKey, 0.91)
	logger.Error("fold failed", errors.NewSchemaError("age"), FoldKey, 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var info map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &info))
	assert.Equal(t, "info", info["level"])
	assert.Equal(t, "search finished", info["message"])
	assert.Equal(t, "evaluation", info[ComponentKey])
	assert.Equal(t, 0.91, info[MeanAccuracyKey])

	var errEntry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &errEntry))
	assert.Contains(t, errEntry["error"], "required column 'age'")
	assert.Equal(t, float64(3), errEntry[FoldKey])
}

func TestSetProviderRoutesWarnings(t *testing.T) {
	previous := GetProvider()
	defer SetProvider(previous)

	var buf bytes.Buffer
	SetProvider(NewZerologProvider(&buf, LevelDebug))

	errors.Warn(errors.NewConvergenceWarning("saga", 10, ""))

	assert.Contains(t, buf.String(), "saga failed to converge")
	assert.Contains(t, buf.String(), `"type":"ConvergenceWarning"`)
}

func TestToLogLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"warn", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ToLogLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
