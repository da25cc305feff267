package sink

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/nemflow/core/model"
	"github.com/kilianp07/nemflow/core/pipeline"
	"github.com/kilianp07/nemflow/infra/logger"
)

func testTable() *model.FeatureTable {
	base := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := make([]model.FeatureRow, 3)
	for i := range rows {
		rows[i] = model.FeatureRow{
			CleanedRow: model.CleanedRow{
				Timestamp:   base.Add(time.Duration(i) * 30 * time.Minute),
				Region:      "NSW",
				Demand:      7000 + float64(i),
				Temperature: 20,
			},
			Derived: []float64{float64(i)},
		}
	}
	rows[0].Derived[0] = math.NaN()
	return &model.FeatureTable{
		RunID:          "run-1",
		Region:         "NSW",
		GeneratedAt:    base,
		DerivedColumns: []string{"lag1_demand"},
		Rows:           rows,
	}
}

func TestCSVSinkWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.csv")
	s := NewCSVSink(path, logger.NopLogger{})
	require.NoError(t, s.Write(context.Background(), testTable()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 4)
	require.Equal(t, "timestamp,region,demand,temperature,lag1_demand", lines[0])
	require.Equal(t, "2021-03-01T00:00:00Z,NSW,7000,20,NaN", lines[1])
	require.Equal(t, "2021-03-01T01:00:00Z,NSW,7002,20,2", lines[3])
}

func TestCSVSinkIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.csv")
	s := NewCSVSink(path, logger.NopLogger{})

	require.NoError(t, s.Write(context.Background(), testTable()))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, s.Write(context.Background(), testTable()))
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestCSVSinkFailureKeepsPriorTable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "features.csv")
	s := NewCSVSink(path, logger.NopLogger{})
	require.NoError(t, s.Write(context.Background(), testTable()))
	prior, err := os.ReadFile(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = s.Write(ctx, testTable())
	var sinkErr *pipeline.SinkWriteError
	require.ErrorAs(t, err, &sinkErr)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, prior, after)

	// No temp litter either.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestCSVSinkUnreachableDestination(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "features.csv")
	err := NewCSVSink(path, logger.NopLogger{}).Write(context.Background(), testTable())
	var sinkErr *pipeline.SinkWriteError
	require.ErrorAs(t, err, &sinkErr)
}
