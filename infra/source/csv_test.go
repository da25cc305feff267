package source

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kilianp07/nemflow/core/pipeline"
	"github.com/kilianp07/nemflow/infra/logger"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demand.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCSVSourceFetch(t *testing.T) {
	path := writeCSV(t, `DATETIME,state,TOTALDEMAND,TEMPERATURE
2021-03-01 00:00:00,NSW,7000.5,21.2
2021-03-01 00:30:00,NSW,7100,
2021-03-01 00:30:00,VIC,5000,18.0
2021-03-01 01:00:00,NSW,7200,NA
`)
	s := NewCSVSource(path, "NSW", logger.NopLogger{})
	records, err := s.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)

	require.Equal(t, "NSW", records[0].Region)
	require.NotNil(t, records[0].Demand)
	require.Equal(t, 7000.5, *records[0].Demand)
	require.Equal(t, 21.2, *records[0].Temperature)
	require.Nil(t, records[1].Temperature)
	require.Nil(t, records[2].Temperature)
	require.True(t, records[1].Timestamp.After(records[0].Timestamp))
}

func TestCSVSourceMissingFile(t *testing.T) {
	s := NewCSVSource(filepath.Join(t.TempDir(), "nope.csv"), "NSW", logger.NopLogger{})
	_, err := s.Fetch(context.Background())
	var unavailable *pipeline.SourceUnavailableError
	require.ErrorAs(t, err, &unavailable)
	require.Equal(t, pipeline.KindSourceUnavailable, pipeline.FailureKind(err))
}

func TestCSVSourceMissingColumn(t *testing.T) {
	path := writeCSV(t, `DATETIME,state,TEMPERATURE
2021-03-01 00:00:00,NSW,21.2
`)
	s := NewCSVSource(path, "NSW", logger.NopLogger{})
	_, err := s.Fetch(context.Background())
	var mismatch *pipeline.SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, "TOTALDEMAND", mismatch.Field)
}

func TestCSVSourceBadTimestamp(t *testing.T) {
	path := writeCSV(t, `DATETIME,state,TOTALDEMAND,TEMPERATURE
not-a-time,NSW,7000,21
`)
	s := NewCSVSource(path, "NSW", logger.NopLogger{})
	_, err := s.Fetch(context.Background())
	var mismatch *pipeline.SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	require.Equal(t, "DATETIME", mismatch.Field)
}

func TestParseMeasurement(t *testing.T) {
	require.Nil(t, parseMeasurement(""))
	require.Nil(t, parseMeasurement("NA"))
	require.Nil(t, parseMeasurement("NaN"))
	require.Nil(t, parseMeasurement("bogus"))
	v := parseMeasurement(" 7000.25 ")
	require.NotNil(t, v)
	require.Equal(t, 7000.25, *v)
}
