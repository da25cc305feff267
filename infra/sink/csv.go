// Package sink provides the pipeline's feature table writers. Both writers
// replace the destination atomically: the prior table stays readable until
// the new one is fully in place.
package sink

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/kilianp07/nemflow/core/logger"
	"github.com/kilianp07/nemflow/core/model"
	"github.com/kilianp07/nemflow/core/pipeline"
)

// CSVSink writes the feature table to a local CSV file via a temp file and
// rename, so a failed write never clobbers the previous table.
type CSVSink struct {
	path string
	log  logger.Logger
}

// NewCSVSink creates a writer for the given destination path.
func NewCSVSink(path string, log logger.Logger) *CSVSink {
	return &CSVSink{path: path, log: log}
}

// Write persists the table. Output is deterministic for identical input:
// timestamps in RFC 3339 UTC, floats in shortest round-trip form.
func (s *CSVSink) Write(ctx context.Context, table *model.FeatureTable) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".tmp-")
	if err != nil {
		return &pipeline.SinkWriteError{Destination: s.path, Err: err}
	}
	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmp.Name())
		return &pipeline.SinkWriteError{Destination: s.path, Err: err}
	}

	w := csv.NewWriter(tmp)
	if err := w.Write(table.Columns()); err != nil {
		return cleanup(err)
	}
	for _, row := range table.Rows {
		if err := ctx.Err(); err != nil {
			return cleanup(err)
		}
		record := make([]string, 0, 4+len(row.Derived))
		record = append(record,
			row.Timestamp.UTC().Format(time.RFC3339),
			row.Region,
			formatFloat(row.Demand),
			formatFloat(row.Temperature),
		)
		for _, v := range row.Derived {
			record = append(record, formatFloat(v))
		}
		if err := w.Write(record); err != nil {
			return cleanup(err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return &pipeline.SinkWriteError{Destination: s.path, Err: err}
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return &pipeline.SinkWriteError{Destination: s.path, Err: err}
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return &pipeline.SinkWriteError{Destination: s.path, Err: err}
	}
	s.log.Infof("wrote %d rows to %s", len(table.Rows), s.path)
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

var _ pipeline.Sink = (*CSVSink)(nil)
