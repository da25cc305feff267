// Package source provides the pipeline's data source connectors.
package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/nemflow/core/logger"
	"github.com/kilianp07/nemflow/core/model"
	"github.com/kilianp07/nemflow/core/pipeline"
)

// Column names expected at the source, matching the upstream AEMO exports.
const (
	colDatetime    = "DATETIME"
	colState       = "state"
	colDemand      = "TOTALDEMAND"
	colTemperature = "TEMPERATURE"
)

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02 15:04",
}

// missingTokens are cell values treated as absent measurements.
var missingTokens = map[string]bool{"": true, "NA": true, "NaN": true, "null": true}

// CSVSource reads raw records from a local CSV file and filters them to one
// region. A single read attempt is made per run.
type CSVSource struct {
	path   string
	region string
	log    logger.Logger
}

// NewCSVSource creates a connector for the given file path and region.
func NewCSVSource(path, region string, log logger.Logger) *CSVSource {
	return &CSVSource{path: path, region: region, log: log}
}

// Fetch materializes the file into raw records.
func (s *CSVSource) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, &pipeline.SourceUnavailableError{Endpoint: s.path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, &pipeline.SourceUnavailableError{Endpoint: s.path, Err: fmt.Errorf("read header: %w", err)}
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	for _, name := range []string{colDatetime, colState, colDemand, colTemperature} {
		if _, ok := idx[name]; !ok {
			return nil, &pipeline.SchemaMismatchError{Endpoint: s.path, Field: name}
		}
	}

	var records []model.RawRecord
	for {
		if err := ctx.Err(); err != nil {
			return nil, &pipeline.SourceUnavailableError{Endpoint: s.path, Err: err}
		}
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &pipeline.SourceUnavailableError{Endpoint: s.path, Err: err}
		}
		if row[idx[colState]] != s.region {
			continue
		}
		ts, err := parseTime(row[idx[colDatetime]])
		if err != nil {
			return nil, &pipeline.SchemaMismatchError{Endpoint: s.path, Field: colDatetime}
		}
		records = append(records, model.RawRecord{
			Timestamp:   ts,
			Region:      s.region,
			Demand:      parseMeasurement(row[idx[colDemand]]),
			Temperature: parseMeasurement(row[idx[colTemperature]]),
			Source:      s.path,
		})
	}
	s.log.Infof("read %d raw records for %s from %s", len(records), s.region, s.path)
	return records, nil
}

func parseTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, value); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", value)
}

// parseMeasurement returns nil for missing or unparseable cells.
func parseMeasurement(value string) *float64 {
	value = strings.TrimSpace(value)
	if missingTokens[value] {
		return nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil
	}
	return &v
}
