package source

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/kilianp07/nemflow/core/logger"
	"github.com/kilianp07/nemflow/core/model"
	"github.com/kilianp07/nemflow/core/pipeline"
)

// MongoConfig identifies the document store and its collections.
type MongoConfig struct {
	URI                   string
	Database              string
	DemandCollection      string
	TemperatureCollection string
	Region                string
}

// MongoSource reads demand and temperature observations from MongoDB and
// left-joins temperature onto demand by timestamp, mirroring the upstream
// collection layout (one document per half hour and region).
type MongoSource struct {
	cfg MongoConfig
	log logger.Logger
}

// NewMongoSource creates a connector for the given store.
func NewMongoSource(cfg MongoConfig, log logger.Logger) *MongoSource {
	return &MongoSource{cfg: cfg, log: log}
}

// Fetch connects, reads both collections for the configured region and
// materializes the joined records. One attempt, no retries.
func (s *MongoSource) Fetch(ctx context.Context) ([]model.RawRecord, error) {
	opts := options.Client().
		ApplyURI(s.cfg.URI).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, &pipeline.SourceUnavailableError{Endpoint: s.cfg.URI, Err: err}
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			s.log.Warnf("mongo disconnect: %v", err)
		}
	}()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return nil, &pipeline.SourceUnavailableError{Endpoint: s.cfg.URI, Err: err}
	}

	db := client.Database(s.cfg.Database)
	demandDocs, err := s.findRegion(ctx, db, s.cfg.DemandCollection)
	if err != nil {
		return nil, err
	}
	tempDocs, err := s.findRegion(ctx, db, s.cfg.TemperatureCollection)
	if err != nil {
		return nil, err
	}

	temps := make(map[int64]*float64, len(tempDocs))
	for _, doc := range tempDocs {
		ts, err := docTime(doc, s.cfg.TemperatureCollection)
		if err != nil {
			return nil, err
		}
		temps[ts.UnixNano()] = docFloat(doc, colTemperature)
	}

	records := make([]model.RawRecord, 0, len(demandDocs))
	demandSeen := false
	for _, doc := range demandDocs {
		ts, err := docTime(doc, s.cfg.DemandCollection)
		if err != nil {
			return nil, err
		}
		demand := docFloat(doc, colDemand)
		if demand != nil {
			demandSeen = true
		}
		records = append(records, model.RawRecord{
			Timestamp:   ts,
			Region:      s.cfg.Region,
			Demand:      demand,
			Temperature: temps[ts.UnixNano()],
			Source:      s.cfg.DemandCollection,
		})
	}
	if len(records) > 0 && !demandSeen {
		return nil, &pipeline.SchemaMismatchError{Endpoint: s.cfg.DemandCollection, Field: colDemand}
	}
	s.log.Infof("read %d demand and %d temperature documents for %s from %s",
		len(demandDocs), len(tempDocs), s.cfg.Region, s.cfg.Database)
	return records, nil
}

func (s *MongoSource) findRegion(ctx context.Context, db *mongo.Database, collection string) ([]bson.M, error) {
	cursor, err := db.Collection(collection).Find(ctx, bson.D{{Key: "state", Value: s.cfg.Region}})
	if err != nil {
		return nil, &pipeline.SourceUnavailableError{Endpoint: collection, Err: err}
	}
	var docs []bson.M
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, &pipeline.SourceUnavailableError{Endpoint: collection, Err: err}
	}
	return docs, nil
}

// docTime extracts the DATETIME field, stored either as a BSON date or as a
// string in one of the accepted layouts.
func docTime(doc bson.M, endpoint string) (time.Time, error) {
	raw, ok := doc[colDatetime]
	if !ok {
		return time.Time{}, &pipeline.SchemaMismatchError{Endpoint: endpoint, Field: colDatetime}
	}
	switch v := raw.(type) {
	case primitive.DateTime:
		return v.Time().UTC(), nil
	case time.Time:
		return v.UTC(), nil
	case string:
		ts, err := parseTime(v)
		if err != nil {
			return time.Time{}, &pipeline.SchemaMismatchError{Endpoint: endpoint, Field: colDatetime}
		}
		return ts, nil
	default:
		return time.Time{}, &pipeline.SchemaMismatchError{Endpoint: endpoint, Field: colDatetime}
	}
}

// docFloat extracts a numeric field, tolerating the integer encodings the
// upstream loader produced. Absent or non-numeric values are missing.
func docFloat(doc bson.M, field string) *float64 {
	raw, ok := doc[field]
	if !ok {
		return nil
	}
	var v float64
	switch n := raw.(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int32:
		v = float64(n)
	case int64:
		v = float64(n)
	case int:
		v = float64(n)
	default:
		return nil
	}
	return &v
}

var _ pipeline.Source = (*MongoSource)(nil)
var _ pipeline.Source = (*CSVSource)(nil)

// String implements fmt.Stringer for diagnostics.
func (s *MongoSource) String() string {
	return fmt.Sprintf("mongo(%s/%s)", s.cfg.Database, s.cfg.DemandCollection)
}
