package sink

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/kilianp07/nemflow/core/logger"
	"github.com/kilianp07/nemflow/core/model"
	"github.com/kilianp07/nemflow/core/pipeline"
)

// MongoConfig identifies the target collection.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoSink bulk-inserts the feature table into a staging collection and then
// renames it over the target with dropTarget, so the previous table stays
// intact until the new one fully exists server-side.
type MongoSink struct {
	cfg MongoConfig
	log logger.Logger
}

// NewMongoSink creates a writer for the given store.
func NewMongoSink(cfg MongoConfig, log logger.Logger) *MongoSink {
	return &MongoSink{cfg: cfg, log: log}
}

// Write persists the table.
func (s *MongoSink) Write(ctx context.Context, table *model.FeatureTable) error {
	dest := fmt.Sprintf("%s.%s", s.cfg.Database, s.cfg.Collection)
	opts := options.Client().
		ApplyURI(s.cfg.URI).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return &pipeline.SinkWriteError{Destination: dest, Err: err}
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			s.log.Warnf("mongo disconnect: %v", err)
		}
	}()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		return &pipeline.SinkWriteError{Destination: dest, Err: err}
	}

	staging := fmt.Sprintf("%s.staging.%s", s.cfg.Collection, shortID(table.RunID))
	db := client.Database(s.cfg.Database)
	docs := make([]interface{}, 0, len(table.Rows))
	for _, row := range table.Rows {
		doc := bson.M{
			"DATETIME":    row.Timestamp.UTC(),
			"state":       row.Region,
			"TOTALDEMAND": row.Demand,
			"TEMPERATURE": row.Temperature,
		}
		for i, name := range table.DerivedColumns {
			doc[name] = row.Derived[i]
		}
		docs = append(docs, doc)
	}

	if len(docs) > 0 {
		if _, err := db.Collection(staging).InsertMany(ctx, docs); err != nil {
			s.dropStaging(db, staging)
			return &pipeline.SinkWriteError{Destination: dest, Err: err}
		}
	} else {
		// renameCollection needs the staging namespace to exist even when
		// the table is empty.
		if err := db.CreateCollection(ctx, staging); err != nil {
			s.dropStaging(db, staging)
			return &pipeline.SinkWriteError{Destination: dest, Err: err}
		}
	}

	// Server-side rename replaces the target in one step.
	rename := bson.D{
		{Key: "renameCollection", Value: fmt.Sprintf("%s.%s", s.cfg.Database, staging)},
		{Key: "to", Value: dest},
		{Key: "dropTarget", Value: true},
	}
	if err := client.Database("admin").RunCommand(ctx, rename).Err(); err != nil {
		s.dropStaging(db, staging)
		return &pipeline.SinkWriteError{Destination: dest, Err: err}
	}
	s.log.Infof("wrote %d documents to %s", len(docs), dest)
	return nil
}

func (s *MongoSink) dropStaging(db *mongo.Database, staging string) {
	dropCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.Collection(staging).Drop(dropCtx); err != nil {
		s.log.Warnf("drop staging collection %s: %v", staging, err)
	}
}

func shortID(runID string) string {
	if len(runID) > 8 {
		return runID[:8]
	}
	return runID
}

var _ pipeline.Sink = (*MongoSink)(nil)
