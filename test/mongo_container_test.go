package test

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kilianp07/nemflow/core/clean"
	"github.com/kilianp07/nemflow/core/feature"
	"github.com/kilianp07/nemflow/core/model"
	"github.com/kilianp07/nemflow/core/pipeline"
	"github.com/kilianp07/nemflow/infra/logger"
	"github.com/kilianp07/nemflow/infra/sink"
	"github.com/kilianp07/nemflow/infra/source"
)

func startMongo(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForListeningPort("27017/tcp"),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("mongo container not available: %v", err)
	}
	host, err := cont.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := cont.MappedPort(ctx, "27017")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	return cont, fmt.Sprintf("mongodb://%s:%s", host, port.Port())
}

func seedObservations(ctx context.Context, t *testing.T, uri string, n int) {
	t.Helper()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer func() { _ = client.Disconnect(ctx) }()

	start := time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC)
	demand := make([]interface{}, 0, n)
	temperature := make([]interface{}, 0, n)
	for i := 0; i < n; i++ {
		ts := start.Add(time.Duration(i) * 30 * time.Minute)
		demand = append(demand, bson.M{"DATETIME": ts, "state": "NSW", "TOTALDEMAND": 7000 + 100*i})
		if i != 4 {
			temperature = append(temperature, bson.M{"DATETIME": ts, "state": "NSW", "TEMPERATURE": 20.0 + float64(i)})
		}
	}
	db := client.Database("data")
	if _, err := db.Collection("total_demand").InsertMany(ctx, demand); err != nil {
		t.Fatalf("seed demand: %v", err)
	}
	if _, err := db.Collection("temperature").InsertMany(ctx, temperature); err != nil {
		t.Fatalf("seed temperature: %v", err)
	}
	// A VIC document that region filtering must exclude.
	if _, err := db.Collection("total_demand").InsertOne(ctx, bson.M{
		"DATETIME": start, "state": "VIC", "TOTALDEMAND": 4000,
	}); err != nil {
		t.Fatalf("seed other region: %v", err)
	}
}

func TestPipelineWithMongoContainer(t *testing.T) {
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skip("docker not installed")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cont, uri := startMongo(ctx, t)
	defer func() { _ = cont.Terminate(context.Background()) }()

	seedObservations(ctx, t, uri, 10)

	cleaner, err := clean.New(clean.Config{
		Demand:      clean.FieldRule{Policy: clean.PolicyDrop},
		Temperature: clean.FieldRule{Policy: clean.PolicyFFill},
	})
	if err != nil {
		t.Fatalf("cleaner: %v", err)
	}
	deriver, err := feature.New(feature.Config{
		Region:       "NSW",
		Windowed:     []feature.Spec{{Name: "lag1_demand", Type: feature.TypeLag, Field: model.FieldDemand, Window: 1}},
		OnIncomplete: feature.IncompleteSentinel,
	})
	if err != nil {
		t.Fatalf("deriver: %v", err)
	}

	src := source.NewMongoSource(source.MongoConfig{
		URI:                   uri,
		Database:              "data",
		DemandCollection:      "total_demand",
		TemperatureCollection: "temperature",
		Region:                "NSW",
	}, logger.NopLogger{})
	snk := sink.NewMongoSink(sink.MongoConfig{
		URI:        uri,
		Database:   "data",
		Collection: "features",
	}, logger.NopLogger{})

	pipe, err := pipeline.New(src, cleaner, deriver, snk,
		pipeline.RunConfig{Region: "NSW", MinSurvival: 0.8}, nil, nil, logger.NopLogger{})
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	table, err := pipe.Run(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(table.Rows) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(table.Rows))
	}
	// The missing temperature document at index 4 is forward filled.
	if table.Rows[4].Temperature != 23 {
		t.Errorf("row 5 temperature should be ffilled to 23, got %v", table.Rows[4].Temperature)
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer func() { _ = client.Disconnect(ctx) }()
	coll := client.Database("data").Collection("features")

	count, err := coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 10 {
		t.Fatalf("expected 10 feature documents, got %d", count)
	}
	var doc bson.M
	ts := time.Date(2021, 3, 1, 2, 30, 0, 0, time.UTC)
	if err := coll.FindOne(ctx, bson.D{{Key: "DATETIME", Value: ts}}).Decode(&doc); err != nil {
		t.Fatalf("find row 6: %v", err)
	}
	if lag, ok := doc["lag1_demand"].(float64); !ok || lag != 7400 {
		t.Errorf("row 6 lag1_demand should be 7400, got %v", doc["lag1_demand"])
	}

	// A second run replaces the table instead of appending to it.
	if _, err := pipe.Run(ctx); err != nil {
		t.Fatalf("second run: %v", err)
	}
	count, err = coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		t.Fatalf("recount: %v", err)
	}
	if count != 10 {
		t.Errorf("expected replace semantics, got %d documents", count)
	}

	// An empty table still replaces the target atomically.
	empty := &model.FeatureTable{
		RunID:          "00000000-0000-0000-0000-000000000000",
		Region:         "NSW",
		GeneratedAt:    time.Now().UTC(),
		DerivedColumns: []string{"lag1_demand"},
	}
	if err := snk.Write(ctx, empty); err != nil {
		t.Fatalf("empty write: %v", err)
	}
	count, err = coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		t.Fatalf("count after empty write: %v", err)
	}
	if count != 0 {
		t.Errorf("empty table should leave an empty collection, got %d documents", count)
	}
}
