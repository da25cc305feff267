package app

import (
	"context"
	"fmt"

	"github.com/kilianp07/nemflow/config"
	"github.com/kilianp07/nemflow/core/clean"
	"github.com/kilianp07/nemflow/core/feature"
	coremetrics "github.com/kilianp07/nemflow/core/metrics"
	"github.com/kilianp07/nemflow/core/pipeline"
	"github.com/kilianp07/nemflow/infra/logger"
	"github.com/kilianp07/nemflow/infra/metrics"
	"github.com/kilianp07/nemflow/infra/mqtt"
	"github.com/kilianp07/nemflow/infra/sink"
	"github.com/kilianp07/nemflow/infra/source"
	"github.com/kilianp07/nemflow/internal/eventbus"
)

// Service assembles the pipeline from the configuration and runs it once.
type Service struct {
	cfg      *config.Config
	pipe     *pipeline.Pipeline
	bus      *eventbus.Bus[pipeline.StateChange]
	notifier *mqtt.Notifier
	log      logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.SetGlobalLevel(cfg.Logging.Level); err != nil {
		return nil, fmt.Errorf("logging: %w", err)
	}
	logg := logger.New("service")

	cleaner, err := clean.New(cfg.Cleaning.CleanConfig())
	if err != nil {
		return nil, fmt.Errorf("cleaner: %w", err)
	}
	deriver, err := feature.New(cfg.Features.FeatureConfig(cfg.Source.Region))
	if err != nil {
		return nil, fmt.Errorf("deriver: %w", err)
	}

	var src pipeline.Source
	switch cfg.Source.Kind {
	case config.KindFile:
		src = source.NewCSVSource(cfg.Source.Path, cfg.Source.Region, logger.New("csv-source"))
	case config.KindMongo:
		src = source.NewMongoSource(source.MongoConfig{
			URI:                   cfg.Source.URI,
			Database:              cfg.Source.Database,
			DemandCollection:      cfg.Source.DemandCollection,
			TemperatureCollection: cfg.Source.TemperatureCollection,
			Region:                cfg.Source.Region,
		}, logger.New("mongo-source"))
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}

	var snk pipeline.Sink
	switch cfg.Sink.Kind {
	case config.KindFile:
		snk = sink.NewCSVSink(cfg.Sink.Path, logger.New("csv-sink"))
	case config.KindMongo:
		snk = sink.NewMongoSink(sink.MongoConfig{
			URI:        cfg.Sink.URI,
			Database:   cfg.Sink.Database,
			Collection: cfg.Sink.Collection,
		}, logger.New("mongo-sink"))
	default:
		return nil, fmt.Errorf("unknown sink kind %q", cfg.Sink.Kind)
	}

	svc := &Service{cfg: cfg, log: logg}

	var sinks []coremetrics.Sink
	if cfg.Metrics.PrometheusEnabled {
		prom, err := metrics.NewPromSink(nil)
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, prom)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(cfg.Metrics, logger.New("influx-sink")))
	}
	if cfg.Notifier.Enabled {
		client, err := mqtt.NewPahoClient(cfg.Notifier)
		if err != nil {
			return nil, fmt.Errorf("mqtt client: %w", err)
		}
		svc.notifier = mqtt.NewNotifier(client, cfg.Notifier.Topic, byte(*cfg.Notifier.QoS), logger.New("run-notifier"))
		sinks = append(sinks, svc.notifier)
	}
	var msink coremetrics.Sink = coremetrics.NopSink{}
	if len(sinks) == 1 {
		msink = sinks[0]
	} else if len(sinks) > 1 {
		msink = metrics.NewMultiSink(sinks...)
	}

	svc.bus = eventbus.New[pipeline.StateChange]()
	svc.pipe, err = pipeline.New(src, cleaner, deriver, snk,
		pipeline.RunConfig{Region: cfg.Source.Region, MinSurvival: *cfg.Cleaning.MinSurvival},
		msink, svc.bus, logger.New("pipeline"))
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	return svc, nil
}

// Run executes one pipeline run and blocks until it finishes.
func (s *Service) Run(ctx context.Context) error {
	if s.cfg.Metrics.PrometheusEnabled {
		addr := fmt.Sprintf(":%d", s.cfg.Metrics.PrometheusPort)
		go func() {
			if err := metrics.StartPromServer(ctx, addr, s.log); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	sub := s.bus.Subscribe()
	drained := make(chan struct{})
	go func() {
		for ev := range sub {
			s.log.Infof("run %s: %s -> %s", ev.RunID, ev.From, ev.To)
		}
		close(drained)
	}()

	_, err := s.pipe.Run(ctx)
	s.bus.Close()
	<-drained
	return err
}

// Close releases external connections.
func (s *Service) Close() error {
	if s.notifier != nil {
		s.notifier.Close()
	}
	return nil
}
