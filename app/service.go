// Package app assembles the dispatch service from configuration: MQTT
// client and discovery, metrics sinks, the scoring engine with its
// providers, the dispatch manager, stores and the HTTP surfaces.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	apidispatch "github.com/fieldops/dispatchd/api/dispatch"
	apitechnicians "github.com/fieldops/dispatchd/api/technicians"
	_ "github.com/fieldops/dispatchd/app/plugins"
	"github.com/fieldops/dispatchd/config"
	"github.com/fieldops/dispatchd/core/dispatch"
	"github.com/fieldops/dispatchd/core/dispatch/logging"
	"github.com/fieldops/dispatchd/core/factory"
	"github.com/fieldops/dispatchd/core/geo"
	coremetrics "github.com/fieldops/dispatchd/core/metrics"
	"github.com/fieldops/dispatchd/core/metrics/kpi"
	"github.com/fieldops/dispatchd/core/model"
	coremonitoring "github.com/fieldops/dispatchd/core/monitoring"
	"github.com/fieldops/dispatchd/core/performance"
	"github.com/fieldops/dispatchd/core/techstatus"
	infrakpi "github.com/fieldops/dispatchd/infra/kpi"
	"github.com/fieldops/dispatchd/infra/logger"
	inframetrics "github.com/fieldops/dispatchd/infra/metrics"
	"github.com/fieldops/dispatchd/infra/monitoring"
	inframqtt "github.com/fieldops/dispatchd/infra/mqtt"
	"github.com/fieldops/dispatchd/infra/telemetry"
	"github.com/fieldops/dispatchd/internal/eventbus"
)

// Service orchestrates the dispatch manager and its surfaces.
type Service struct {
	Manager *dispatch.DispatchManager
	Status  techstatus.Store
	Logs    logging.LogStore
	KPI     kpi.Store

	cfg       *config.Config
	bus       eventbus.EventBus
	sink      coremetrics.MetricsSink
	scorer    performance.Scorer
	notifier  *inframqtt.PahoClient
	telemetry *telemetry.Manager
	jobs      chan model.Job
	log       logger.Logger
	promAddr  string
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremonitoring.Init(mon)

	client, err := inframqtt.NewPahoClient(cfg.MQTT)
	if err != nil {
		return nil, fmt.Errorf("mqtt client: %w", err)
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sinks: %w", err)
	}

	distance, err := geo.NewDistanceProvider(cfg.Dispatch.Distance)
	if err != nil {
		return nil, fmt.Errorf("distance provider: %w", err)
	}
	scorer, err := performance.NewScorer(cfg.Dispatch.Performance)
	if err != nil {
		return nil, fmt.Errorf("performance scorer: %w", err)
	}

	scoring := dispatch.DefaultScoringConfig()
	scoring.Distance.Unit = dispatch.DistanceUnit(cfg.Dispatch.DistanceUnit)
	var opts []dispatch.Option
	if cfg.Dispatch.DeterministicTieBreak {
		opts = append(opts, dispatch.WithDeterministicTieBreak())
	}
	engine, err := dispatch.NewEngine(scoring, distance, scorer, opts...)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	bus := eventbus.New()
	d := cfg.Dispatch.Discovery
	disc, err := inframqtt.NewPahoPoolDiscovery(cfg.MQTT, d.BroadcastTopic, d.ResponseTopic, d.MagicWord)
	if err != nil {
		return nil, fmt.Errorf("pool discovery: %w", err)
	}
	disc.SetMetricsSink(sink)

	ackTimeout := time.Duration(cfg.Dispatch.AckTimeoutSeconds) * time.Second
	manager, err := dispatch.NewDispatchManager(engine, client, ackTimeout, sink, bus, disc, logg)
	if err != nil {
		return nil, fmt.Errorf("dispatch manager: %w", err)
	}

	store, err := logging.NewStore(logStoreConfig(cfg.Logging))
	if err != nil {
		return nil, fmt.Errorf("log store: %w", err)
	}
	manager.SetLogStore(store)

	status := techstatus.NewMemoryStore()
	manager.SetStatusStore(status)

	svc := &Service{
		Manager:  manager,
		Status:   status,
		Logs:     store,
		cfg:      cfg,
		bus:      bus,
		sink:     sink,
		scorer:   scorer,
		notifier: client,
		jobs:     make(chan model.Job, 16),
		log:      logg,
		promAddr: promAddr(cfg.Metrics.Sinks),
	}

	if cfg.KPI.Enabled {
		switch cfg.KPI.Backend {
		case "sqlite":
			kpiStore, err := infrakpi.NewSQLiteStore(cfg.KPI.Path)
			if err != nil {
				return nil, fmt.Errorf("kpi store: %w", err)
			}
			svc.KPI = kpiStore
		default:
			svc.KPI = kpi.NewMemoryStore()
		}
	}

	if cfg.Telemetry.Enabled {
		tm, err := telemetry.NewManager(cfg.MQTT, cfg.Telemetry, sink, disc, status)
		if err != nil {
			return nil, fmt.Errorf("telemetry: %w", err)
		}
		svc.telemetry = tm
	}

	return svc, nil
}

// logStoreConfig maps the flat logging section onto a store factory config.
// A jsonl backend with a size limit selects the rotating store.
func logStoreConfig(cfg config.LoggingConfig) factory.ModuleConfig {
	backend := cfg.Backend
	if backend == "jsonl" && cfg.MaxSizeMB > 0 {
		backend = "rotating"
	}
	return factory.ModuleConfig{
		Type: backend,
		Conf: map[string]any{
			"path":         cfg.Path,
			"max_size_mb":  cfg.MaxSizeMB,
			"max_backups":  cfg.MaxBackups,
			"max_age_days": cfg.MaxAgeDays,
		},
	}
}

// promAddr finds the listen address for the Prometheus scrape endpoint. An
// empty result means no prometheus sink is configured.
func promAddr(sinks []factory.ModuleConfig) string {
	for _, c := range sinks {
		if c.Type != "prometheus" {
			continue
		}
		var pc struct {
			Port string `json:"prometheus_port"`
		}
		if err := factory.Decode(c.Conf, &pc); err == nil && pc.Port != "" {
			return pc.Port
		}
		return ":2112"
	}
	return ""
}

// Submit queues a job for asynchronous dispatch. The result lands in the
// decision log and on the event bus rather than the caller.
func (s *Service) Submit(job model.Job) error {
	if err := job.Validate(); err != nil {
		return err
	}
	select {
	case s.jobs <- job:
		return nil
	default:
		return fmt.Errorf("job queue full")
	}
}

// Run starts the service and blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	go s.Manager.Run(ctx, s.jobs)
	if s.KPI != nil {
		kpi.StartCollector(ctx, s.bus, s.KPI)
	}
	if s.telemetry != nil {
		go s.telemetry.Start(ctx)
	}
	if s.promAddr != "" {
		go func() {
			if err := inframetrics.StartPromServer(ctx, s.promAddr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.cfg.HTTP.Enabled {
		go func() {
			if err := s.serveAPI(ctx); err != nil {
				s.log.Errorf("api server: %v", err)
			}
		}()
	}
	<-ctx.Done()
	return nil
}

func (s *Service) serveAPI(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/api/jobs/dispatch", apidispatch.NewDispatchHandler(s.Manager, s.cfg.HTTP.Token))
	mux.Handle("/api/dispatch/logs", apidispatch.NewLogHandler(s.Logs, s.cfg.HTTP.Token))
	mux.Handle("/api/technicians/status", apitechnicians.NewStatusHandler(s.Status))
	if s.KPI != nil {
		mux.Handle("/api/technicians/", apitechnicians.NewKPIHandler(s.KPI))
	}

	srv := &http.Server{Addr: s.cfg.HTTP.Addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Errorf("api shutdown: %v", err)
		}
	}()
	s.log.Infof("api listening on %s", s.cfg.HTTP.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close releases resources held by the service. The manager owns the log
// store and closes it along with discovery and the bus.
func (s *Service) Close() error {
	err := s.Manager.Close()
	if s.notifier != nil {
		s.notifier.Disconnect()
	}
	if c, ok := s.scorer.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	if c, ok := s.KPI.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	coremonitoring.Flush(2 * time.Second)
	return err
}
