package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kilianp07/orchestrator/api"
	"github.com/kilianp07/orchestrator/config"
	"github.com/kilianp07/orchestrator/core/job"
	"github.com/kilianp07/orchestrator/core/lock"
	coremetrics "github.com/kilianp07/orchestrator/core/metrics"
	coremon "github.com/kilianp07/orchestrator/core/monitoring"
	"github.com/kilianp07/orchestrator/core/notify"
	"github.com/kilianp07/orchestrator/core/orchestration"
	"github.com/kilianp07/orchestrator/core/push"
	"github.com/kilianp07/orchestrator/core/subscription"
	"github.com/kilianp07/orchestrator/infra/auth"
	"github.com/kilianp07/orchestrator/infra/logger"
	"github.com/kilianp07/orchestrator/infra/metrics"
	"github.com/kilianp07/orchestrator/infra/monitoring"
	"github.com/kilianp07/orchestrator/infra/mqtt"
	"github.com/kilianp07/orchestrator/infra/registry"
	"github.com/kilianp07/orchestrator/infra/store"
	"github.com/kilianp07/orchestrator/internal/eventbus"
)

// Service wires the orchestration engine, the push pipeline and the API.
type Service struct {
	Orchestrator  *orchestration.Orchestrator
	Jobs          *job.Manager
	Locks         *lock.Manager
	Subscriptions *subscription.Manager
	Trigger       *push.Trigger

	cfg       *config.Config
	db        *store.DB
	queue     *push.Queue
	worker    *push.Worker
	bus       *eventbus.Bus
	sink      coremetrics.MetricsSink
	mqtt      *mqtt.PahoClient
	router    *gin.Engine
	log       logger.Logger
	closeOnce sync.Once
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(mon)

	db, err := store.Open(cfg.Store, logger.New("store"))
	if err != nil {
		return nil, fmt.Errorf("store: %w", err)
	}
	svc := &Service{cfg: cfg, db: db, log: logg}
	if err := svc.build(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return svc, nil
}

func (s *Service) build() error {
	cfg := s.cfg
	validator := orchestration.Validator{
		InterCloudEnabled: cfg.InterCloud.Enabled,
		QoSEnabled:        cfg.Orchestrator.QoSEnabled,
	}
	s.Jobs = job.NewManager(s.db.Jobs(), logger.New("jobs"))
	s.Locks = lock.NewManager(s.db.Locks(), logger.New("locks"))
	s.Subscriptions = subscription.NewManager(s.db.Subscriptions(), validator, logger.New("subscriptions"))

	var cred *auth.ClientCred
	if cfg.Credentials.Enabled() {
		cred = auth.NewClientCred(cfg.Credentials)
	}
	deps := orchestration.SelectorDeps{
		Registry: registry.NewClient(cfg.Registry, cred),
		Locks:    s.Locks,
		Log:      logger.New("selector"),
	}
	if cfg.InterCloud.Enabled {
		deps.InterCloud = registry.NewGatekeeperClient(cfg.InterCloud.Gatekeeper, cred)
	}
	if cfg.Authorization.URL != "" {
		deps.Tokens = auth.NewTokenClient(cfg.Authorization, cred)
	}
	s.Orchestrator = orchestration.NewOrchestrator(orchestration.NewSelector(deps), validator, s.Jobs, s.Locks, logger.New("orchestrator"))

	var mqttSender notify.Sender
	if cfg.MQTT.Enabled {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("mqtt client: %w", err)
		}
		s.mqtt = client
		mqttSender = notify.NewMQTTSender(client)
	}
	httpSender := notify.NewHTTPSender(time.Duration(cfg.Notify.HTTPTimeoutSeconds)*time.Second, logger.New("notify-http"))
	dispatcher := notify.NewDispatcher(httpSender, mqttSender, logger.New("notify"))

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}
	s.sink = sink
	s.bus = eventbus.New()

	s.queue = push.NewQueue(cfg.Orchestrator.QueueCapacity)
	s.worker, err = push.NewWorker(push.WorkerDeps{
		Queue:         s.queue,
		Jobs:          s.Jobs,
		Subscriptions: s.Subscriptions,
		Executor:      s.Orchestrator,
		Notifier:      dispatcher,
		Bus:           s.bus,
		PoolSize:      cfg.Orchestrator.WorkerPoolSize,
		Log:           logger.New("push-worker"),
	})
	if err != nil {
		return fmt.Errorf("push worker: %w", err)
	}
	s.Trigger = push.NewTrigger(s.Subscriptions, s.Jobs, s.queue, logger.New("push-trigger"))

	switch cfg.Server.Mode {
	case gin.DebugMode, gin.TestMode:
		gin.SetMode(cfg.Server.Mode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}
	s.router = api.NewRouter(&api.Controller{
		Pull:          s.Orchestrator,
		Subscriptions: s.Subscriptions,
		Trigger:       s.Trigger,
		Locks:         s.Locks,
		Jobs:          s.Jobs,
		Log:           logger.New("api"),
	}, cfg.Server.APIToken)
	return nil
}

// Router returns the HTTP handler of the API.
func (s *Service) Router() *gin.Engine { return s.router }

// Run starts the worker, the metrics collector and the API, and blocks
// until ctx is canceled or one of them fails.
func (s *Service) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	collected := metrics.StartEventCollector(ctx, s.bus, s.sink)

	var wg sync.WaitGroup
	errs := make(chan error, 3)
	start := func(name string, fn func(context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				errs <- fmt.Errorf("%s: %w", name, err)
				cancel()
			}
		}()
	}
	start("push worker", s.worker.Run)
	start("api", func(ctx context.Context) error {
		return api.Serve(ctx, s.cfg.Server.Address, s.router, s.log)
	})
	if addr := strings.TrimSpace(s.cfg.Metrics.ListenAddr); addr != "" {
		start("prom server", func(ctx context.Context) error {
			return metrics.StartPromServer(ctx, addr)
		})
	}

	<-ctx.Done()
	s.queue.Close()
	wg.Wait()
	s.bus.Close()
	<-collected
	close(errs)

	var all []error
	for err := range errs {
		s.log.Errorf("%v", err)
		all = append(all, err)
	}
	return errors.Join(all...)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.queue.Close()
		if s.mqtt != nil {
			s.mqtt.Disconnect()
		}
		coremon.Flush(2 * time.Second)
		err = s.db.Close()
	})
	return err
}
