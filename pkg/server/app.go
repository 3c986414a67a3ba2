package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"MarketSentry/internal/handler/api"
	mid "MarketSentry/internal/middleware"
	"MarketSentry/internal/usecase"
	pkgch "MarketSentry/pkg/clickhouse"
	"MarketSentry/pkg/config"
	xhttp "MarketSentry/pkg/http"
	pkgkafka "MarketSentry/pkg/kafka"
	applogger "MarketSentry/pkg/logger"
	pkgqueue "MarketSentry/pkg/queue"
)

// App encapsulates the entire application lifecycle: the exchange stream
// collector, the Kafka consumer, the detection monitor, the alert gate,
// the notification queue, and the HTTP API.
type App struct {
	cfg        *config.Config
	logger     *applogger.Logger
	collector  *usecase.TickCollector
	consumer   *pkgkafka.Consumer
	kh         pkgkafka.MessageHandler
	monitor    *usecase.Monitor
	gate       *mid.AlertGate
	queue      *pkgqueue.RedisQueue
	chClient   *pkgch.Client
	handler    *api.SentryEchoHandler
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	lgr *applogger.Logger,
	collector *usecase.TickCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	monitor *usecase.Monitor,
	gate *mid.AlertGate,
	queue *pkgqueue.RedisQueue,
	chClient *pkgch.Client,
	handler *api.SentryEchoHandler,
) *App {
	return &App{
		cfg:       cfg,
		logger:    lgr,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		monitor:   monitor,
		gate:      gate,
		queue:     queue,
		chClient:  chClient,
		handler:   handler,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.logger

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	go func() {
		if err := a.collector.Start(ctx); err != nil {
			l.Error("collector error", applogger.Error(err))
		}
	}()
	l.Info("collector started", applogger.Strings("symbols", a.cfg.Exchange.Symbols))

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			l.Error("notification queue start error", applogger.Error(err))
		} else {
			l.Info("notification queue started")
		}
	}

	a.gate.Start(ctx)

	go a.monitor.Run(ctx)
	l.Info("detection monitor started",
		applogger.Strings("assets", a.cfg.Detection.Assets),
		applogger.Duration("interval", a.cfg.Detection.Interval))

	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

// shutdown gracefully stops all services.
func (a *App) shutdown() error {
	l := a.logger
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.collector.Shutdown(ctx); err != nil {
		l.Warn("collector stop error", applogger.Error(err))
	}

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			l.Error("http shutdown error", applogger.Error(err))
		}
	}

	a.gate.Stop()

	if a.queue != nil {
		if err := a.queue.Stop(ctx); err != nil {
			l.Warn("notification queue stop error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if proc := a.collector.Processor(); proc != nil {
		proc.Close()
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
