package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	drepo "github.com/foreverwb/volatility-analysis/internal/domain/repository"
	"github.com/foreverwb/volatility-analysis/pkg/config"
	xhttp "github.com/foreverwb/volatility-analysis/pkg/http"
	applogger "github.com/foreverwb/volatility-analysis/pkg/logger"
)

// VIXRefresher forces a fresh VIX fetch; the hourly cron job drives it so
// request-path fetches stay rare.
type VIXRefresher interface {
	Refresh(ctx context.Context) (float64, error)
}

// App encapsulates the entire application lifecycle: HTTP server, scheduled
// maintenance, and infrastructure teardown.
type App struct {
	cfg        *config.Config
	handler    xhttp.Handler
	httpServer *xhttp.Server
	cron       *cron.Cron
	history    drepo.HistoryStore
	results    drepo.ResultStore
	pub        drepo.Publisher
	vix        VIXRefresher
	log        *applogger.Logger
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	handler xhttp.Handler,
	history drepo.HistoryStore,
	results drepo.ResultStore,
	pub drepo.Publisher,
	vix VIXRefresher,
	log *applogger.Logger,
) *App {
	return &App{
		cfg:     cfg,
		handler: handler,
		history: history,
		results: results,
		pub:     pub,
		vix:     vix,
		log:     log,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	a.startMaintenance(ctx)

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// startMaintenance schedules the history prune and the VIX cache refresh.
func (a *App) startMaintenance(ctx context.Context) {
	a.cron = cron.New()

	if a.cfg.History.PruneSchedule != "" {
		retention := time.Duration(a.cfg.History.RetentionDays) * 24 * time.Hour
		if _, err := a.cron.AddFunc(a.cfg.History.PruneSchedule, func() {
			if err := a.history.Prune(ctx, retention); err != nil {
				a.log.Warn("history prune failed", applogger.Error(err))
				return
			}
			a.log.Info("history pruned", applogger.Int("retention_days", a.cfg.History.RetentionDays))
		}); err != nil {
			a.log.Error("invalid prune schedule",
				applogger.String("schedule", a.cfg.History.PruneSchedule), applogger.Error(err))
		}
	}

	if a.vix != nil && a.cfg.VIX.RefreshSchedule != "" {
		if _, err := a.cron.AddFunc(a.cfg.VIX.RefreshSchedule, func() {
			if _, err := a.vix.Refresh(ctx); err != nil {
				a.log.Warn("vix refresh failed", applogger.Error(err))
			}
		}); err != nil {
			a.log.Error("invalid vix refresh schedule",
				applogger.String("schedule", a.cfg.VIX.RefreshSchedule), applogger.Error(err))
		}
	}

	a.cron.Start()
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.cron != nil {
		<-a.cron.Stop().Done()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	a.log.RemoveCollector()
	if err := a.pub.Close(); err != nil {
		a.log.Warn("publisher close error", applogger.Error(err))
	}
	if err := a.results.Close(); err != nil {
		a.log.Warn("result store close error", applogger.Error(err))
	}
	if err := a.history.Close(); err != nil {
		a.log.Warn("history store close error", applogger.Error(err))
	}

	a.log.Info("shutdown complete")
	return nil
}
