// Package app assembles the HTTP service from configuration and runs it
// until its context is cancelled.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/parisxmas/leadsite/internal/config"
	"github.com/parisxmas/leadsite/internal/funnel"
	"github.com/parisxmas/leadsite/internal/handler"
	"github.com/parisxmas/leadsite/internal/notify"
	"github.com/parisxmas/leadsite/internal/repository"
	"github.com/parisxmas/leadsite/internal/router"
	"github.com/parisxmas/leadsite/internal/service"
	"github.com/parisxmas/leadsite/internal/web"
)

const shutdownTimeout = 20 * time.Second

type App struct {
	cfg        *config.Config
	log        *zap.Logger
	server     *http.Server
	dispatcher *notify.Dispatcher
	sessions   *web.SessionStore
	closers    []func() error
}

func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	dead, err := repository.NewDeadLetterRepo(cfg.SQLiteDSN)
	if err != nil {
		return nil, fmt.Errorf("open dead letter store: %w", err)
	}
	a.closers = append(a.closers, dead.Close)

	var funnelRepo funnel.Repository
	if cfg.FunnelStore == config.FunnelStoreMemory {
		funnelRepo = repository.NewMemoryFunnelRepo()
	} else {
		sqliteFunnel, err := repository.NewFunnelRepo(cfg.SQLiteDSN)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("open funnel store: %w", err)
		}
		a.closers = append(a.closers, sqliteFunnel.Close)
		funnelRepo = sqliteFunnel
	}

	sinks, err := buildSinks(ctx, cfg, log)
	if err != nil {
		a.close()
		return nil, err
	}
	a.closers = append(a.closers, func() error { sinks.close(); return nil })

	a.dispatcher = notify.NewDispatcher(sinks.sinks, dead, log.Named("notify"), notify.Options{
		Workers:        cfg.Dispatcher.Workers,
		QueueSize:      cfg.Dispatcher.QueueSize,
		MaxAttempts:    cfg.Dispatcher.MaxAttempts,
		InitialBackoff: cfg.Dispatcher.InitialBackoff,
		MaxElapsed:     cfg.Dispatcher.MaxElapsed,
	})

	var diag *service.DiagnosticLog
	if !cfg.IsProduction() && cfg.DiagnosticPath != "" {
		diag = service.NewDiagnosticLog(cfg.DiagnosticPath)
	}
	leadSvc := service.NewLeadService(a.dispatcher, diag, log)

	var leads service.LeadCounter
	if sinks.leads != nil {
		leads = sinks.leads
	}
	adminSvc := service.NewAdminService(cfg.AdminEmail, cfg.AdminPassHash, cfg.JWTSecret, dead, leads)
	fnl := funnel.New(funnelRepo, log)

	a.sessions = web.NewSessionStore(cfg.SessionTTL)
	submitter := web.NewLocalSubmitter(leadSvc, cfg.DestinationPhone)
	site := web.NewSite(cfg.PublicBaseURL, a.sessions, fnl, submitter, log)

	r := router.New(
		router.Options{
			JWTSecret:    cfg.JWTSecret,
			BodyLimit:    cfg.BodyLimit,
			ExposeErrors: !cfg.IsProduction(),
			Log:          log,
		},
		handler.NewLeadHandler(leadSvc, !cfg.IsProduction(), log),
		handler.NewAuthHandler(adminSvc),
		handler.NewDashboardHandler(adminSvc, fnl, !cfg.IsProduction()),
		handler.NewAdminHandler(adminSvc, fnl, !cfg.IsProduction()),
		site,
	)
	a.server = &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

// Run serves until ctx is done, then shuts down in order: HTTP server,
// dispatcher drain, stores.
func (a *App) Run(ctx context.Context) error {
	a.dispatcher.Start()

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go a.sessions.Run(sweepCtx, time.Minute)

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("leadsite server starting", zap.String("addr", a.cfg.HTTPAddr), zap.String("env", a.cfg.Env))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown requested")
	case err := <-errCh:
		runErr = fmt.Errorf("http server: %w", err)
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(sctx); err != nil {
		runErr = multierr.Append(runErr, fmt.Errorf("http shutdown: %w", err))
	}
	if err := a.dispatcher.Shutdown(sctx); err != nil {
		runErr = multierr.Append(runErr, fmt.Errorf("dispatcher drain: %w", err))
	}
	runErr = multierr.Append(runErr, a.close())
	a.log.Info("leadsite server stopped")
	return runErr
}

func (a *App) close() error {
	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i]())
	}
	a.closers = nil
	return err
}
