package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/cwygoda/morgue/internal/adapter/browser"
	httpAdapter "github.com/cwygoda/morgue/internal/adapter/http"
	"github.com/cwygoda/morgue/internal/adapter/sqlite"
	"github.com/cwygoda/morgue/internal/config"
	"github.com/cwygoda/morgue/internal/domain"
	"github.com/cwygoda/morgue/internal/metrics"
	"github.com/cwygoda/morgue/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	logger.Info("starting morgue",
		"domain", cfg.Domain,
		"interval", cfg.Interval(),
		"max_failures", cfg.MaxConsecutiveFailures,
		"session_db", cfg.SessionDB,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Session cookies survive restarts so the console is not asked for a
	// fresh sign-in every time.
	repo, err := sqlite.New(cfg.SessionDB)
	if err != nil {
		logger.Error("failed to initialize session store", "error", err)
		os.Exit(1)
	}
	defer repo.Close()

	session, err := browser.New(ctx, browser.Options{
		Host:     cfg.Domain,
		Email:    cfg.AccountEmail,
		Password: cfg.AccountPassword,
		Headless: cfg.Headless,
		Timeout:  cfg.Timeout(),
	}, repo, logger)
	if err != nil {
		logger.Error("failed to open console session", "error", err)
		os.Exit(1)
	}
	defer session.Close()

	triage := domain.NewTriage(
		session,
		domain.NewClassifier(),
		domain.RetryPolicy{MaxConsecutiveFailures: cfg.MaxConsecutiveFailures},
		cfg.Timeout(),
		logger,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	schedule, err := cfg.SweepSchedule()
	if err != nil {
		logger.Error("invalid schedule", "error", err)
		os.Exit(1)
	}
	w := worker.New(triage, schedule, m, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		w.Run(gctx)
		return nil
	})

	if cfg.StatusAddr != "" {
		srv := httpAdapter.NewServer(w, reg, cfg.StatusAddr, logger)
		g.Go(func() error {
			logger.Info("status server listening", "addr", srv.Addr())
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("shutdown with error", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func newLogger(level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}

	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
