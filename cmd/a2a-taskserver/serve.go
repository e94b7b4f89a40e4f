// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	a2a "github.com/go-a2a/a2a-taskserver"
	"github.com/go-a2a/a2a-taskserver/agent"
	"github.com/go-a2a/a2a-taskserver/agent/echo"
	"github.com/go-a2a/a2a-taskserver/config"
	"github.com/go-a2a/a2a-taskserver/internal/logging"
	"github.com/go-a2a/a2a-taskserver/internal/telemetry"
	"github.com/go-a2a/a2a-taskserver/server"
	"github.com/go-a2a/a2a-taskserver/transport"
)

func serve(ctx context.Context, configPath string, logOut io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(logOut, cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Error("close store", slog.Any("error", err))
		}
	}()

	metrics := telemetry.Default()
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		provider, h, err := newMetrics()
		if err != nil {
			return err
		}
		defer func() {
			// a fresh context: ctx is already done during shutdown
			_ = provider.Shutdown(context.WithoutCancel(ctx))
		}()
		metrics = telemetry.NewMetrics(provider.Meter(telemetry.InstrumentationName))
		metricsHandler = h
	}

	tm := server.NewTaskManager(
		server.WithStore(store),
		server.WithAgents(buildAgents(cfg.Agents)...),
		server.WithLogger(logger),
		server.WithMetrics(metrics),
	)

	var provider *a2a.AgentProvider
	if cfg.Server.Organization != "" {
		provider = &a2a.AgentProvider{Organization: cfg.Server.Organization}
	}
	srv := transport.NewServer(tm,
		transport.WithLogger(logger),
		transport.WithMetrics(metrics),
		transport.WithMaxBodyBytes(cfg.Server.MaxBodyBytes),
		transport.WithCardOptions(server.CardOptions{BaseURL: cfg.Server.BaseURL, Provider: provider}),
	)
	if metricsHandler != nil {
		srv.Handle(cfg.Metrics.Path, metricsHandler)
	}

	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h2c.NewHandler(srv, &http2.Server{}),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening",
			slog.String("addr", cfg.Server.Addr),
			slog.String("store", cfg.Store.Backend),
			slog.Int("agents", len(cfg.Agents)))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newMetrics returns a meter provider exporting to a dedicated Prometheus
// registry and the handler serving that registry.
func newMetrics() (*sdkmetric.MeterProvider, http.Handler, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	return provider, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), nil
}

func buildAgents(cfgs []config.Agent) []agent.Agent {
	agents := make([]agent.Agent, 0, len(cfgs))
	for _, c := range cfgs {
		opts := []echo.Option{
			echo.WithPrefix(c.Prefix),
			echo.WithChunkSize(c.ChunkSize),
			echo.WithDelay(c.Delay),
		}
		if c.Description != "" {
			opts = append(opts, echo.WithDescription(c.Description))
		}
		agents = append(agents, echo.New(c.ID, opts...))
	}
	return agents
}
