// Harborwatch - Live Maritime Tracking and Spatial Aggregation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/harborwatch

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/harborwatch/internal/api"
	"github.com/tomtom215/harborwatch/internal/auth"
	"github.com/tomtom215/harborwatch/internal/config"
	"github.com/tomtom215/harborwatch/internal/feed"
	"github.com/tomtom215/harborwatch/internal/logging"
	"github.com/tomtom215/harborwatch/internal/registry"
	"github.com/tomtom215/harborwatch/internal/supervisor"
	"github.com/tomtom215/harborwatch/internal/supervisor/services"
	"github.com/tomtom215/harborwatch/internal/tracker"
	ws "github.com/tomtom215/harborwatch/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    os.Stderr,
	})

	logging.Info().
		Str("stream_url", cfg.Feed.StreamURL).
		Str("poll_url", cfg.Feed.PollURL).
		Str("auth_mode", cfg.Security.AuthMode).
		Msg("Starting Harborwatch")

	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS allows any origin while session tokens are required; set CORS_ORIGINS")
	}

	gate, err := auth.NewGate(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize session gate")
	}
	logDevelopmentToken(cfg, gate)

	feedManager := feed.NewManager(feedConfig(cfg))

	session, err := tracker.NewSession(trackerConfig(cfg), tracker.Deps{
		Gate: gate,
		Feed: feedManager,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create tracker session")
	}

	hub := ws.NewHub(func() ws.View { return session.NewView() })

	handler := api.NewHandler(session, hub, cfg)
	defer handler.Close()
	router := api.NewRouter(handler, gate, cfg)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	tree.AddPipelineService(services.NewSessionService(session))
	tree.AddMessagingService(services.NewWebSocketHubService(hub))
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("Services added to supervisor tree")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	// The session service stops with the tree, but a tree that exits on
	// its own leaves the feed open.
	session.Close()

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
	}

	logging.Info().Msg("Harborwatch stopped")
}

func feedConfig(cfg *config.Config) feed.Config {
	return feed.Config{
		StreamURL:       cfg.Feed.StreamURL,
		PollURL:         cfg.Feed.PollURL,
		Token:           cfg.Feed.Token,
		PollInterval:    cfg.Feed.PollInterval,
		RequestTimeout:  cfg.Feed.RequestTimeout,
		DialTimeout:     cfg.Feed.DialTimeout,
		BackoffInitial:  cfg.Feed.BackoffInitial,
		BackoffMax:      cfg.Feed.BackoffMax,
		BreakerFailures: cfg.Feed.BreakerFailures,
		BreakerTimeout:  cfg.Feed.BreakerTimeout,
	}
}

func trackerConfig(cfg *config.Config) tracker.Config {
	return tracker.Config{
		StaleAfterCycles:    cfg.Store.StaleAfterCycles,
		StaleAfter:          cfg.Store.StaleAfter,
		SweepInterval:       cfg.Store.SweepInterval,
		GridSize:            cfg.Spatial.GridSize,
		ClusterRadiusPx:     cfg.Spatial.ClusterRadiusPx,
		ThrottleInterval:    cfg.Spatial.ThrottleInterval,
		DefaultZoom:         cfg.Spatial.DefaultZoom,
		ForwardSessionToken: cfg.Feed.ForwardSessionToken && cfg.Feed.Token == "",
		Registry: registry.Config{
			PortsURL:           cfg.Registry.PortsURL,
			RefineriesURL:      cfg.Registry.RefineriesURL,
			RevalidateInterval: cfg.Registry.RevalidateInterval,
			RequestTimeout:     cfg.Registry.RequestTimeout,
		},
	}
}

// logDevelopmentToken prints a viewer token outside production so a local
// client can open the session.
func logDevelopmentToken(cfg *config.Config, gate auth.Gate) {
	if cfg.IsProduction() {
		return
	}
	jwtGate, ok := gate.(*auth.JWTGate)
	if !ok {
		return
	}
	token, err := jwtGate.Manager().GenerateToken("dev-viewer", "viewer")
	if err != nil {
		logging.Warn().Err(err).Msg("Failed to mint development token")
		return
	}
	logging.Info().Str("token", token).Msg("Development viewer token")
}
