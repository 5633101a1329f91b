// main is the entry point of the student results portal.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file
//  2. Initialise the logger
//  3. Build the record store client and the application controller
//  4. Start the fiber web app in a separate goroutine
//  5. Block until an OS signal arrives, then shut down gracefully
//
// The portal does not load anything on start; the list stays empty
// until the user presses Reload.
//
// RUNNING THE PORTAL:
//
//	go run ./cmd/students-store --config=config/store.yaml
//	go run ./cmd/student-portal --config=config/portal.yaml
package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aanand-mishra/student-results/internal/client"
	"github.com/aanand-mishra/student-results/internal/config"
	"github.com/aanand-mishra/student-results/internal/http/handlers/web"
	"github.com/aanand-mishra/student-results/internal/logging"
	"github.com/aanand-mishra/student-results/internal/portal"
)

func main() {
	// ── 1. Load Config ────────────────────────────────────────────────────
	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	log := logging.New(cfg.Env, os.Stdout)
	slog.SetDefault(log)

	log.Info("starting student-portal",
		slog.String("env", cfg.Env),
		slog.String("store", cfg.Store.BaseURL),
	)

	// ── 3. Wire the core ──────────────────────────────────────────────────
	store, err := client.New(client.Config{
		BaseURL: cfg.Store.BaseURL,
		Timeout: cfg.Store.Timeout,
		Logger:  log.With(slog.String("component", "store-client")),
	})
	if err != nil {
		log.Error("failed to create store client", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctrl := portal.New(store, portal.WithLogger(log.With(slog.String("component", "controller"))))
	ctrl.Subscribe(func(st portal.State) {
		log.Debug("state changed",
			slog.String("view", string(st.View)),
			slog.Int("records", len(st.Records)),
			slog.Bool("loading", st.Loading),
		)
	})

	app, err := web.NewApp(ctrl)
	if err != nil {
		log.Error("failed to build web app", slog.String("error", err.Error()))
		os.Exit(1)
	}
	app.Server().ReadTimeout = cfg.HTTPServer.ReadTimeout
	app.Server().WriteTimeout = cfg.HTTPServer.WriteTimeout
	app.Server().IdleTimeout = cfg.HTTPServer.IdleTimeout

	// ── 4. Start Server ───────────────────────────────────────────────────
	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		if err := app.Listen(cfg.HTTPServer.Addr); err != nil {
			log.Error("server encountered an error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// ── 5. Wait for Shutdown Signal ───────────────────────────────────────
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Error("failed to shutdown server gracefully", slog.String("error", err.Error()))
		return
	}

	log.Info("server stopped gracefully")
}
