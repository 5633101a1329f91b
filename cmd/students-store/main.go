// main is the entry point of the students store: a development stand-in
// for the remote collection the portal talks to.
//
// STARTUP SEQUENCE:
//  1. Load configuration from a YAML file
//  2. Initialise the logger
//  3. Open the configured storage backend (memory, sqlite or postgres)
//  4. Seed it from a YAML fixture when it is empty
//  5. Register the /students routes and start the HTTP server
//  6. Block until an OS signal arrives, then shut down gracefully
//
// RUNNING THE SERVER:
//
//	go run ./cmd/students-store --config=config/store.yaml
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/aanand-mishra/student-results/internal/config"
	"github.com/aanand-mishra/student-results/internal/http/handlers/student"
	"github.com/aanand-mishra/student-results/internal/http/middleware"
	"github.com/aanand-mishra/student-results/internal/logging"
	"github.com/aanand-mishra/student-results/internal/storage"
	"github.com/aanand-mishra/student-results/internal/storage/memory"
	"github.com/aanand-mishra/student-results/internal/storage/postgres"
	"github.com/aanand-mishra/student-results/internal/storage/seed"
	"github.com/aanand-mishra/student-results/internal/storage/sqlite"
	"github.com/aanand-mishra/student-results/internal/utils/response"
)

func main() {
	// ── 1. Load Config ────────────────────────────────────────────────────
	cfg := config.MustLoad()

	// ── 2. Initialise Logger ──────────────────────────────────────────────
	log := logging.New(cfg.Env, os.Stdout)
	slog.SetDefault(log)

	log.Info("starting students-store",
		slog.String("env", cfg.Env),
		slog.String("driver", cfg.Storage.Driver),
	)

	// ── 3. Initialise Storage ─────────────────────────────────────────────
	store, err := openStorage(context.Background(), cfg.Storage)
	if err != nil {
		log.Error("failed to initialise storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	// ── 4. Seed ───────────────────────────────────────────────────────────
	if cfg.Storage.SeedPath != "" {
		records, err := seed.Load(cfg.Storage.SeedPath)
		if err != nil {
			log.Error("failed to read seed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		n, err := seed.Apply(context.Background(), store, records)
		if err != nil {
			log.Error("failed to seed storage", slog.String("error", err.Error()))
			os.Exit(1)
		}
		log.Info("storage seeded", slog.Int("created", n))
	}

	// ── 5. Register HTTP Routes ───────────────────────────────────────────
	// Route table:
	//   GET    /health
	//   GET    /students        → list all students
	//   POST   /students        → create a new student
	//   GET    /students/{id}   → get one student by ID
	//   PUT    /students/{id}   → replace a student
	//   DELETE /students/{id}   → delete a student
	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(middleware.RequestLogger(log))
	router.Use(chimw.Recoverer)

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		response.WriteJSON(w, http.StatusOK, response.Response{Status: response.StatusOK})
	})
	router.Mount("/students", student.Routes(store))

	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// ── 6. Wait for Shutdown Signal ───────────────────────────────────────
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully", slog.String("error", err.Error()))
		return
	}

	log.Info("server stopped gracefully")
}

// openStorage returns the backend named by cfg.Driver.
// Callers only ever see the storage.Storage interface.
func openStorage(ctx context.Context, cfg config.Storage) (storage.Storage, error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(), nil
	case config.DriverSQLite:
		return sqlite.New(cfg.Path)
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
