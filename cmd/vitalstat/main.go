package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/savegress/vitalstat/internal/api"
	"github.com/savegress/vitalstat/internal/config"
	"github.com/savegress/vitalstat/internal/dataset"
	"github.com/savegress/vitalstat/internal/derive"
	"github.com/savegress/vitalstat/internal/storage"
)

// Exit codes. Bad or missing input is reported before any output is
// produced; sink failures happen after the derivation succeeded.
const (
	exitOK       = 0
	exitBadInput = 2
	exitSink     = 3
)

func main() {
	serve := flag.Bool("serve", false, "serve the HTTP API after the initial derivation")
	flag.Parse()

	log.Println("Starting VitalStat...")

	// Load configuration
	cfg := loadConfig()

	// Initialize run history storage
	store, err := initStorage(cfg)
	if err != nil {
		log.Printf("Failed to initialize storage: %v", err)
		os.Exit(exitSink)
	}
	if store != nil {
		defer store.Close()
	}

	pipeline := derive.NewPipeline()
	runner := newRunner(cfg, pipeline, store)

	// Initial derivation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	run, err := runner(ctx)
	if err != nil {
		log.Printf("Derivation failed: %v", err)
		os.Exit(exitCodeFor(err))
	}
	log.Printf("Wrote derived dataset to %s (rows: %d)", run.OutputFile, run.StatusCount)

	if !*serve {
		return
	}

	if store == nil {
		log.Println("Serve mode requires run history storage; configure storage.embedded.path")
		os.Exit(exitSink)
	}

	// Create API server
	server := api.NewServer(cfg, store, runner)

	// Start HTTP server
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("VitalStat API listening on port %d", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down VitalStat...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("VitalStat stopped")
}

// newRunner builds the derivation runner shared by the CLI path and the
// POST /derive handler: load both tables, derive, write the CSV, record
// the run.
func newRunner(cfg *config.Config, pipeline *derive.Pipeline, store storage.RunStore) api.RunFunc {
	return func(ctx context.Context) (*storage.Run, error) {
		patients, err := dataset.ReadPatients(cfg.Inputs.PatientsFile)
		if err != nil {
			return nil, err
		}
		measurements, err := dataset.ReadMeasurements(cfg.Inputs.MeasurementsFile)
		if err != nil {
			return nil, err
		}

		statuses := pipeline.Derive(patients, measurements)

		if err := dataset.WriteStatuses(cfg.Output.File, statuses); err != nil {
			return nil, err
		}

		run := &storage.Run{
			ID:               uuid.New().String(),
			CreatedAt:        time.Now().UTC(),
			PatientsFile:     cfg.Inputs.PatientsFile,
			MeasurementsFile: cfg.Inputs.MeasurementsFile,
			OutputFile:       cfg.Output.File,
			PatientCount:     len(patients),
			MeasurementCount: len(measurements),
			StatusCount:      len(statuses),
		}
		if store != nil {
			if err := store.SaveRun(ctx, run, statuses); err != nil {
				return nil, fmt.Errorf("recording run: %w", err)
			}
		}
		return run, nil
	}
}

// exitCodeFor maps input problems (missing files, schema or row format
// errors) to exitBadInput; everything past the readers is a sink failure.
func exitCodeFor(err error) int {
	var schemaErr *dataset.SchemaError
	var rowErr *dataset.RowError
	if errors.Is(err, fs.ErrNotExist) || errors.As(err, &schemaErr) || errors.As(err, &rowErr) {
		return exitBadInput
	}
	return exitSink
}

func initStorage(cfg *config.Config) (storage.RunStore, error) {
	if cfg.Storage.Embedded == nil || cfg.Storage.Embedded.Path == "" {
		return nil, nil
	}
	return storage.NewEmbeddedStore(cfg.Storage.Embedded.Path)
}

func loadConfig() *config.Config {
	configPath := os.Getenv("VITALSTAT_CONFIG")
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			log.Printf("Failed to load config from %s: %v, using defaults", configPath, err)
			return config.LoadFromEnv()
		}
		return cfg
	}
	return config.LoadFromEnv()
}
