package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chemlab/dealwatch/app/api"
	"github.com/chemlab/dealwatch/app/cfg"
	"github.com/chemlab/dealwatch/app/database"
	"github.com/chemlab/dealwatch/app/fetch"
	"github.com/chemlab/dealwatch/app/notify"
	"github.com/chemlab/dealwatch/app/site"
	"github.com/chemlab/dealwatch/app/tasks"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	if appCfg.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	slog.Info("Starting DealWatch", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	migrationVersion, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration", migrationVersion, "dirty", dirty)

	registry := site.NewRegistry(appCfg.SitesDir)
	if err := registry.Run(); err != nil {
		log.Fatal("Failed to load site configurations:", err)
	}
	slog.Info("Site catalog loaded", "sites", len(registry.All()))

	stateRepo := database.NewSiteStateRepository(db)
	detector := tasks.NewChangeDetector(stateRepo)
	fetcher := fetch.NewFetcher(time.Duration(appCfg.FetchTimeout)*time.Second, appCfg.UserAgent)
	notifier := notify.NewLogNotifier(notify.Options{
		Vibrate: appCfg.NotifyVibrate,
		Light:   appCfg.NotifyLight,
	})
	gate := tasks.NewDialGate(appCfg.NetProbeAddr)

	scheduler := tasks.NewScheduler(registry, fetcher, detector, notifier, gate,
		time.Duration(appCfg.UpdateInterval)*time.Second, appCfg.KeepAwake)
	scheduler.Start()

	handler := api.NewHandler(registry, stateRepo, scheduler, appCfg.Version)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Control server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Stop future cycles, then let in-flight checks finish; they are
	// bounded by their own timeouts.
	scheduler.Stop()
	scheduler.Wait()

	slog.Info("Shutdown complete")
}
