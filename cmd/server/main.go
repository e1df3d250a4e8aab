package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/perfwatch/ingest/internal/auth"
	"github.com/perfwatch/ingest/internal/config"
	"github.com/perfwatch/ingest/internal/db"
	"github.com/perfwatch/ingest/internal/ingestion"
	"github.com/perfwatch/ingest/internal/middleware"
	"github.com/perfwatch/ingest/internal/report"
	"github.com/perfwatch/ingest/internal/repository"

	"github.com/rs/cors"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	if err := db.RunMigrations(cfg.Database, cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	jobRepo := repository.NewImportJobRepository(conn.Pool)
	recordRepo := repository.NewRecordRepository(conn.Pool)
	officerRepo := repository.NewOfficerRepository(conn.Pool)
	weightsRepo := repository.NewKPIWeightsRepository(conn.Pool)

	service := ingestion.NewService(jobRepo, recordRepo, officerRepo, weightsRepo)
	reportService := report.NewService(officerRepo)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	mux := http.NewServeMux()
	mux.Handle("/api/imports/upload", ingestion.NewUploadHandler(service))
	mux.Handle("/api/imports", ingestion.NewJobsHandler(jobRepo, recordRepo))
	mux.Handle("/api/imports/", ingestion.NewJobsHandler(jobRepo, recordRepo))
	mux.Handle("/api/officers", report.NewHTTPHandler(reportService))
	mux.Handle("/api/officers/export", report.NewHTTPHandler(reportService))

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      corsHandler.Handler(middleware.LoggingMiddleware(auth.Middleware(mux))),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting ingestion server on %s", cfg.ListenAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
