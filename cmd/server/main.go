package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/contentpub/importer/internal/config"
	"github.com/contentpub/importer/internal/db"
	"github.com/contentpub/importer/internal/export"
	"github.com/contentpub/importer/internal/importer"
	"github.com/contentpub/importer/internal/media"
	"github.com/contentpub/importer/internal/middleware"
	"github.com/contentpub/importer/internal/repository"
	"github.com/contentpub/importer/internal/tabular"
	"github.com/contentpub/importer/internal/taxonomy"
)

func main() {
	// Create context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Setup database connection
	conn, err := db.NewConnection(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer conn.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.Database, cfg.Import.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Create stores
	contentStore := repository.NewContentStore(conn.Pool)
	mediaStore := repository.NewMediaStore(conn.Pool)
	termStore := repository.NewTermStore(conn.Pool)
	collections := repository.NewCollectionRegistry(conn.Pool)
	aliases := repository.NewAliasLookup(conn.Pool)
	runs := repository.NewRunStore(conn.Pool)
	logs := repository.NewImportLogStore(conn.Pool)

	// Wire the pipeline
	fetcher := media.NewHTTPFetcher(cfg.Import.ProbeConcurrency)
	registry := importer.NewRegistry(importer.Deps{
		Media:      media.NewResolver(fetcher, nil),
		MediaStore: mediaStore,
		Taxonomy:   taxonomy.NewResolver(termStore),
		Aliases:    aliases,
		Checker:    importer.NewURLChecker(fetcher, cfg.Import.ProbeConcurrency),
	})
	service := importer.NewService(
		tabular.NewReader(tabular.Options{}),
		registry,
		contentStore, mediaStore, termStore, collections, runs, logs,
	)
	handler := importer.NewHTTPHandler(service, cfg.Import.UploadDir)
	exportHandler := export.NewHTTPHandler(export.NewService(contentStore))

	// Setup CORS
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
	})

	mux := http.NewServeMux()
	mux.Handle("/export", exportHandler)
	mux.Handle("/", handler.Routes())

	http.Handle("/", corsHandler.Handler(
		middleware.LoggingMiddleware(
			middleware.CollectionScopeMiddleware(mux),
		),
	))

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Starting import server on %s", cfg.Server.Addr)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
