package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"campaign-dashboard/internal/client"
	"campaign-dashboard/internal/config"
	"campaign-dashboard/internal/dashboard"
	"campaign-dashboard/internal/export"
	"campaign-dashboard/internal/handlers"
	"campaign-dashboard/internal/sources"
	"campaign-dashboard/internal/storage"
	"campaign-dashboard/internal/transformer"
)

func main() {
	// Setup logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	logger.Info("Starting campaign dashboard service")

	// Initialize components
	store := storage.NewMemoryStore()
	fetcher := newFetcher(cfg, store, logger)
	service := dashboard.NewService(cfg, fetcher, logger)
	exporter := export.NewExporter(logger)

	handler := handlers.New(service, store, exporter, logger)

	// Setup Gin router
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(handlers.RequestID(), gin.Logger(), gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	handler.Register(router)

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", "X-Dashboard-Warnings", "Content-Disposition"},
		MaxAge:         300,
	})

	// Start server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("Server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}

// newFetcher picks the grid source: a local workbook when one is configured,
// the Sheets API otherwise. It returns nil when neither is set up, and every
// endpoint then reports the missing configuration.
func newFetcher(cfg *config.Config, store *storage.MemoryStore, logger *logrus.Logger) *sources.Fetcher {
	t := transformer.NewWithAliases(cfg.Columns)

	if cfg.WorkbookPath != "" {
		logger.WithField("path", cfg.WorkbookPath).Info("Reading sheets from local workbook")
		return sources.NewFetcher(client.NewWorkbookSource(cfg.WorkbookPath, logger), t, store, logger)
	}

	sheets, err := client.NewSheetsClient(context.Background(), cfg, logger)
	if err != nil {
		logger.WithError(err).Warn(client.Advisory(err))
		return nil
	}
	logger.WithField("spreadsheet_id", cfg.SpreadsheetID).Info("Reading sheets from Google Sheets")
	return sources.NewFetcher(sheets, t, store, logger)
}
