package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/png-egov/procurement-plans/internal/config"
	"github.com/png-egov/procurement-plans/internal/database"
	"github.com/png-egov/procurement-plans/internal/handler"
	"github.com/png-egov/procurement-plans/internal/logger"
	"github.com/png-egov/procurement-plans/internal/metrics"
	"github.com/png-egov/procurement-plans/internal/middleware"
	"github.com/png-egov/procurement-plans/internal/repository"
	"github.com/png-egov/procurement-plans/internal/service"
)

func main() {
	root := &cobra.Command{
		Use:   "procurement-plans",
		Short: "Procurement plan lifecycle service",
	}
	root.AddCommand(serveCmd(), migrateCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return database.Migrate(database.Config(cfg.Database))
		},
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log := logger.New(logger.Config{
		Level:       os.Getenv("LOG_LEVEL"),
		Environment: cfg.Service.Environment,
		ServiceName: cfg.Service.Name,
		Version:     cfg.Service.Version,
	})

	log.Info().
		Str("service", cfg.Service.Name).
		Str("version", cfg.Service.Version).
		Str("environment", cfg.Service.Environment).
		Msg("Starting procurement plans service")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, database.Config(cfg.Database))
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	log.Info().Msg("Database connection established")

	// Repositories
	planRepo := repository.NewPlanRepository(db)
	historyRepo := repository.NewWorkflowHistoryRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)

	// Reference catalogs are loaded once at startup; they are read-only
	// from the core's point of view.
	catalogs, err := catalogRepo.LoadSet(ctx)
	if err != nil {
		return fmt.Errorf("load reference catalogs: %w", err)
	}
	log.Info().Msg("Reference catalogs loaded")

	m := metrics.New(prometheus.DefaultRegisterer)

	// Services
	planService := service.NewPlanService(planRepo, historyRepo, catalogs, m, log)
	importService := service.NewImportService(planRepo, catalogs, m, log)

	// HTTP routes
	httpHandler := handler.NewHTTPHandler(planService, importService, log)
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"healthy"}`))
	})
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/api/v1/plans", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			httpHandler.ListPlans(w, r)
		case http.MethodPost:
			httpHandler.CreatePlan(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/v1/plans/get", httpHandler.GetPlan)
	mux.HandleFunc("/api/v1/plans/summary", httpHandler.GetSummary)
	mux.HandleFunc("/api/v1/plans/history", httpHandler.GetHistory)
	mux.HandleFunc("/api/v1/plans/transitions", httpHandler.GetTransitions)
	mux.HandleFunc("/api/v1/plans/transition", httpHandler.Transition)

	mux.HandleFunc("/api/v1/plans/items", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			httpHandler.AddItem(w, r)
		case http.MethodDelete:
			httpHandler.DeleteItem(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	})

	mux.HandleFunc("/api/v1/plans/import/validate", httpHandler.ValidateImport)
	mux.HandleFunc("/api/v1/plans/import/commit", httpHandler.CommitImport)

	// Middleware chain
	var h http.Handler = mux
	h = middleware.RequestID(h)
	h = middleware.Logger(&log.Logger)(h)
	h = middleware.Recovery(&log.Logger)(h)
	h = middleware.CORS([]string{"*"})(h)
	h = middleware.Timeout(cfg.Server.WriteTimeout)(h)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      h,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	log.Info().Msg("Server stopped")
	return nil
}
