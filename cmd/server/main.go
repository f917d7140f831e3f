package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/erp/kanban/internal/bootstrap"
	"github.com/erp/kanban/internal/infrastructure/config"
	"github.com/erp/kanban/internal/infrastructure/logger"
	"github.com/erp/kanban/internal/infrastructure/telemetry"
	"github.com/erp/kanban/internal/interfaces/http/handler"
	"github.com/erp/kanban/internal/interfaces/http/middleware"
	"github.com/erp/kanban/internal/interfaces/http/router"
)

func main() {
	flags := pflag.NewFlagSet("kanban-server", pflag.ExitOnError)
	configFile := flags.StringP("config", "c", "", "path to the configuration file")
	flags.String("port", "", "HTTP listen port")
	_ = flags.Parse(os.Args[1:])

	// Load configuration
	opts := []config.Option{config.WithFlag("app.port", flags.Lookup("port"))}
	if *configFile != "" {
		opts = append(opts, config.WithConfigFile(*configFile))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting kanban card server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	app, err := bootstrap.New(context.Background(), cfg, log, bootstrap.Options{
		Source:         "http",
		StoreDocuments: true,
	})
	if err != nil {
		log.Fatal("Failed to initialize kanban pipeline", zap.Error(err))
	}

	retentionCtx, stopRetention := context.WithCancel(context.Background())
	defer stopRetention()
	go app.RunRetention(retentionCtx)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		Enabled:     cfg.Telemetry.Enabled,
		ServiceName: cfg.Telemetry.ServiceName,
	})...)
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	systemHandler := handler.NewSystemHandler(cfg.App.Name, telemetry.ServiceVersion)
	kanbanHandler := handler.NewKanbanHandler(app.Generator, app.Store)

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		RegisterRoot(handler.HealthRoutes(systemHandler)).
		RegisterRoot(handler.WebRoutes(kanbanHandler)).
		Register(handler.SystemRoutes(systemHandler)).
		Register(handler.KanbanRoutes(kanbanHandler)).
		Setup()

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           cfg.App.Address(),
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	stopRetention()
	if err := app.Shutdown(ctx); err != nil {
		log.Error("Error releasing resources", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
