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

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/SAP-F-2025/sat-session-service/internal/cache"
	"github.com/SAP-F-2025/sat-session-service/internal/config"
	"github.com/SAP-F-2025/sat-session-service/internal/handlers"
	"github.com/SAP-F-2025/sat-session-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/sat-session-service/internal/services"
	"github.com/SAP-F-2025/sat-session-service/internal/tutor"
	"github.com/SAP-F-2025/sat-session-service/internal/utils"
	"github.com/SAP-F-2025/sat-session-service/internal/validator"
	"github.com/SAP-F-2025/sat-session-service/pkg"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "session-service",
		Short:        "Timed SAT exam session service",
		SilenceUsage: true,
	}

	serve := serveCmd()
	root.AddCommand(serve, migrateCmd())

	// serve is the default subcommand.
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP session server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.String("port", "", "HTTP listen port")
	f.String("database-url", "", "Postgres connection URL")
	f.String("log-level", "", "Log level (debug, info, warn, error)")
	f.String("log-format", "", "Log format (text, json)")
	f.Bool("migrate", false, "Run schema migrations before serving")
	return cmd
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE:  runMigrate,
	}
	f := cmd.Flags()
	f.String("database-url", "", "Postgres connection URL")
	f.String("log-level", "", "Log level (debug, info, warn, error)")
	f.String("log-format", "", "Log format (text, json)")
	return cmd
}

// flagKeys maps command line flags onto config keys.
var flagKeys = map[string]string{
	"port":         "server.port",
	"database-url": "database.url",
	"log-level":    "log.level",
	"log-format":   "log.format",
}

// loadConfig resolves config with changed flags taking precedence over the
// environment.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	v := viper.New()
	for flag, key := range flagKeys {
		if fl := cmd.Flags().Lookup(flag); fl != nil && fl.Changed {
			v.Set(key, fl.Value.String())
		}
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, nil, err
	}

	logger := utils.NewLogger(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}
	if err := postgres.AutoMigrate(db); err != nil {
		return err
	}

	logger.Info("Schema migrated")
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		return err
	}
	if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
		if err := postgres.AutoMigrate(db); err != nil {
			return err
		}
	}

	redisClient, err := pkg.NewRedisClient(ctx, cfg)
	if err != nil {
		// Postgres alone is enough to serve.
		logger.Warn("Redis unavailable, running without cache", "error", err)
	}
	var cacheManager *cache.CacheManager
	if redisClient != nil {
		defer redisClient.Close()
		cacheManager = cache.NewCacheManager(cache.NewRedisCache(redisClient, logger), logger,
			cfg.Redis.ModuleTTL, cfg.Redis.CheckpointTTL)
	}

	repo := postgres.NewRepository(db, cacheManager)

	publisher, err := cfg.Events.CreateEventPublisher(logger)
	if err != nil {
		return fmt.Errorf("failed to create event publisher: %w", err)
	}
	defer publisher.Close()

	var tutorClient services.TutorClient
	if cfg.Tutor.Enabled() {
		tutorClient = tutor.New(cfg.Tutor.BaseURL, cfg.Tutor.APIKey, cfg.Tutor.Model, logger)
	} else {
		logger.Info("Tutor API key not set, tutoring disabled")
	}

	settings := services.DefaultSessionSettings()
	if len(cfg.Session.ModuleNumbers) > 0 {
		settings.ModuleNumbers = cfg.Session.ModuleNumbers
	}
	settings.IntermissionAfter = cfg.Session.IntermissionAfter
	settings.IntermissionSeconds = cfg.Session.IntermissionSeconds
	settings.TickInterval = cfg.Session.TickInterval

	serviceManager := services.NewServiceManager(repo, publisher, validator.New(), tutorClient, logger, settings)

	var parser handlers.TokenParser
	if cfg.Auth.Enabled {
		parser = handlers.NewCasdoorParser(cfg.Auth)
	} else {
		logger.Warn("Authentication disabled, trusting X-User-ID header")
	}

	if cfg.Server.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	handlerLogger := utils.NewSlogLogger(logger)
	router := gin.New()
	router.Use(gin.Recovery(), utils.LoggerMiddleware(handlerLogger))
	handlers.NewHandlerManager(serviceManager, repo, parser, handlerLogger).SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "addr", server.Addr, "environment", cfg.Server.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}
	serviceManager.Session().Shutdown(shutdownCtx)

	logger.Info("Server stopped")
	return nil
}
