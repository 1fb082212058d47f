package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medtrack/console/internal/config"
	"github.com/medtrack/console/internal/domain/orgunit"
	"github.com/medtrack/console/internal/domain/provision"
	"github.com/medtrack/console/internal/platform/auth"
	"github.com/medtrack/console/internal/platform/backend"
	"github.com/medtrack/console/internal/platform/middleware"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "console-server",
		Short: "Hospital admin console API",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(policyCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the console API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func policyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "policy",
		Short: "Print the role capability table",
		RunE: func(cmd *cobra.Command, args []string) error {
			policy := auth.DefaultPolicy()
			for _, role := range policy.Roles() {
				fmt.Printf("%s:\n", role)
				for _, cap := range policy.Capabilities([]string{role}) {
					fmt.Printf("  %s\n", cap)
				}
			}
			return nil
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	// Upstream hospital API
	api := backend.New(cfg.BackendURL, cfg.BackendToken, cfg.BackendTimeout, logger)

	// Core components
	directory := orgunit.NewDirectory(api)
	disclosure := provision.NewDisclosure()
	provisionSvc := provision.NewService(api, directory, logger)
	policy := auth.DefaultPolicy()

	// Warm the inventory cache; a failure here is not fatal, handlers retry
	// lazily and report the outage per request.
	warmCtx, warmCancel := context.WithTimeout(context.Background(), cfg.BackendTimeout)
	if err := directory.Load(warmCtx); err != nil {
		logger.Warn().Err(err).Msg("initial inventory load failed")
	}
	warmCancel()

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID"},
	}))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})

	// API group behind session auth
	apiGroup := e.Group("/api")
	if cfg.IsDev() {
		apiGroup.Use(auth.DevSessionMiddleware())
	} else {
		apiGroup.Use(auth.SessionMiddleware(auth.SessionConfig{
			Issuer:     cfg.SessionIssuer,
			SigningKey: []byte(cfg.SessionSigningKey),
		}))
	}

	apiGroup.GET("/session/capabilities", auth.CapabilitiesHandler(policy))

	orgunit.NewHandler(directory, logger).RegisterRoutes(apiGroup, policy)
	provision.NewHandler(provisionSvc, api, disclosure, logger).RegisterRoutes(apiGroup, policy)

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}
