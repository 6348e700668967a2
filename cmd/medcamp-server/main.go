package main

import (
	"context"
	"errors"
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

	"github.com/medcamp/medcamp/internal/config"
	"github.com/medcamp/medcamp/internal/domain/assistant"
	"github.com/medcamp/medcamp/internal/domain/camp"
	"github.com/medcamp/medcamp/internal/domain/connection"
	"github.com/medcamp/medcamp/internal/domain/feedback"
	"github.com/medcamp/medcamp/internal/domain/followup"
	"github.com/medcamp/medcamp/internal/domain/patient"
	"github.com/medcamp/medcamp/internal/domain/review"
	"github.com/medcamp/medcamp/internal/domain/user"
	"github.com/medcamp/medcamp/internal/heatmap"
	"github.com/medcamp/medcamp/internal/platform/auth"
	"github.com/medcamp/medcamp/internal/platform/db"
	"github.com/medcamp/medcamp/internal/platform/metrics"
	"github.com/medcamp/medcamp/internal/platform/middleware"
	"github.com/medcamp/medcamp/internal/platform/mlmodel"
	"github.com/medcamp/medcamp/internal/platform/ws"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "medcamp-server",
		Short: "GoMedCamp coordination backend",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the GoMedCamp API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			count, err := db.NewMigrator(pool, dir).Up(ctx)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, _ := cmd.Flags().GetString("dir")

			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, dir).Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.Drifted {
						status = "drifted"
					}
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("dir", "./migrations", "Path to migrations directory")
	cmd.AddCommand(statusCmd)

	return cmd
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
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil && lvl != zerolog.NoLevel {
		zerolog.SetGlobalLevel(lvl)
	}

	// Database
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	logger.Info().Msg("connected to database")

	// Schema is ensured on boot so a fresh database serves immediately.
	if n, err := db.NewMigrator(pool, "./migrations").Up(ctx); err != nil {
		logger.Fatal().Err(err).Msg("database migration failed")
	} else if n > 0 {
		logger.Info().Int("applied", n).Msg("database migrations applied")
	}

	if cfg.MetricsEnabled {
		metrics.Init(pool)
	}

	// Language table and Hugging Face models. Warmup probes run in the
	// background; a failed probe degrades chat and translation instead of
	// blocking startup.
	languages := loadLanguages(cfg.LanguageMapFile, logger)
	hf := mlmodel.NewHFClient(mlmodel.HFConfig{
		BaseURL:            cfg.HFAPIURL,
		Token:              cfg.HFAPIToken,
		ChatbotModelID:     cfg.HFChatbotModel,
		TranslationModelID: cfg.HFTranslationModel,
	}, languages, logger)
	warmCtx, warmCancel := context.WithCancel(ctx)
	defer warmCancel()
	go hf.Warmup(warmCtx)

	// Heatmap sources load lazily per request; startup only reports where
	// they are expected.
	logger.Info().Str("dir", cfg.BaseJSONDir).Msg("expecting indicator JSONs")
	if _, err := os.Stat(cfg.BaseJSONDir); err != nil {
		logger.Warn().Str("dir", cfg.BaseJSONDir).Msg("indicator JSON directory not found")
	}
	logger.Info().Str("source", cfg.CSVPointsPath).Msg("geographic points CSV source")
	indicators := heatmap.NewIndicatorLoader(cfg.BaseJSONDir, nil, logger)
	geography := heatmap.NewGeoLoader(cfg.CSVPointsPath, heatmap.ColumnOverrides{
		State:     cfg.CSVStateCol,
		District:  cfg.CSVDistrictCol,
		Latitude:  cfg.CSVLatCol,
		Longitude: cfg.CSVLonCol,
	}, nil, logger)

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	// Errors render as {"error": "..."}, the envelope every client of this
	// API expects.
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		code := http.StatusInternalServerError
		message := "Internal server error"
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
			message = fmt.Sprint(he.Message)
		}
		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, map[string]string{"error": message})
	}

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-ID", "X-User-Id"},
	}))
	e.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	e.Use(middleware.BodyLimit("1M"))
	e.Use(middleware.SanitizeWithLogger(logger))
	// A chatbot turn can chain up to three model calls, each with its own
	// 30s client timeout, so the request deadline sits well above that.
	// Report rendering and the hosted models need more headroom than plain
	// database reads, especially around model cold starts.
	e.Use(middleware.RequestTimeoutWithOverrides(2*time.Minute, map[string]time.Duration{
		"/api/patient/chatbot":  5 * time.Minute,
		"/api/translate":        5 * time.Minute,
		"/api/organizer/camps/": 4 * time.Minute,
	}))
	e.Use(auth.Middleware(auth.Config{
		SigningKey:          []byte(cfg.EffectiveJWTSecret()),
		AllowHeaderIdentity: cfg.IsDev(),
	}))
	if cfg.MetricsEnabled {
		e.Use(metrics.Middleware())
		e.GET("/metrics", metrics.Handler())
	}

	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "GoMedCamp Backend is running!")
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"version": "0.1.0",
		})
	})
	e.GET("/health/db", db.HealthHandler(pool, "medcamp"))

	// API group
	api := e.Group("/api")

	rateCfg := middleware.RateLimitConfig{
		RequestsPerSecond: cfg.RateLimitRPS,
		BurstSize:         cfg.RateLimitBurst,
	}
	if rateCfg.RequestsPerSecond <= 0 {
		rateCfg = middleware.DefaultRateLimitConfig()
	}
	api.Use(middleware.RateLimit(rateCfg))

	// Shared infrastructure
	hub := ws.NewHub(logger)
	runTx := db.PoolRunner(pool)

	// Repositories
	userRepo := user.NewRepoPG(pool)
	campRepo := camp.NewRepoPG(pool)
	patientRepo := patient.NewRepoPG(pool)
	connRepo := connection.NewRepoPG(pool)
	feedbackRepo := feedback.NewRepoPG(pool)
	reviewRepo := review.NewRepoPG(pool)
	followupRepo := followup.NewRepoPG(pool)
	assistantRepo := assistant.NewRepoPG(pool)

	// Services
	userSvc := user.NewService(userRepo, patientRepo, runTx, []byte(cfg.EffectiveJWTSecret()), logger)
	campSvc := camp.NewService(campRepo, userRepo, patientRepo, runTx, logger)
	patientSvc := patient.NewService(patientRepo, userRepo, campSvc, logger)
	connSvc := connection.NewService(connRepo, userRepo, campSvc, hub, logger)
	feedbackSvc := feedback.NewService(feedbackRepo, logger)
	reviewSvc := review.NewService(reviewRepo, userRepo, campSvc, logger)
	followupSvc := followup.NewService(followupRepo, userRepo, campSvc, logger)
	assistantSvc := assistant.NewService(assistantRepo, hf, hf, languages, logger)
	heatSvc := heatmap.NewService(indicators, geography, logger)

	// Handlers
	user.NewHandler(userSvc).RegisterRoutes(api)
	camp.NewHandler(campSvc).RegisterRoutes(api)
	patient.NewHandler(patientSvc).RegisterRoutes(api)
	connection.NewHandler(connSvc).RegisterRoutes(api)
	feedback.NewHandler(feedbackSvc).RegisterRoutes(api)
	review.NewHandler(reviewSvc).RegisterRoutes(api)
	followup.NewHandler(followupSvc).RegisterRoutes(api)
	assistant.NewHandler(assistantSvc).RegisterRoutes(api)
	heatmap.NewHandler(heatSvc).RegisterRoutes(api)
	ws.NewHandler(hub).RegisterRoutes(api)

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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// loadLanguages reads the optional YAML language override file. A broken
// file falls back to the built-in table rather than blocking startup.
func loadLanguages(path string, logger zerolog.Logger) *mlmodel.LanguageMap {
	languages, err := mlmodel.LoadLanguageMap(path)
	if err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("language map file not usable, using built-in table")
		return mlmodel.DefaultLanguageMap()
	}
	return languages
}
