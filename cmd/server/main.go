// Command server runs the debt reminder backend.
//
// It loads configuration from the environment (.env supported in dev), opens
// the SQLite store, wires the Telegram transport and the Gemini generator and
// classifier when configured, mounts the HTTP API, and serves until SIGINT or
// SIGTERM with a graceful drain.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/tbourn/go-debt-backend/docs"
	"github.com/tbourn/go-debt-backend/internal/config"
	httpapi "github.com/tbourn/go-debt-backend/internal/http"
	"github.com/tbourn/go-debt-backend/internal/llm"
	"github.com/tbourn/go-debt-backend/internal/notify"
	"github.com/tbourn/go-debt-backend/internal/observability"
	"github.com/tbourn/go-debt-backend/internal/repo"
	"github.com/tbourn/go-debt-backend/internal/services"
	"github.com/tbourn/go-debt-backend/internal/sysutil"
)

// version is stamped at build time via -ldflags "-X main.version=...".
var version = "dev"

// @title        Debt Reminder Backend API
// @version      1.0
// @description  Outbound debt reminders over chat with reply correlation, engagement metrics, and sentiment enrichment.
// @BasePath     /api/v1
func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.MustLoad()

	// Logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.LogPretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	sysutil.SetLogLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Tracing
	shutdownOTel, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("otel setup failed")
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	// Storage
	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database failed")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate failed")
	}

	// Outbound chat transport (optional)
	var transport services.Transport
	if cfg.Telegram.BotToken != "" {
		var opts []notify.Option
		if cfg.Telegram.BaseURL != "" {
			opts = append(opts, notify.WithBaseURL(cfg.Telegram.BaseURL))
		}
		transport = notify.NewTelegramClient(cfg.Telegram.BotToken, opts...)
		log.Info().Msg("telegram transport enabled")
	} else {
		log.Warn().Msg("TELEGRAM_BOT_TOKEN not set; reminder delivery disabled")
	}

	// LLM generator and classifier (optional)
	var (
		generator  services.Generator
		classifier services.Classifier
	)
	if cfg.Gemini.Enabled {
		g, err := llm.NewGemini(ctx, cfg.Gemini.Model)
		if err != nil {
			log.Fatal().Err(err).Msg("gemini init failed")
		}
		generator, classifier = g, g
		log.Info().Str("model", cfg.Gemini.Model).Msg("gemini enabled")
	} else {
		log.Info().Msg("gemini disabled; using template reminders, enrichment unavailable")
	}

	// HTTP
	gin.SetMode(cfg.GinMode)
	engine := gin.New()
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	httpapi.RegisterRoutes(engine, db, transport, generator, classifier, cfg)

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
