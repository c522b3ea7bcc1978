package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentity"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/fomomon/admin/internal/application"
	"github.com/fomomon/admin/internal/config"
	"github.com/fomomon/admin/internal/infrastructure/awsiam"
	"github.com/fomomon/admin/internal/infrastructure/awss3"
	"github.com/fomomon/admin/internal/infrastructure/cognito"
	"github.com/fomomon/admin/internal/infrastructure/postgres"
	"github.com/fomomon/admin/internal/kafka"
	transporthttp "github.com/fomomon/admin/internal/transport/http"
)

func main() {
	// ── Logging ──────────────────────────────────────────────────────────────
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// ── Config ───────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if cfg.Server.Env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Info().
		Str("env", cfg.Server.Env).
		Str("app", cfg.App.Name).
		Str("type", cfg.App.Type).
		Str("region", cfg.App.Region).
		Str("bucket", cfg.App.Bucket).
		Msg("starting fomomon-admin")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Provider clients ─────────────────────────────────────────────────────
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.App.Region))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load AWS configuration")
	}

	providers := application.Providers{
		Directory:  cognito.NewDirectory(cognitoidentityprovider.NewFromConfig(awsCfg)),
		Federation: cognito.NewFederation(cognitoidentity.NewFromConfig(awsCfg)),
		Roles:      awsiam.NewRoles(iam.NewFromConfig(awsCfg)),
		Store:      awss3.NewStore(s3.NewFromConfig(awsCfg), cfg.App.Bucket),
	}

	// ── Audit trail (optional) ───────────────────────────────────────────────
	var audit application.AuditLog = application.NopAudit{}
	if cfg.Database.URL != "" {
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to postgres")
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			log.Fatal().Err(err).Msg("postgres ping failed")
		}
		audit, err = postgres.New(ctx, pool)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to prepare audit schema")
		}
		log.Info().Msg("postgres audit trail enabled")
	} else {
		log.Warn().Msg("DATABASE_URL not set — provisioning audit trail disabled")
	}

	// ── Lifecycle events (optional) ──────────────────────────────────────────
	var events application.Publisher = application.NopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create kafka producer")
		}
		defer producer.Close()
		events = producer
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).
			Msg("kafka event producer started")
	}

	// ── Application Service ───────────────────────────────────────────────────
	svc := application.NewService(providers, application.ServiceConfig{
		App:           cfg.App.Name,
		Type:          cfg.App.Type,
		Region:        cfg.App.Region,
		Bucket:        cfg.App.Bucket,
		AutoProvision: cfg.App.AutoProvision,
		WriteAccess:   cfg.App.WriteAccess,
		Audit:         audit,
		Events:        events,
	})

	// ── HTTP Server ───────────────────────────────────────────────────────────
	handler := transporthttp.NewHandler(svc)
	router := transporthttp.NewRouter(handler, cfg.Auth.AdminSecret)

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := router.Start(":" + cfg.Server.Port); err != nil {
			log.Info().Msg("HTTP server stopped")
		}
	}()

	// ── Graceful Shutdown ─────────────────────────────────────────────────────
	<-ctx.Done()
	log.Info().Msg("shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := router.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}

	log.Info().Msg("fomomon-admin stopped")
}
