package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	_ "golang.org/x/crypto/x509roots/fallback"

	"github.com/steplings/progression/internal/adapters/cache"
	"github.com/steplings/progression/internal/adapters/database"
	"github.com/steplings/progression/internal/adapters/progressrepository"
	"github.com/steplings/progression/internal/app"
	"github.com/steplings/progression/internal/config"
	"github.com/steplings/progression/internal/logging"
	"github.com/steplings/progression/internal/ports"
	"github.com/steplings/progression/internal/reporting"
	"github.com/steplings/progression/internal/telemetry"
)

// TODO: Put in config
const PROD_DOMAIN_SUFFIX = "steplings.app"
const STAGING_DOMAIN_SUFFIX = "steplings-web.pages.dev"

const serviceName = "steplings-progression"

func main() {
	ctx := context.Background()
	instanceID := uuid.New().String()

	fail := func(logger *slog.Logger, msg string, args ...any) {
		logger.Error(msg, args...)
		os.Exit(1)
	}

	conf, err := config.ConfigFromEnv()
	if err != nil {
		fail(slog.New(slog.NewJSONHandler(os.Stdout, nil)), "Failed to load config", "error", err.Error())
	}

	logger := slog.New(
		logging.NewCloudTraceHandler(slog.NewJSONHandler(os.Stdout, nil), conf.GCPProjectID()),
	).With("instanceID", instanceID)
	logger.Info("Loaded config", "config", conf.NonSensitiveString())

	if conf.OTelExporterEnabled() {
		shutdown, err := telemetry.SetupOTelSDK(ctx, serviceName)
		if err != nil {
			fail(logger, "Failed to set up OpenTelemetry", "error", err.Error())
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				logger.Error("Failed to shut down OpenTelemetry", "error", err.Error())
			}
		}()
		logger.Info("Initialized OpenTelemetry")
	}

	sentryMiddleware, flush, err := reporting.NewSentryMiddlewareOrMock(conf)
	if err != nil {
		fail(logger, "Failed to initialize Sentry", "error", err.Error())
	}
	defer flush()
	logger.Info("Initialized Sentry middleware")

	logger.Info("Initializing database connection")
	db, err := database.NewCloudsqlPostgresDatabase(conf)
	if err != nil {
		fail(logger, "Failed to initialize database connection", "error", err.Error())
	}
	logger.Info("Initialized database connection")

	repositorySchemaName := database.GetSchemaName(!conf.IsProduction())

	err = database.NewDatabaseMigrator(db, logger.With("component", "migrator")).Migrate(ctx, repositorySchemaName)
	if err != nil {
		fail(logger, "Failed to migrate database", "error", err.Error())
	}

	progressRepo := progressrepository.NewPostgres(db, repositorySchemaName)
	logger.Info("Initialized ProgressRepository")

	// Retried syncs usually arrive within a few seconds of each other
	stepSyncCache := cache.NewTTLCache[app.StepSyncResult](10 * time.Minute)
	defer stepSyncCache.Stop()

	allowedOrigins, err := ports.NewDomainSuffixes(PROD_DOMAIN_SUFFIX, STAGING_DOMAIN_SUFFIX)
	if err != nil {
		fail(logger, "Failed to initialize allowed origins", "error", err.Error())
	}

	registerPlayer := app.BuildRegisterPlayer(progressRepo, time.Now)
	getProgression := app.BuildGetProgression(progressRepo, time.Now)
	syncSteps := app.BuildSyncSteps(stepSyncCache, progressRepo, time.Now)
	switchMode := app.BuildSwitchMode(progressRepo, time.Now)
	claimMilestoneReward := app.BuildClaimMilestoneReward(progressRepo, time.Now)
	claimDailyBonus := app.BuildClaimDailyBonus(progressRepo, time.Now)

	mux := http.NewServeMux()

	mux.HandleFunc(
		"OPTIONS /v1/milestones",
		ports.BuildCORSHandler(allowedOrigins),
	)
	mux.HandleFunc(
		"GET /v1/milestones",
		ports.MakeGetMilestonesHandler(allowedOrigins, logger, sentryMiddleware),
	)

	mux.HandleFunc(
		"OPTIONS /v1/players/{uuid}",
		ports.BuildCORSHandler(allowedOrigins),
	)
	mux.HandleFunc(
		"POST /v1/players/{uuid}",
		ports.MakeRegisterPlayerHandler(registerPlayer, allowedOrigins, logger, sentryMiddleware),
	)

	mux.HandleFunc(
		"OPTIONS /v1/players/{uuid}/progression",
		ports.BuildCORSHandler(allowedOrigins),
	)
	mux.HandleFunc(
		"GET /v1/players/{uuid}/progression",
		ports.MakeGetProgressionHandler(getProgression, allowedOrigins, logger, sentryMiddleware),
	)

	mux.HandleFunc(
		"OPTIONS /v1/players/{uuid}/steps",
		ports.BuildCORSHandler(allowedOrigins),
	)
	mux.HandleFunc(
		"POST /v1/players/{uuid}/steps",
		ports.MakeSyncStepsHandler(syncSteps, allowedOrigins, logger, sentryMiddleware),
	)

	mux.HandleFunc(
		"OPTIONS /v1/players/{uuid}/mode",
		ports.BuildCORSHandler(allowedOrigins),
	)
	mux.HandleFunc(
		"PUT /v1/players/{uuid}/mode",
		ports.MakeSwitchModeHandler(switchMode, allowedOrigins, logger, sentryMiddleware),
	)

	mux.HandleFunc(
		"OPTIONS /v1/players/{uuid}/milestones/{threshold}/claim",
		ports.BuildCORSHandler(allowedOrigins),
	)
	mux.HandleFunc(
		"POST /v1/players/{uuid}/milestones/{threshold}/claim",
		ports.MakeClaimMilestoneHandler(claimMilestoneReward, allowedOrigins, logger, sentryMiddleware),
	)

	mux.HandleFunc(
		"OPTIONS /v1/players/{uuid}/daily-bonus/claim",
		ports.BuildCORSHandler(allowedOrigins),
	)
	mux.HandleFunc(
		"POST /v1/players/{uuid}/daily-bonus/claim",
		ports.MakeClaimDailyBonusHandler(claimDailyBonus, allowedOrigins, logger, sentryMiddleware),
	)

	logger.Info("Init complete")
	err = http.ListenAndServe(fmt.Sprintf(":%s", conf.Port()), otelhttp.NewHandler(mux, serviceName))
	if errors.Is(err, http.ErrServerClosed) {
		logger.Info("Server shutdown")
	} else {
		fail(logger, "Server error", "error", err.Error())
	}
}
