package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bayline/internal/api"
	"bayline/internal/calendar"
	"bayline/internal/catalog"
	"bayline/internal/config"
	"bayline/internal/database"
	"bayline/internal/domain"
	"bayline/internal/events"
	"bayline/internal/logging"
	"bayline/internal/metrics"
	"bayline/internal/models"
	"bayline/internal/repository"
	"bayline/internal/schedule"
	"bayline/internal/service"
	"bayline/internal/sheets"
	"bayline/internal/tools"
	"bayline/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	redisClient := initRedis(cfg, &logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	rules, err := buildRules(cfg)
	if err != nil {
		return err
	}

	store := initCalendarStore(ctx, cfg, &logger)
	sheetsClient := initSheets(ctx, cfg, &logger)

	logWorker := worker.NewLogWorker(db, sheetsClient, redisClient, worker.RetryPolicy{}, logging.Component(&logger, "log-worker"))
	go logWorker.Start(ctx)

	cache := buildProjectionCache(redisClient, &logger)
	bus := events.NewBus()
	subscribeAudit(bus, logging.Component(&logger, "events"))
	cat := catalog.New(cfg.Shop.Services)

	svcLogger := logging.Component(&logger, "booking-service")
	svc := service.NewBookingService(
		store,
		logWorker,
		cache,
		bus,
		cat,
		rules,
		cfg.Shop.Bays,
		&svcLogger,
	)

	apiLogger := logging.Component(&logger, "http-api")
	adapter := tools.NewAdapter(svc, &apiLogger)
	httpServer := api.NewHTTPServer(cfg.API, svc, adapter, cat, cfg.Shop.Bays, rules, cfg.Exports, &apiLogger)

	startMetrics(ctx, cfg, &logger)

	return serveUntilSignal(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

// subscribeAudit mirrors domain events into the log so staff can trace what
// the voice agent did during a call.
func subscribeAudit(bus *events.Bus, logger zerolog.Logger) {
	for _, eventType := range []string{events.EventBookingConfirmed, events.EventBookingDenied, events.EventCallLogged} {
		bus.Subscribe(eventType, func(e *events.Event) error {
			logger.Info().Str("event", eventType).RawJSON("payload", e.Payload).Msg("domain event")
			return nil
		})
	}
}

func buildRules(cfg *config.Config) (schedule.Rules, error) {
	closedDay, err := config.ParseWeekday(cfg.Shop.ClosedDay)
	if err != nil {
		return schedule.Rules{}, err
	}
	return schedule.Rules{
		OpenHour:  cfg.Shop.OpenHour,
		CloseHour: cfg.Shop.CloseHour,
		ClosedDay: closedDay,
		Location:  schedule.Location(cfg.Shop.Timezone),
	}, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

// initCalendarStore wires the Google Calendar adapter when credentials and
// per-bay calendar IDs are configured, else an in-process store so local
// runs work without Google access.
func initCalendarStore(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) domain.CalendarStore {
	if cfg.Google.CredentialsFile != "" && baysHaveCalendars(cfg.Shop.Bays) {
		store, err := calendar.NewGoogleStore(ctx, cfg.Google.CredentialsFile, cfg.Shop.Bays, cfg.Shop.Timezone)
		if err == nil {
			logger.Info().Msg("google calendar connected")
			return store
		}
		logger.Warn().Err(err).Msg("google calendar init failed, using in-memory store")
	} else {
		logger.Warn().Msg("google calendar not configured, using in-memory store")
	}
	return calendar.NewMemoryStore(cfg.Shop.Bays)
}

func baysHaveCalendars(bays []models.Bay) bool {
	for _, b := range bays {
		if b.CalendarID == "" {
			return false
		}
	}
	return len(bays) > 0
}

func initSheets(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) domain.SheetAppender {
	if cfg.Google.CredentialsFile == "" || cfg.Google.LogSpreadsheetID == "" {
		return nil
	}

	client, err := sheets.NewClient(ctx, cfg.Google.CredentialsFile, cfg.Google.LogSpreadsheetID, cfg.Google.LogSheetRange)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}

	logger.Info().Msg("google sheets connected")
	return client
}

func buildProjectionCache(redisClient *redis.Client, logger *zerolog.Logger) domain.ProjectionCache {
	ttl := models.ProjectionCacheTTL * time.Second
	memCache := repository.NewMemoryProjectionCache(ttl)
	if redisClient == nil {
		return memCache
	}
	return repository.NewFailoverProjectionCache(
		repository.NewRedisProjectionCache(redisClient, ttl),
		memCache,
		logger,
	)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func serveUntilSignal(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
