package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"messenger/internal/api"
	"messenger/internal/auth"
	"messenger/internal/config"
	"messenger/internal/database"
	"messenger/internal/domain"
	"messenger/internal/events"
	"messenger/internal/export"
	"messenger/internal/google"
	"messenger/internal/logging"
	"messenger/internal/mail"
	"messenger/internal/metrics"
	"messenger/internal/models"
	"messenger/internal/repository"
	"messenger/internal/service"
	"messenger/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, baseLogger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}
	logger := logging.Component(baseLogger, "api-main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := initDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := initRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	throttle := initThrottle(redisClient, baseLogger)

	mailer, err := mail.New(cfg.Mail)
	if err != nil {
		return fmt.Errorf("init mailer: %w", err)
	}
	if !cfg.Mail.Enabled() {
		logger.Warn().Msg("mail is not configured, forgot-password requests will fail")
	}

	eventBus := events.NewEventBus()
	subscribeMetrics(eventBus, logger)
	if err := initTelegram(ctx, cfg, eventBus, baseLogger); err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without notifications")
	}

	var sheets domain.SheetsWriter
	if s := initGoogleSheets(ctx, cfg, logger); s != nil {
		sheets = s
	}

	renderer := export.NewRenderer(cfg.Exports, logging.Component(baseLogger, "export"))

	backup := database.NewBackupService(db, cfg.Backup, logging.Component(baseLogger, "backup"))
	go backup.Start(ctx)

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	serviceLogger := logging.Component(baseLogger, "service")
	deps := api.Deps{
		Auth: service.NewAuthService(db, tokens, throttle, mailer, eventBus, service.AuthSettings{
			MinPasswordLength: cfg.Auth.MinPasswordLength,
			ThrottleLimit:     cfg.Throttle.LoginLimit,
			ThrottleWindow:    cfg.Throttle.Window,
		}, serviceLogger),
		Users:     service.NewUserService(db, eventBus, cfg.Auth.MinPasswordLength, serviceLogger),
		Companies: service.NewCompanyService(db, serviceLogger),
		Bookings:  service.NewBookingService(db, eventBus, cfg.Booking.DefaultMessengerName, serviceLogger),
		Reports:   service.NewReportService(db, sheets, serviceLogger),
		Stats:     service.NewStatsService(db),
		Renderer:  renderer,
	}

	httpServer := api.NewHTTPServer(cfg.API, deps, logging.Component(baseLogger, "http"))

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		grpcServer, err = api.NewGRPCServer(cfg.API, logging.Component(baseLogger, "grpc"))
		if err != nil {
			logger.Error().Err(err).Msg("create grpc server")
			return err
		}
	}

	startMetrics(ctx, cfg, logger)

	return startServers(ctx, grpcServer, httpServer, cfg, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, logger, closer, nil
}

// seedFile is the optional fixture with the initial admin and companies.
type seedFile struct {
	Admin struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		FullName string `yaml:"full_name"`
	} `yaml:"admin"`
	Companies []string `yaml:"companies"`
}

func loadSeed(logger *zerolog.Logger) (*seedFile, error) {
	seed := &seedFile{Companies: models.DefaultCompanies}
	seed.Admin.Username = models.DefaultAdminUsername
	seed.Admin.Password = models.DefaultAdminPassword
	seed.Admin.FullName = models.DefaultAdminFullName

	seedPath := os.Getenv("SEED_PATH")
	if seedPath == "" {
		seedPath = "configs/seed.yaml"
	}
	data, err := os.ReadFile(seedPath)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info().Str("seed_path", seedPath).Msg("no seed file, using built-in defaults")
		return seed, nil
	}
	if err != nil {
		logger.Error().Err(err).Str("seed_path", seedPath).Msg("read seed")
		return nil, err
	}
	if err := yaml.Unmarshal(data, seed); err != nil {
		logger.Error().Err(err).Str("seed_path", seedPath).Msg("parse seed")
		return nil, err
	}
	return seed, nil
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}
	if !cfg.Database.SeedDefaults {
		return db, nil
	}

	seed, err := loadSeed(logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	hash, err := auth.HashPassword(seed.Admin.Password)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	if _, _, err := db.Seed(ctx, database.SeedData{
		AdminUsername:     seed.Admin.Username,
		AdminPasswordHash: hash,
		AdminFullName:     seed.Admin.FullName,
		Companies:         seed.Companies,
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	client := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, client); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, throttling will use memory until it recovers")
		return client
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return client
}

func initThrottle(client *redis.Client, baseLogger *zerolog.Logger) domain.ThrottleStore {
	memory := repository.NewMemoryThrottleStore()
	if client == nil {
		return memory
	}
	return repository.NewFailoverThrottleStore(
		repository.NewRedisThrottleStore(client),
		memory,
		logging.Component(baseLogger, "throttle"),
	)
}

func subscribeMetrics(bus *events.EventBus, logger *zerolog.Logger) {
	bus.Subscribe(events.EventBookingCreated, func(*events.Event) error {
		metrics.IncBookingCreated()
		return nil
	})
	bus.Subscribe(events.EventBookingStatusChanged, func(event *events.Event) error {
		var p events.BookingEventPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		metrics.IncStatusChange(p.Status)
		return nil
	})
	bus.Subscribe(events.EventPasswordReset, func(event *events.Event) error {
		var p events.PasswordResetPayload
		if err := event.Decode(&p); err != nil {
			return err
		}
		logger.Info().Int64("user_id", p.UserID).Str("source", p.Source).Int64("actor_id", p.ActorID).Msg("password reset")
		return nil
	})
}

func initTelegram(ctx context.Context, cfg *config.Config, bus *events.EventBus, baseLogger *zerolog.Logger) error {
	if !cfg.Telegram.Enabled {
		return nil
	}
	if len(cfg.Telegram.ChatIDs) == 0 {
		return errors.New("telegram.chat_ids is empty")
	}

	bot, err := service.NewTelegramBot(cfg.Telegram.BotToken, cfg.Telegram.Debug)
	if err != nil {
		return err
	}

	notifier := worker.NewNotificationWorker(
		service.NewTelegramService(bot),
		cfg.Telegram.ChatIDs,
		cfg.Telegram.QueueSize,
		worker.RetryPolicy{BackoffFactor: 2},
		logging.Component(baseLogger, "telegram"),
	)
	go notifier.Start(ctx)

	bus.Subscribe(events.EventBookingCreated, notifier.HandleBookingCreated)
	bus.Subscribe(events.EventBookingStatusChanged, notifier.HandleStatusChanged)
	return nil
}

func initGoogleSheets(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *google.ReportSheetsService {
	if !cfg.Google.Enabled() {
		return nil
	}

	sheets, err := google.NewReportSheetsService(ctx,
		cfg.Google.CredentialsFile,
		cfg.Google.ReportSpreadsheetID,
		cfg.Google.ReportSheetName,
	)
	if err != nil {
		logger.Warn().Err(err).Msg("google sheets init failed, continuing without sheets")
		return nil
	}
	if err := sheets.TestConnection(ctx); err != nil {
		logger.Warn().Err(err).Msg("google sheets connection test failed")
	}

	logger.Info().Str("sheet", cfg.Google.ReportSheetName).Msg("google sheets connected")
	return sheets
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	errCh := make(chan error, 1)

	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				logger.Error().Err(err).Msg("grpc server stopped")
			}
		}()
	}

	go func() {
		if err := httpServer.Start(); err != nil {
			errCh <- err
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Bool("grpc", grpcServer != nil).Msg("API server started")

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case runErr = <-errCh:
		logger.Error().Err(runErr).Msg("http server stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("API server stopped")
	return runErr
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	logger.Info().Int("port", port).Msg("metrics server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
