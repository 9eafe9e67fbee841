package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gartstein/contributions/internal/contributions/auth"
	"github.com/gartstein/contributions/internal/contributions/cache"
	"github.com/gartstein/contributions/internal/contributions/config"
	"github.com/gartstein/contributions/internal/contributions/controller"
	"github.com/gartstein/contributions/internal/contributions/db"
	"github.com/gartstein/contributions/internal/contributions/events"
	"github.com/gartstein/contributions/internal/contributions/handlers"
	"github.com/gartstein/contributions/internal/contributions/models"
	"github.com/gartstein/contributions/internal/contributions/seed"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const healthInterval = 15 * time.Second

func main() {
	logger := initLogger()
	defer func(logger *zap.Logger) {
		_ = logger.Sync()
	}(logger)

	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	repo, err := db.NewRepository(initDatabase(cfg), logger)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer func() {
		if err := repo.Close(); err != nil {
			logger.Error("failed to close database", zap.Error(err))
		}
	}()

	var producer controller.EventProducer = events.NopProducer{}
	if len(cfg.KafkaBrokers) > 0 {
		p, err := events.NewProducer(cfg.KafkaBrokers, logger, cfg.Topic)
		if err != nil {
			logger.Fatal("failed to initialize Kafka producer", zap.Error(err))
		}
		defer p.Close()
		producer = p
	} else {
		logger.Warn("no Kafka brokers configured, change events are discarded")
	}

	var opts []controller.Option
	if cfg.ValkeyAddr != "" {
		c, err := cache.NewValkey(cfg.ValkeyAddr, logger)
		if err != nil {
			logger.Fatal("failed to initialize cache", zap.Error(err))
		}
		defer c.Close()
		opts = append(opts, controller.WithCache(c, cfg.CacheTTL))
	}

	svc := controller.NewContributionService(repo, producer, logger, opts...)

	if err := applySeeds(context.Background(), svc, cfg, logger); err != nil {
		logger.Fatal("failed to seed reference data", zap.Error(err))
	}

	handler := handlers.NewContributionHandler(svc, logger)

	authInterceptor := auth.NewAuthInterceptor(cfg.JWTSecret, handlers.ProtectedMethods()...)
	server := handlers.NewServer(cfg.GRPCPort, cfg.HTTPPort, logger, grpc.UnaryInterceptor(authInterceptor.Unary()))
	server.RegisterGRPCHandler(handler)
	if err := server.RegisterHTTPGateway(handler, repo, cfg.JWTSecret); err != nil {
		logger.Fatal("Failed to register HTTP gateway", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go server.WatchHealth(ctx, repo, healthInterval)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	waitForShutdown(server, errCh, logger)
}

// initLogger initializes a Zap production logger.
func initLogger() *zap.Logger {
	logger, _ := zap.NewProduction()
	return logger
}

// initDatabase maps the service configuration to the repository configuration.
func initDatabase(cfg *config.Config) *db.Config {
	return &db.Config{
		Driver:            cfg.DBDriver,
		Host:              cfg.DBHost,
		Port:              cfg.DBPort,
		User:              cfg.DBUser,
		Password:          cfg.DBPassword,
		DBName:            cfg.DBName,
		SSLMode:           cfg.DBSSLMode,
		Path:              cfg.DBPath,
		ConvenioReference: models.ReferenceMode(cfg.ConvenioReference),
	}
}

// applySeeds loads the built-in social-charge rates without touching
// existing rows, then the configured seed file, which overwrites.
func applySeeds(ctx context.Context, svc *controller.ContributionService, cfg *config.Config, logger *zap.Logger) error {
	if _, err := seed.Apply(ctx, svc, seed.Defaults(), false, logger); err != nil {
		return err
	}
	if cfg.SeedFile == "" {
		return nil
	}

	f, err := os.Open(cfg.SeedFile)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := seed.Parse(f)
	if err != nil {
		return err
	}
	_, err = seed.Apply(ctx, svc, doc, true, logger)
	return err
}

// waitForShutdown blocks until an interrupt, SIGTERM or a server error,
// then shuts down servers.
func waitForShutdown(server *handlers.Server, errCh <-chan error, logger *zap.Logger) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case <-stop:
	case err := <-errCh:
		if err != nil {
			logger.Error("Server failed", zap.Error(err))
		}
	}

	server.Stop()
	logger.Info("Servers stopped properly")
}
