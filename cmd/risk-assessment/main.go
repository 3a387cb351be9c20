package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/KulbirJ/compliance-platform-sub000/config"
	deliveryhttp "github.com/KulbirJ/compliance-platform-sub000/delivery/http"
	"github.com/KulbirJ/compliance-platform-sub000/domain/entity"
	"github.com/KulbirJ/compliance-platform-sub000/domain/service"
	"github.com/KulbirJ/compliance-platform-sub000/infrastructure/cache"
	"github.com/KulbirJ/compliance-platform-sub000/infrastructure/database"
	"github.com/KulbirJ/compliance-platform-sub000/infrastructure/messaging"
	"github.com/KulbirJ/compliance-platform-sub000/infrastructure/reporting"
	"github.com/KulbirJ/compliance-platform-sub000/pkg/logging"
	"github.com/KulbirJ/compliance-platform-sub000/pkg/metrics"
	"github.com/KulbirJ/compliance-platform-sub000/usecase"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	cfg.Logging.ServiceName = cfg.Service.Name
	logger, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync() //nolint:errcheck

	if err := run(cfg, logger); err != nil {
		logger.Fatal("service failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	collector := metrics.NewCollector(cfg.Metrics.Namespace)

	assessments := database.NewPostgresAssessmentRepository(db, logger)
	threats := database.NewPostgresThreatRepository(db, logger)
	registers := database.NewPostgresRegisterRepository(db, logger)
	reports := database.NewPostgresReportRepository(db, logger)

	aggregator := service.NewStatisticsAggregator(logger, assessments, threats, registers).
		WithDueSoonWindow(cfg.Reporting.DueSoonWindow)

	defaults := service.RegisterDefaults{
		Likelihood: entity.Rating(cfg.Reporting.RegisterDefaultLikelihood),
		Impact:     entity.Rating(cfg.Reporting.RegisterDefaultImpact),
	}
	if !defaults.Likelihood.IsValid() || !defaults.Impact.IsValid() {
		defaults = service.DefaultRegisterDefaults()
	}
	lifecycle := service.NewRegisterLifecycle(logger, registers, defaults)
	threatService := service.NewThreatService(logger, threats)

	generator := reporting.NewGenerator(logger, aggregator, assessments, threats, registers, cfg.Service.Name).
		WithPageHeight(cfg.Reporting.PageHeight)

	var statsCache usecase.StatisticsCache
	if cfg.Cache.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.Addr,
			Password: cfg.Cache.Password,
			DB:       cfg.Cache.DB,
		})
		defer client.Close()
		statsCache = cache.NewRedisStatisticsCache(client, cfg.Cache.TTL)
	}

	var publisher usecase.EventPublisher
	if cfg.Kafka.Enabled {
		kp := messaging.NewKafkaPublisher(cfg.Kafka.Config, logger)
		defer kp.Close()
		publisher = kp
	}

	posture := usecase.NewPostureService(
		logger, assessments, reports, aggregator, lifecycle, threatService,
		generator, publisher, statsCache, collector)

	handlers := deliveryhttp.NewPostureHandlers(posture, logger)
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		metricsHandler = collector.Handler()
	}
	router := deliveryhttp.NewRouter(handlers, metricsHandler)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Service.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(ctx)
}
