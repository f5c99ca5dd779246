package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	reportapp "github.com/retaildesk/backend/internal/application/report"
	tradeapp "github.com/retaildesk/backend/internal/application/trade"
	"github.com/retaildesk/backend/internal/domain/report"
	"github.com/retaildesk/backend/internal/domain/trade"
	"github.com/retaildesk/backend/internal/infrastructure/cache"
	"github.com/retaildesk/backend/internal/infrastructure/config"
	"github.com/retaildesk/backend/internal/infrastructure/dataservice"
	"github.com/retaildesk/backend/internal/infrastructure/logger"
	"github.com/retaildesk/backend/internal/infrastructure/scheduler"
	"github.com/retaildesk/backend/internal/infrastructure/telemetry"
	"github.com/retaildesk/backend/internal/interfaces/http/handler"
	"github.com/retaildesk/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
		Version:    version,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting retail console",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", version),
		zap.String("data_service", cfg.DataService.BaseURL),
	)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	loc, err := cfg.Dashboard.Location()
	if err != nil {
		log.Fatal("Invalid dashboard timezone", zap.Error(err))
	}

	ctx := context.Background()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	orderMetrics, err := telemetry.NewOrderMetrics(telemetry.OrderMetricsConfig{
		Meter:  meterProvider.Meter("retail.orders"),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to register order metrics", zap.Error(err))
	}

	// Data service and cache
	dataClient := dataservice.NewClient(dataservice.Config{
		BaseURL:            cfg.DataService.BaseURL,
		Timeout:            cfg.DataService.Timeout,
		RetryCount:         cfg.DataService.RetryCount,
		RetryWait:          cfg.DataService.RetryWait,
		BreakerMaxFailures: cfg.DataService.BreakerMaxFailures,
		BreakerTimeout:     cfg.DataService.BreakerTimeout,
		Location:           loc,
	}, log)

	factoryOpts := []cache.StoreFactoryOption{cache.WithLogger(log)}
	if cfg.Redis.Enabled {
		factoryOpts = append(factoryOpts, cache.WithRedis(cache.RedisConfig{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}))
	}
	store, err := cache.NewStoreFactory(factoryOpts...).CreateStore()
	if err != nil {
		log.Fatal("Failed to create dashboard cache", zap.Error(err))
	}

	// Application services
	chartLang, err := language.Parse(cfg.Dashboard.ChartLang)
	if err != nil {
		log.Warn("Unknown chart language, using Uzbek",
			zap.String("chart_lang", cfg.Dashboard.ChartLang), zap.Error(err))
		chartLang = language.Uzbek
	}
	dashboardService := reportapp.NewDashboardService(dataClient, dataClient, dataClient, reportapp.DashboardConfig{
		Options: report.DashboardOptions{
			LowStockThreshold: cfg.Dashboard.LowStockThreshold,
			WeeklyBuckets:     cfg.Dashboard.WeeklyBuckets,
			MonthlyBuckets:    cfg.Dashboard.MonthlyBuckets,
			YearlyBuckets:     cfg.Dashboard.YearlyBuckets,
			TopProductsLimit:  cfg.Dashboard.TopProductsLimit,
		},
		Location: loc,
		CacheTTL: cfg.Dashboard.CacheTTL,
		Lang:     chartLang,
	})
	dashboardService.SetCache(store)
	dashboardService.SetMetrics(orderMetrics)

	orderService := tradeapp.NewSalesOrderService(dataClient, dataClient, dataClient, trade.NewLifecycle(nil))
	orderService.SetMetrics(orderMetrics)
	orderService.SetDashboardInvalidator(dashboardService)
	orderService.SetLocation(loc)

	refreshScheduler, err := scheduler.NewDashboardRefreshScheduler(scheduler.DashboardRefreshConfig{
		Schedule:   cfg.Dashboard.RefreshCron,
		JobTimeout: cfg.DataService.Timeout * 4,
		Location:   loc,
	}, dashboardService, log)
	if err != nil {
		log.Fatal("Failed to create dashboard refresh scheduler", zap.Error(err))
	}
	refreshScheduler.Start()

	// HTTP
	engine := router.NewEngine(router.EngineConfig{
		Logger:           log,
		ServiceName:      cfg.Telemetry.ServiceName,
		CORSAllowOrigins: cfg.HTTP.CORSAllowOrigins,
		MeterProvider:    meterProvider,
		MetricsEnabled:   cfg.Telemetry.MetricsEnabled,
	})
	router.Setup(engine, router.Handlers{
		Sales:   handler.NewSalesOrderHandler(orderService),
		Reports: handler.NewReportHandler(dashboardService),
		System:  handler.NewSystemHandler(cfg.App.Name, version, dataClient, refreshScheduler),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := refreshScheduler.Stop(shutdownCtx); err != nil {
		log.Warn("Dashboard refresh did not finish", zap.Error(err))
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Exporters get their own deadline
	telemetryCtx, cancelTelemetry := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelTelemetry()
	if err := tracerProvider.Shutdown(telemetryCtx); err != nil {
		log.Warn("Tracer provider shutdown failed", zap.Error(err))
	}
	if err := meterProvider.Shutdown(telemetryCtx); err != nil {
		log.Warn("Meter provider shutdown failed", zap.Error(err))
	}
	if err := store.Close(); err != nil {
		log.Warn("Cache close failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
