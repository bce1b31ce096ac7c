package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/fleet-ops-api/api/swagger"
	"github.com/noah-isme/fleet-ops-api/internal/app"
	"github.com/noah-isme/fleet-ops-api/internal/handler"
	"github.com/noah-isme/fleet-ops-api/internal/router"
	"github.com/noah-isme/fleet-ops-api/internal/service"
	"github.com/noah-isme/fleet-ops-api/pkg/config"
	"github.com/noah-isme/fleet-ops-api/pkg/jobs"
	"github.com/noah-isme/fleet-ops-api/pkg/logger"
)

// @title Fleet Ops API
// @version 1.0.0
// @description Back office API for a school transport operator: staff, vehicles, routes, certificates and documents.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	container, err := app.New(cfg, logr)
	if err != nil {
		logr.Fatal("failed to build application", zap.Error(err))
	}
	defer container.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc := container.Services
	sweepQueue := jobs.NewQueue("notifications", svc.Notifications.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Sweep.WorkerConcurrency,
		BufferSize: 16,
		MaxRetries: cfg.Sweep.WorkerRetries,
		RetryDelay: 30 * time.Second,
		Logger:     logr.Named("jobs"),
	})
	svc.Notifications.UseQueue(sweepQueue)
	sweepQueue.Start(ctx)
	defer sweepQueue.Stop()

	if cfg.Sweep.Enabled {
		go jobs.Every(ctx, sweepQueue, cfg.Sweep.Interval, service.SweepJobType, true, logr.Named("scheduler"))
		logr.Info("expiry sweep scheduled", zap.Duration("interval", cfg.Sweep.Interval))
	}

	metricsHandler := handler.NewMetricsHandler(svc.Metrics).WithCheck("postgres", container.Ping)
	if container.Redis != nil {
		metricsHandler.WithCheck("redis", container.PingRedis)
	}

	engine := router.New(router.Options{
		Config:     cfg,
		Logger:     logr,
		Tokens:     svc.Auth,
		AuditTrail: container.Repos.Audit,
		Metrics:    svc.Metrics,
	}, router.Handlers{
		Auth:          handler.NewAuthHandler(svc.Auth),
		Employees:     handler.NewEmployeeHandler(svc.Employees),
		Vehicles:      handler.NewVehicleHandler(svc.Vehicles),
		Schools:       handler.NewSchoolHandler(svc.Schools),
		Routes:        handler.NewRouteHandler(svc.Routes),
		Passengers:    handler.NewPassengerHandler(svc.Passengers),
		CallLogs:      handler.NewCallLogHandler(svc.CallLogs),
		Incidents:     handler.NewIncidentHandler(svc.Incidents),
		Certificates:  handler.NewCertificateHandler(svc.Expiry),
		Dashboard:     handler.NewDashboardHandler(svc.Dashboard),
		Documents:     handler.NewDocumentHandler(svc.Documents, svc.Uploads, svc.Requirements),
		Notifications: handler.NewNotificationHandler(svc.Notifications),
		Audit:         handler.NewAuditHandler(svc.Audit),
		Portal:        handler.NewPortalHandler(svc.Portal),
		Metrics:       metricsHandler,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "storage", cfg.Storage.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
