package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/BruksfildServices01/barber-booking/internal/audit"
	"github.com/BruksfildServices01/barber-booking/internal/config"
	dbpkg "github.com/BruksfildServices01/barber-booking/internal/db"
	domain "github.com/BruksfildServices01/barber-booking/internal/domain/appointment"
	"github.com/BruksfildServices01/barber-booking/internal/handlers"
	"github.com/BruksfildServices01/barber-booking/internal/infra/cache"
	"github.com/BruksfildServices01/barber-booking/internal/infra/events"
	"github.com/BruksfildServices01/barber-booking/internal/infra/payment"
	infraRepo "github.com/BruksfildServices01/barber-booking/internal/infra/repository"
	"github.com/BruksfildServices01/barber-booking/internal/infra/storage"
	"github.com/BruksfildServices01/barber-booking/internal/jobs"
	"github.com/BruksfildServices01/barber-booking/internal/metrics"
	"github.com/BruksfildServices01/barber-booking/internal/routes"
	"github.com/BruksfildServices01/barber-booking/internal/timezone"
	ucAppointment "github.com/BruksfildServices01/barber-booking/internal/usecase/appointment"
	ucLock "github.com/BruksfildServices01/barber-booking/internal/usecase/lock"
)

func main() {

	cfg := config.Load()
	timezone.SetDefault(cfg.DefaultTimezone)

	db := dbpkg.NewDB(cfg)

	// ======================================================
	// INFRA
	// ======================================================
	repo := infraRepo.NewAppointmentGormRepository(db)

	var sinks []audit.Sink
	var publisher *events.Publisher
	if cfg.AMQPUrl != "" {
		publisher = events.NewPublisher(cfg.AMQPUrl)
		sinks = append(sinks, publisher)
		log.Printf("events: publishing to %s", events.QueueName)
	}
	dispatcher := audit.NewDispatcher(audit.New(db), sinks...)

	var availabilityCache domain.AvailabilityCache
	if cfg.RedisURL != "" {
		rdb := cache.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
		defer rdb.Close()
		availabilityCache = cache.NewAvailabilityRedis(rdb, cfg.AvailabilityCacheTTL)
		log.Printf("cache: availability cached in redis for %s", cfg.AvailabilityCacheTTL)
	}

	var store handlers.ObjectStore
	if cfg.StorageEnabled() {
		store = storage.NewS3(storage.S3Config{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			Bucket:        cfg.S3Bucket,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			PublicBaseURL: cfg.S3PublicBaseURL,
		})
	}

	var linker ucAppointment.CheckoutLinker
	if cfg.PaymentsEnabled() {
		checkout, err := payment.NewCheckout(cfg.MercadoPagoAccessToken, cfg.MercadoPagoNotificationURL)
		if err != nil {
			log.Fatalf("failed to configure mercadopago: %v", err)
		}
		linker = checkout
	}

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	// ======================================================
	// JOBS
	// ======================================================
	sweepUC := ucLock.NewSweepExpiredLocks(repo, dispatcher).
		WithCache(availabilityCache).
		WithMetrics(m)

	sweeper, err := jobs.StartLockSweeper(cfg.LockSweepSchedule, sweepUC)
	if err != nil {
		log.Fatalf("failed to schedule lock sweeper: %v", err)
	}

	// ======================================================
	// HTTP
	// ======================================================
	r := gin.Default()

	routes.RegisterRoutes(r, routes.Deps{
		DB:      db,
		Config:  cfg,
		Repo:    repo,
		Audit:   dispatcher,
		Cache:   availabilityCache,
		Metrics: m,
		Store:   store,
		Linker:  linker,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Server running on %s", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}

	<-sweeper.Stop().Done()
	dispatcher.Close()

	if publisher != nil {
		if err := publisher.Close(); err != nil {
			log.Printf("events: close: %v", err)
		}
	}
}
