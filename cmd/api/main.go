package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/cmlabs-hris/hris-reconciliation/internal/config"
	"github.com/cmlabs-hris/hris-reconciliation/internal/domain/mismatch"
	domainReconciliation "github.com/cmlabs-hris/hris-reconciliation/internal/domain/reconciliation"
	appHTTP "github.com/cmlabs-hris/hris-reconciliation/internal/handler/http"
	"github.com/cmlabs-hris/hris-reconciliation/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-reconciliation/internal/pkg/database"
	"github.com/cmlabs-hris/hris-reconciliation/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-reconciliation/internal/pkg/lock"
	"github.com/cmlabs-hris/hris-reconciliation/internal/pkg/mq"
	"github.com/cmlabs-hris/hris-reconciliation/internal/repository/postgresql"
	mismatchService "github.com/cmlabs-hris/hris-reconciliation/internal/service/mismatch"
	reconciliationService "github.com/cmlabs-hris/hris-reconciliation/internal/service/reconciliation"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Error loading config: ", err)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.App.LogLevel),
	})).With(
		slog.String("app", cfg.App.Name),
		slog.String("env", cfg.App.Env),
	))

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL(), database.PoolOptions{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		log.Fatal("Error connecting to database: ", err)
	}
	defer db.Close()

	declaredRepo := postgresql.NewDeclaredStatusRepository(db)
	presenceRepo := postgresql.NewPhysicalPresenceRepository(db)
	approvalRepo := postgresql.NewApprovalRepository(db)
	holidayRepo := postgresql.NewHolidayRepository(db)
	workerRepo := postgresql.NewWorkerRepository(db)
	mismatchRepo := postgresql.NewMismatchRepository(db)

	var locker domainReconciliation.RunLocker
	if cfg.Redis.Enabled {
		redisClient, err := lock.Connect(context.Background(), lock.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal("Error connecting to redis: ", err)
		}
		defer redisClient.Close()
		locker = lock.NewRedisLocker(redisClient)
	}

	var publisher mismatch.EventPublisher
	if cfg.RabbitMQ.Enabled {
		p, err := mq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.RoutingKey)
		if err != nil {
			log.Fatal("Error connecting to rabbitmq: ", err)
		}
		defer p.Close()
		publisher = p
	}

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		log.Fatal("Error building reconciliation config: ", err)
	}
	engine := reconciliationService.NewEngine(engineCfg, declaredRepo, presenceRepo, approvalRepo, holidayRepo, mismatchRepo)
	reconciliationSvc := reconciliationService.NewReconciliationService(engine, workerRepo, locker, publisher, reconciliationService.Options{
		MaxRangeDays: cfg.Reconciliation.MaxRangeDays,
		LockTTL:      cfg.Redis.LockTTL,
	})
	reviewSvc := mismatchService.NewReviewService(mismatchRepo)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			AppName:        cfg.App.Name,
			Version:        cfg.App.Version,
			Env:            cfg.App.Env,
			AllowedOrigins: cfg.App.AllowedOrigins,
		},
		JWTService,
		appHTTP.NewReconciliationHandler(reconciliationSvc),
		appHTTP.NewMismatchHandler(reviewSvc),
	)

	var scheduler *cron.Scheduler
	if cfg.Cron.Enabled {
		scheduler = cron.NewScheduler()
		cron.NewReconciliationJobs(reconciliationSvc, cfg.Cron.RunHour, cfg.Cron.LookbackDays, engineCfg.Location).RegisterJobs(scheduler)
		scheduler.Start()
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("Server running", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}
	if scheduler != nil {
		scheduler.Stop()
	}
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
