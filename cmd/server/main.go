package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/Skotchmaster/tour_service/internal/config"
	"github.com/Skotchmaster/tour_service/internal/db"
	"github.com/Skotchmaster/tour_service/internal/events"
	"github.com/Skotchmaster/tour_service/internal/hash"
	"github.com/Skotchmaster/tour_service/internal/httpserver"
	"github.com/Skotchmaster/tour_service/internal/logging"
	"github.com/Skotchmaster/tour_service/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/tour_service/internal/middleware/logging"
	"github.com/Skotchmaster/tour_service/internal/middleware/ratelimit"
	"github.com/Skotchmaster/tour_service/internal/repo"
	"github.com/Skotchmaster/tour_service/internal/service"
	"github.com/Skotchmaster/tour_service/internal/tokens"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}

	ts, err := tokens.NewService(cfg.JWT)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}

	publisher := events.NewPublisher(cfg.KafkaBrokers)

	var (
		rdb     *redis.Client
		limiter *ratelimit.Limiter
	)
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		limiter = ratelimit.New(rdb, cfg.RateLimit)
	} else {
		logger.Info("rate_limit_disabled", "reason", "REDIS_ADDR is not set")
	}

	r := repo.New(gdb)
	hasher := hash.New(cfg.BcryptCost)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	httpserver.Register(e, &httpserver.Deps{
		Auth: &httpserver.AuthHTTP{
			Svc:        &service.AuthService{Users: r, Hasher: hasher, Tokens: ts, Events: publisher},
			AccessTTL:  ts.AccessTTL(),
			RefreshTTL: ts.RefreshTTL(),
			CSRF:       csrf.DefaultConfig(),
		},
		Users:   &httpserver.UsersHTTP{Svc: &service.UserService{Users: r, Hasher: hasher, Events: publisher}},
		Tours:   &httpserver.ToursHTTP{Svc: &service.TourService{Tours: r, Events: publisher}},
		Tokens:  ts,
		Limiter: limiter,
		Ready: func(ctx context.Context) error {
			sqlDB, err := gdb.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown_failed", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("kafka_close_failed", "error", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	if err := db.Close(gdb); err != nil {
		logger.Error("db_close_failed", "error", err)
	}
	logger.Info("stopped")
}
