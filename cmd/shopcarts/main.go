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

	"github.com/Skotchmaster/shopcarts/internal/config"
	"github.com/Skotchmaster/shopcarts/internal/db"
	"github.com/Skotchmaster/shopcarts/internal/events"
	"github.com/Skotchmaster/shopcarts/internal/filter"
	"github.com/Skotchmaster/shopcarts/internal/httpserver"
	"github.com/Skotchmaster/shopcarts/internal/logging"
	middleware "github.com/Skotchmaster/shopcarts/internal/middleware/auth"
	"github.com/Skotchmaster/shopcarts/internal/middleware/csrf"
	loggingmw "github.com/Skotchmaster/shopcarts/internal/middleware/logging"
	"github.com/Skotchmaster/shopcarts/internal/productinfo"
	"github.com/Skotchmaster/shopcarts/internal/repo"
	"github.com/Skotchmaster/shopcarts/internal/service"
)

var version = "1.0"

func main() {
	config.LoadDotEnv(".env")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.ServiceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	publisher := newPublisher(cfg, logger)
	products := newProductLookup(cfg, logger)

	svc := &service.CartService{
		Repo:     &repo.GormRepo{DB: gdb},
		Products: products,
		Events:   publisher,
		Filters:  filter.Options{DateFormat: cfg.FilterDateFormat},
	}
	guard := middleware.NewOwnerGuard(cfg.JWTSecret)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())
	if guard.Enabled() {
		e.Use(csrf.Middleware(csrf.Config{SkipPaths: []string{"/health/live", "/health/ready", "/info"}}))
	}

	httpserver.Register(e, &httpserver.Deps{
		CartHandler: &httpserver.CartHTTP{Svc: svc},
		Guard:       guard,
		ServiceName: cfg.ServiceName,
		Version:     version,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("server_started", "addr", srv.Addr, "db_driver", cfg.DBDriver, "auth", guard.Enabled())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	_ = srv.Shutdown(shutdownCtx)

	if err := publisher.Close(); err != nil {
		logger.Warn("publisher_close_error", "error", err)
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("server_stopped")
}

func newPublisher(cfg config.Config, logger *slog.Logger) events.Publisher {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Info("events_disabled", "reason", "KAFKA_BROKERS not set")
		return events.Nop{}
	}
	p, err := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	if err != nil {
		log.Fatalf("kafka producer: %v", err)
	}
	return p
}

// newProductLookup returns nil when no product source is configured.
func newProductLookup(cfg config.Config, logger *slog.Logger) productinfo.Lookup {
	switch cfg.ProductSource {
	case config.ProductSourceHTTP:
		return productinfo.NewClient(cfg.ProductServiceURL)
	case config.ProductSourceElasticsearch:
		l, err := productinfo.NewESLookup(productinfo.ESConfig{
			URL:      cfg.ESURL,
			User:     cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESProductIndex,
		})
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		return l
	default:
		logger.Info("product_lookup_disabled")
		return nil
	}
}
