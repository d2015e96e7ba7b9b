package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hotelbooking/internal/config"
	"hotelbooking/internal/database"
	"hotelbooking/internal/events"
	"hotelbooking/internal/modules/catalog"
	"hotelbooking/internal/modules/reservation"
	jwtsvc "hotelbooking/internal/pkg/jwt"
	"hotelbooking/internal/pkg/logger"
	"hotelbooking/internal/pkg/tracing"
	"hotelbooking/internal/server"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Error("api exited")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, logCloser, err := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer logCloser.Close()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup("hotelbooking-api", cfg.JaegerEndpoint)
	if err != nil {
		return err
	}
	defer func() {
		tctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(tctx); err != nil {
			log.WithError(err).Warn("tracer shutdown failed")
		}
	}()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.WithError(err).Warn("closing database failed")
		}
	}()
	if err := database.Migrate(db); err != nil {
		return err
	}

	deps := server.Deps{
		DB:  db,
		JWT: jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL),
		Log: log,
		Hub: events.NewHub(log),
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return err
		}
		client := redis.NewClient(opts)
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			log.WithError(err).Warn("redis unreachable, room type cache will fall back to the database")
		}
		deps.Cache = catalog.NewRedisCache(client, cfg.CacheTTL)
	}

	if cfg.RabbitURL != "" {
		broker, err := events.DialRabbit(ctx, cfg.RabbitURL, log)
		if err != nil {
			log.WithError(err).Warn("rabbitmq unavailable, reservation events stay in-process")
		} else {
			defer broker.Close()
			deps.Broker = broker
		}
	}

	srv, err := server.New(deps, server.Options{
		AdmissionTimeout: cfg.AdmissionTimeout,
		PaymentTimeout:   cfg.PaymentTimeout,
		MaxStayNights:    cfg.MaxStayNights,
		WebhookSecret:    cfg.WebhookSecret,
		CORSOrigins:      cfg.CORSOrigins,
	})
	if err != nil {
		return err
	}

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	sweeperDone := make(chan struct{})
	go func() {
		defer close(sweeperDone)
		reservation.NewSweeper(srv.Reservations, cfg.SweepInterval, log).Run(sweepCtx)
	}()

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.HTTPAddr).Info("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serveErr:
		if err != nil {
			stopSweeper()
			<-sweeperDone
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	stopSweeper()
	<-sweeperDone
	log.Info("server gracefully stopped")
	return nil
}
