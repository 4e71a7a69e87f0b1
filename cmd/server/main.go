package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/filmorate/internal/config"
	"github.com/iliyamo/filmorate/internal/handler"
	"github.com/iliyamo/filmorate/internal/logging"
	"github.com/iliyamo/filmorate/internal/middleware"
	"github.com/iliyamo/filmorate/internal/queue"
	"github.com/iliyamo/filmorate/internal/repository"
	"github.com/iliyamo/filmorate/internal/router"
	"github.com/iliyamo/filmorate/internal/service"
	"github.com/iliyamo/filmorate/internal/validation"
)

func main() {
	cfg := config.Load()
	logger := logging.New(logging.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Caller: cfg.LogCaller,
		Output: os.Stderr,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	films := repository.NewFilmStore(logger)
	users := repository.NewUserStore(logger, time.Now)
	filmSvc := service.NewFilmService(films, users, logger)
	userSvc := service.NewUserService(users, logger)

	// async is non-nil only when events are enabled; it is drained on shutdown.
	var events queue.Publisher = queue.NopPublisher{}
	var async *queue.Async
	if cfg.Events.Enabled {
		async = queue.NewAsync(queue.NewAMQPPublisher(cfg.Events.URL, cfg.Events.Queue, logger), 5*time.Second, logger)
		events = async
		logger.Info().Str("queue", cfg.Events.Queue).Msg("activity events enabled")
	}
	if cfg.Events.Consumer {
		consumer := queue.NewActivityConsumer(cfg.Events.URL, cfg.Events.Queue, cfg.Events.LogDir, logger)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("activity consumer stopped")
			}
		}()
	}

	// nil when Redis is disabled or unreachable; cache and rate limiter then pass through
	rdb := config.NewRedisClient(cfg.Redis)
	if rdb != nil {
		defer rdb.Close()
		logger.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = validation.NewParams()
	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(logger))
	e.Use(middleware.NewTokenBucket(cfg.RateLimit, rdb, logger))
	e.Use(middleware.NewRedisCache(cfg.Cache, rdb, logger))

	router.RegisterRoutes(e)
	router.RegisterFilms(e, handler.NewFilmHandler(filmSvc, events, logger))
	router.RegisterUsers(e, handler.NewUserHandler(userSvc, events, logger))

	addr := ":" + cfg.Port
	go func() {
		logger.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown")
	}
	if async != nil {
		if err := async.Close(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("activity events not drained")
		}
	}
	logger.Info().Msg("stopped")
}
