package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"minta-backend/internal/app"
	"minta-backend/internal/config"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config load failed")
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("app create failed")
	}

	if a.DB != nil {
		sqlDB, err := a.DB.DB()
		if err != nil {
			log.Fatal().Err(err).Msg("get sql db failed")
		}
		if err := sqlDB.Ping(); err != nil {
			log.Fatal().Err(err).Msg("postgres connection failed")
		}
		log.Info().Msg("Postgres connected")
	}
	if a.Rdb != nil {
		if err := a.Rdb.Ping(context.Background()).Err(); err != nil {
			log.Fatal().Err(err).Msg("redis connection failed")
		}
		log.Info().Msg("Redis connected")
	}

	if a.Sweeper != nil {
		if err := a.Sweeper.Start(); err != nil {
			log.Fatal().Err(err).Msg("sweeper start failed")
		}
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("server listening")
		if err := a.Fiber.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	if a.Sweeper != nil {
		a.Sweeper.Stop()
	}
	if err := a.Fiber.Shutdown(); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
}
