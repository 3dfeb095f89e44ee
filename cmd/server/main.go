package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/thereayou/dma-chat/internal/config"
	"github.com/thereayou/dma-chat/internal/logger"
)

func main() {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	logger.Init(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := NewServer(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("server init")
	}
	if err := srv.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server run")
		os.Exit(1)
	}
}
