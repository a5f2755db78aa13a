package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/pomsaddons/BloxCord/internal/adapters/http"
	ws "github.com/pomsaddons/BloxCord/internal/adapters/signal"
	"github.com/pomsaddons/BloxCord/internal/app"
	"github.com/pomsaddons/BloxCord/internal/auth"
	"github.com/pomsaddons/BloxCord/internal/avatar"
	"github.com/pomsaddons/BloxCord/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}

	channels := app.NewChannelRegistry(cfg.HistoryLimit)
	presence := app.NewPresence(cfg.GracePeriod)
	groups := app.NewGroupRegistry()
	bans := auth.NewBanList(cfg.BansPath)
	tokens := auth.NewTokenService(cfg.TokensPath, cfg.TokenSecret)
	avatars := avatar.NewResolver(cfg.AvatarTimeout)
	limiter := ws.NewMessageRateLimiter(cfg.MsgRateLimit, cfg.MsgRateInterval)

	ctl := &ws.Controller{
		Channels: channels,
		Presence: presence,
		Groups:   groups,
		Bans:     bans,
		Tokens:   tokens,
		Avatars:  avatars,
		Limiter:  limiter,
		Cfg:      cfg,
	}

	r := router.SetupRouter(ctx, cfg, ctl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("BloxCord server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
