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

	"github.com/alleybloom/live/internal/adapters/httpapi"
	"github.com/alleybloom/live/internal/app"
	"github.com/alleybloom/live/internal/config"
	"github.com/alleybloom/live/internal/core"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if os.Getenv("LOG_LEVEL") == "debug" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("failed to load config")
	}

	registry := app.NewRegistry()
	designs := core.NewDesignStore(cfg.MaxAlleys, cfg.MaxItemsPerAlley)
	hub := app.NewHub(registry, designs)
	relay := app.NewRelay()
	directory := app.NewDirectory(cfg.MaxRoomCodes)

	// A disconnect must never leave a dangling membership entry.
	registry.OnDeregister(hub.HandleDisconnect)
	registry.OnDeregister(relay.HandleDisconnect)

	r := httpapi.SetupRouter(ctx, cfg, &httpapi.Deps{
		Registry:  registry,
		Hub:       hub,
		Relay:     relay,
		Directory: directory,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Alley Bloom live server started")
		log.Info().Str("signaling", fmt.Sprintf("ws://localhost:%d/ws/pixelstreaming", cfg.Port)).Msg("pixel streaming signaling ready")
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
