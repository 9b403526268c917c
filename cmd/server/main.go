package main

import (
	"context"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"old-maid-server/internal/api"
	"old-maid-server/internal/auth"
	"old-maid-server/internal/core"
	database "old-maid-server/internal/db"
	"old-maid-server/internal/notifier"
	"old-maid-server/internal/random"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	v, cfg, err := core.InitConfig(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if cfg.Log.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		log.Fatal().Err(err).Str("level", cfg.Log.Level).Msg("log level")
	}
	zerolog.SetGlobalLevel(level)
	core.WatchLogLevel(v, log.Logger)

	rnd := random.Source{}
	if cfg.Auth.SecretKey == "" {
		cfg.Auth.SecretKey = string(rnd.NewLongSecret())
		log.Warn().Msg("auth.secret_key is not set; sessions will not survive a restart")
	}

	store, err := database.Open(cfg.Storage, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("open storage")
	}
	defer store.Close()

	var mirror api.Mirror
	if cfg.Nats.URL != "" {
		n, err := notifier.Connect(cfg.Nats.URL, cfg.Nats.SubjectPrefix, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("connect NATS")
		}
		defer n.Close()
		mirror = n
	}

	service := core.NewService(store, rnd, log.Logger)
	issuer := auth.NewIssuer(cfg.Auth.SecretKey, cfg.Auth.SessionTTL)
	hub := api.NewHub(mirror, log.Logger)
	router := api.NewRouter(service, issuer, hub, cfg.Server, log.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := api.Serve(ctx, cfg.Server.Addr, router, log.Logger, hub.Close); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
}
