package main

import (
	"context"
	"net/http"
	"time"

	"dicee-server/internal/config"
	"dicee-server/internal/game"
	"dicee-server/internal/logging"
	"dicee-server/internal/room"
	"dicee-server/internal/store"
	httptransport "dicee-server/internal/transport/http"
	"dicee-server/internal/ws"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.LoadApp()
	if err != nil {
		panic(err)
	}
	logging.Init(cfg.Log)

	st, err := store.New(cfg.Server.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("store init failed")
	}
	defer st.Close()
	if err := st.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("db ping failed")
	}
	if err := st.EnsureSchema(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("ensure schema failed")
	}

	engine := game.NewEngine(game.StandardRules{}, game.BonusRules{
		UpperThreshold: cfg.Room.UpperBonusThreshold,
		UpperScore:     cfg.Room.UpperBonusScore,
		ExtraDicee:     cfg.Room.ExtraDiceeBonus,
	}, nil)

	hub := room.NewHub(st, cfg.Room, engine, time.Now)
	if err := hub.Start(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("hub start failed")
	}
	defer hub.Shutdown()

	wsSrv := ws.NewServer(hub)
	r := httptransport.NewRouter(st, hub, wsSrv, cfg.Room)
	httptransport.LogRoutes(r)

	server := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	log.Info().Str("addr", cfg.Server.HTTPAddr).Msg("http listening")
	log.Fatal().Err(server.ListenAndServe()).Msg("server stopped")
}
