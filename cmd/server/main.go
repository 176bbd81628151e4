package main

import (
	"time"

	"musicquiz/internal/catalog"
	"musicquiz/internal/config"
	"musicquiz/internal/db"
	clog "musicquiz/internal/log"
	"musicquiz/internal/relay"
	"musicquiz/internal/server"
	"musicquiz/internal/service"
	"musicquiz/internal/ws"

	"github.com/rs/zerolog/log"
)

func main() {
	cfg := config.Load()
	clog.Init(cfg.Env)
	if err := config.Validate(cfg); err != nil {
		log.Fatal().Err(err).Msg("config validate")
	}

	gdb, err := db.Connect(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}

	table := ws.NewTable()
	coord := relay.NewCoordinator(table, nil)

	sweeper := relay.NewSweeper(coord,
		time.Duration(cfg.SweepIntervalMinutes)*time.Minute,
		time.Duration(cfg.IdleThresholdMinutes)*time.Minute)
	sweeper.Start()
	defer sweeper.Stop()

	cat := catalog.New(cfg.CatalogBaseURL, time.Duration(cfg.CatalogCacheTTLSeconds)*time.Second)
	playerSvc := service.NewPlayerService(gdb)
	gameSvc := service.NewGameService(gdb, coord.Registry())

	h := server.NewHandler(cfg, playerSvc, gameSvc, cat)
	r := server.SetupRouter(cfg, h, coord, table)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server run")
	}
}
