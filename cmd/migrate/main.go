package main

import (
	"context"
	"database/sql"
	"flag"
	"time"

	"fridgemap/internal/config"
	"fridgemap/internal/repository"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

func main() {
	configPath := flag.String("config", "configs", "Directory containing app.env")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	db, err := sql.Open("postgres", cfg.DBSource)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open db")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("cannot connect to db")
	}
	if _, err := db.ExecContext(ctx, repository.Schema); err != nil {
		log.Fatal().Err(err).Msg("cannot apply schema")
	}

	log.Info().Msg("schema applied")
}
