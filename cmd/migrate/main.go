package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"tunecase/internal/config"
	"tunecase/internal/logging"
	"tunecase/internal/migrate"
)

func main() {
	logging.SetGlobal(logging.New(logging.Config{Level: "info", Format: "text"}))

	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: migrate [up|down]")
		os.Exit(2)
	}
	dir, err := migrate.ParseDirection(os.Args[1])
	if err != nil {
		fmt.Fprintln(os.Stderr, "usage: migrate [up|down]")
		os.Exit(2)
	}

	db, err := config.LoadDatabase()
	if err != nil {
		log.Fatal().Err(err).Msg("load database config")
	}

	if err := migrate.Run(db.URL, dir); err != nil {
		log.Fatal().Err(err).Msg("run migrations")
	}
	log.Info().Str("direction", string(dir)).Msg("migrations applied")
}
