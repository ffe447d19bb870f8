package main

import (
	"flag"
	"os"

	"github.com/arhyth/bankledger"
	"github.com/rs/zerolog"
)

func main() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	cfp := flag.String("config", "config.yml", "path to configuration file")
	sqlDir := flag.String("sql-dir", "testdata", "directory holding init_db.sql")
	flag.Parse()

	cfg, err := bankledger.LoadConfig(*cfp)
	if err != nil {
		logger.Fatal().Err(err).Msg("error loading config file")
	}
	if cfg.Ledger.Backend != bankledger.BackendPostgres {
		logger.Info().
			Str("backend", cfg.Ledger.Backend).
			Msg("backend creates its own storage, nothing to seed")
		return
	}

	lh, err := bankledger.NewLocalHelper(cfg.Ledger.ConnectionString, *sqlDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("error starting local helper")
	}
	defer lh.Close()
	if _, err = lh.InitDB(); err != nil {
		logger.Fatal().Err(err).Msg("error initializing database")
	}
	logger.Info().Msg("ledger schema ready")
}
