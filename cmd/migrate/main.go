package main

import (
	"context"
	"flag"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"covergen/internal/db"
	"covergen/internal/infra"
)

func main() {
	_ = godotenv.Load()

	var dsnFlag string
	var timeout time.Duration
	flag.StringVar(&dsnFlag, "dsn", "", "Postgres connection string (falls back to DATABASE_URL)")
	flag.DurationVar(&timeout, "timeout", time.Minute, "overall migration timeout")
	flag.Parse()

	logger := infra.NewLogger(os.Getenv("APP_ENV")).With().Str("cmd", "migrate").Logger()

	dsn := strings.TrimSpace(dsnFlag)
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("DATABASE_URL"))
	}
	if dsn == "" {
		logger.Fatal().Msg("DATABASE_URL is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	conn, err := db.Open(ctx, dsn)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer conn.Close()

	applied, err := db.Migrate(ctx, conn)
	if err != nil {
		logger.Fatal().Err(err).Strs("applied", applied).Msg("migration failed")
	}
	if len(applied) == 0 {
		logger.Info().Msg("schema is up to date")
		return
	}
	logger.Info().Strs("applied", applied).Msg("migrations applied")
}
