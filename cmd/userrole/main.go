package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"covergen/internal/domain"
	"covergen/internal/identity"
	"covergen/internal/infra"
	"covergen/internal/sqlinline"
)

func main() {
	_ = godotenv.Load()

	var (
		idFlag    string
		roleFlag  string
		tokenTTL  time.Duration
		mintToken bool
	)
	flag.StringVar(&idFlag, "id", "", "profile ID (auth user ID)")
	flag.StringVar(&roleFlag, "role", string(domain.UserRoleInstructor), "role to assign (admin, instructor, student)")
	flag.BoolVar(&mintToken, "token", false, "also print a signed access token for the profile")
	flag.DurationVar(&tokenTTL, "ttl", time.Hour, "lifetime of the printed token")
	flag.Parse()

	userID := strings.TrimSpace(idFlag)
	if userID == "" {
		exitWithError(errors.New("-id is required"))
	}
	role := domain.UserRole(strings.TrimSpace(strings.ToLower(roleFlag)))
	switch role {
	case domain.UserRoleAdmin, domain.UserRoleInstructor, domain.UserRoleStudent:
	default:
		exitWithError(fmt.Errorf("unsupported role %q", roleFlag))
	}

	cfg, _ := infra.LoadConfig()
	if cfg.DatabaseURL == "" {
		exitWithError(errors.New("DATABASE_URL is required"))
	}
	if mintToken && tokenTTL <= 0 {
		exitWithError(errors.New("-ttl must be positive"))
	}
	if mintToken && cfg.JWTSecret == "" {
		exitWithError(errors.New("JWT_SECRET is required to mint a token"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer pool.Close()

	logger := infra.NewLogger("cli").With().Str("cmd", "userrole").Logger()
	runner := infra.NewSQLRunner(pool, logger)

	var gotID, gotRole string
	if err := runner.QueryRow(ctx, sqlinline.QUpsertProfileRole, userID, string(role)).Scan(&gotID, &gotRole); err != nil {
		exitWithError(fmt.Errorf("failed to update profile role: %w", err))
	}
	fmt.Printf("Profile %s now has role %s\n", gotID, gotRole)

	if mintToken {
		token, err := identity.SignJWT(cfg.JWTSecret, gotID, tokenTTL)
		if err != nil {
			exitWithError(fmt.Errorf("failed to sign token: %w", err))
		}
		fmt.Println(token)
	}
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
