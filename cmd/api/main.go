package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"covergen/internal/adapter/repo"
	"covergen/internal/coverjob"
	"covergen/internal/http/handlers"
	httpapi "covergen/internal/http/httpapi"
	"covergen/internal/identity"
	"covergen/internal/infra"
	"covergen/internal/infra/credentials"
	"covergen/internal/providers/replicate"
	"covergen/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
	}
	sqlRunner := infra.NewSQLRunner(pool, logger)

	courses := repo.NewCourseRepository(sqlRunner)
	profiles := repo.NewProfileRepository(sqlRunner)
	predictions := repo.NewPredictionRepository(sqlRunner)
	progress := repo.NewProgressRepository(sqlRunner)

	tokenStore := credentials.NewStore(sqlRunner)
	tokens := credentials.EnvOrStored{Env: cfg.ReplicateAPIToken, Store: tokenStore}
	storedToken := false
	if cfg.ReplicateAPIToken == "" && pool != nil {
		lookupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		tok, err := tokenStore.ReplicateToken(lookupCtx)
		cancel()
		if err != nil {
			logger.Warn().Err(err).Msg("failed to read stored replicate token")
		}
		storedToken = tok != ""
	}
	missing := cfg.MissingRequired(storedToken)
	if len(missing) > 0 {
		logger.Warn().Strs("missing", missing).Msg("required configuration is unset; cover generation will be rejected")
	}

	var publisher coverjob.Publisher
	if cfg.RedisAddr != "" {
		rp, err := coverjob.NewRedisPublisher(ctx, cfg.RedisAddr, cfg.RedisChannel)
		if err != nil {
			logger.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unavailable; progress events will not be published")
		} else {
			publisher = rp
			defer rp.Close()
		}
	}

	client := replicate.NewClient(replicate.Options{
		APIToken:       cfg.ReplicateAPIToken,
		BaseURL:        cfg.ReplicateBaseURL,
		MaxRetries:     cfg.GenerationMaxRetries,
		RequestTimeout: cfg.ReplicateTimeout,
		Logger:         &logger,
	})
	notifier := coverjob.NewNotifier(coverjob.NotifierOptions{
		Predictions: predictions,
		Progress:    progress,
		Publisher:   publisher,
		Logger:      &logger,
	})
	service := coverjob.NewService(coverjob.Options{
		Courses:       courses,
		Predictions:   predictions,
		Progress:      progress,
		Auth:          identity.NewResolver(cfg.ServiceRoleKey, cfg.JWTSecret, profiles),
		Generator:     client,
		Tokens:        tokens,
		Notifier:      notifier,
		WebhookURL:    cfg.WebhookURL,
		MissingConfig: missing,
		Logger:        &logger,
	})

	store, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare cover storage")
	}
	completer := coverjob.NewCompleter(coverjob.CompleterOptions{
		Courses:     courses,
		Predictions: predictions,
		Notifier:    notifier,
		Downloader:  client,
		Store:       store,
	})

	app := handlers.NewApp(service, completer, cfg.ReplicateWebhookSecret, &logger)
	if pool != nil {
		app.Ping = sqlRunner.Ping
	}
	if cfg.ReplicateWebhookSecret == "" {
		logger.Warn().Msg("REPLICATE_WEBHOOK_SECRET is unset; webhook signatures are not verified")
	}

	router := httpapi.NewRouter(app, httpapi.RouterOptions{
		Logger:          logger,
		AllowedOrigins:  cfg.CORSAllowedOrigins,
		RateLimitPerMin: cfg.RateLimitPerMin,
		StaticDir:       store.BasePath(),
	})
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
