// @title        Eatmind Portal API
// @version      2.0
// @description  Session API of the Eatmind nutrition portal.
// @BasePath     /
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Apolo-personal-assistant/Front-2.0/internal/api"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/api/metrics"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/api/views"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/ports"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/core/service"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/infrastructure/db/memory"
	mongostore "github.com/Apolo-personal-assistant/Front-2.0/internal/infrastructure/db/mongo"
	redisstore "github.com/Apolo-personal-assistant/Front-2.0/internal/infrastructure/db/redis"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/infrastructure/gateway"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/infrastructure/http/handlers"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/infrastructure/queue"
	"github.com/Apolo-personal-assistant/Front-2.0/internal/pkg/config"
	"github.com/Apolo-personal-assistant/Front-2.0/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.LogPretty,
		Service: "portal",
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var checks []handlers.DependencyCheck

	// Redis
	var rdb *goredis.Client
	if cfg.NeedsRedis() {
		client, err := redisstore.Connect(ctx, redisstore.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer func() { _ = client.Close() }()
		rdb = client
		checks = append(checks, handlers.RedisCheck(client))
	}

	// Session tokens
	var tokens ports.TokenStore
	switch cfg.Session.Backend {
	case config.BackendRedis:
		tokens = redisstore.NewTokenStore(rdb)
	case config.BackendMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  "nutrition-portal",
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to mongo")
		}
		defer func() { _ = client.Disconnect(context.Background()) }()
		store := mongostore.NewTokenStore(db)
		if err := store.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to create session indexes")
		}
		tokens = store
		checks = append(checks, handlers.MongoCheck(db))
	default:
		log.Warn().Msg("session tokens kept in memory; they are lost on restart")
		store := memory.NewTokenStore()
		go store.Run(ctx, cfg.Session.SweepInterval)
		tokens = store
	}

	// Query cache
	var cache ports.QueryCache
	if cfg.Query.Backend == config.BackendRedis {
		cache = redisstore.NewQueryCache(rdb)
	} else {
		local := memory.NewQueryCache()
		go local.Run(ctx, cfg.Session.SweepInterval)
		cache = local
	}

	backend := gateway.New(cfg.BackendURL,
		gateway.WithMiddleware(gateway.Instrument(metrics.ObserveGateway)),
		gateway.WithLogger(logger.For("gateway")),
	)

	dispatcher := queue.NewDispatcher(cfg.Session.Workers, logger.For("resolver"))
	dispatcher.Start(ctx)

	sessions := service.NewSessions(backend, tokens, dispatcher, service.SessionOptions{
		TokenTTL:   cfg.Session.TokenTTL,
		IdleTTL:    cfg.Session.IdleTTL,
		OnResolved: metrics.ObserveResolution,
		OnActive:   metrics.SetActiveSessions,
	}, logger.For("sessions"))
	go sessions.Run(ctx, cfg.Session.SweepInterval)

	queries := service.NewNutritionService(backend, cache, service.QueryOptions{
		StaleTime: cfg.Query.StaleTime,
		OnLookup:  metrics.ObserveCacheLookup,
	}, logger.For("queries"))

	renderer, err := views.New()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse templates")
	}

	e := api.NewRouter(api.Dependencies{
		Log:          logger.For("http"),
		Renderer:     renderer,
		Sessions:     sessions,
		Queries:      queries,
		Checks:       checks,
		Cookie:       cfg.Session.Cookie,
		CookieDomain: cfg.Session.CookieDomain,
		CookieSecure: cfg.Session.CookieSecure || cfg.IsProduction(),
		CookieMaxAge: cfg.Session.TokenTTL,
		ResolveWait:  cfg.Session.ResolveWait,
	})

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: e}
	go func() {
		log.Info().Str("port", cfg.Port).Str("backend", cfg.BackendURL).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	// Graceful shutdown
	<-ctx.Done()
	shutdown(srv, log)
}

func shutdown(srv *http.Server, log zerolog.Logger) {
	log.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		return
	}
	log.Info().Msg("server exited properly")
}
