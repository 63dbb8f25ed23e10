// Command api runs the event planner HTTP API.
//
// @title                       Event Planner API
// @version                     1.0
// @description                 Event planning API: registration, token issuance and role or ownership based authorization.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/eventplanner/event-api/internal/api"
	"github.com/eventplanner/event-api/internal/api/handler"
	"github.com/eventplanner/event-api/internal/api/metrics"
	"github.com/eventplanner/event-api/internal/core/domain"
	"github.com/eventplanner/event-api/internal/core/ports"
	"github.com/eventplanner/event-api/internal/core/service"
	mongodb "github.com/eventplanner/event-api/internal/infrastructure/db/mongo"
	redisdb "github.com/eventplanner/event-api/internal/infrastructure/db/redis"
	"github.com/eventplanner/event-api/internal/infrastructure/queue"
	"github.com/eventplanner/event-api/internal/infrastructure/security"
	"github.com/eventplanner/event-api/internal/pkg/config"
	"github.com/eventplanner/event-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		bootLog := logger.Init(logger.Options{Service: "event-api"})
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.IsProduction(),
		Service: "event-api",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer rdb.Close()

	credentials := mongodb.NewCredentialStore(db, security.NewBcryptHasher(cfg.Auth.BcryptCost))
	eventRepo := mongodb.NewEventRepository(db)
	if err := mongodb.EnsureIndexes(ctx, credentials, eventRepo); err != nil {
		return err
	}

	// --- Audit trail ---
	auditCtx, stopAudit := context.WithCancel(context.Background())
	dispatcher := queue.NewAuditDispatcher(cfg.Auth.AuditWorkers, mongodb.NewAuditRepository(db), logger.Component("audit"))
	dispatcher.Start(auditCtx)
	metrics.RegisterAuditDropped(dispatcher.Dropped)
	defer func() {
		stopAudit()
		dispatcher.Wait()
	}()

	// --- Services ---
	tokens, err := service.NewTokenIssuer(service.TokenIssuerConfig{
		Secret:   cfg.JWT.Secret,
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
	}, logger.Component("tokens"))
	if err != nil {
		return err
	}
	authService := service.NewAuthService(credentials, tokens, dispatcher, logger.Component("auth"))
	eventService := service.NewEventService(
		eventRepo,
		credentials,
		redisdb.NewIdempotencyStore(rdb, cfg.Redis.IdempotencyTTL),
		dispatcher,
		logger.Component("events"),
	)

	if err := bootstrapAdmin(ctx, authService, cfg.Admin, log); err != nil {
		return err
	}

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		AuthService:  authService,
		EventService: eventService,
		Tokens:       tokens,
		Audit:        dispatcher,
		Health: map[string]handler.Pinger{
			"mongodb": mongodb.NewPinger(mongoClient),
			"redis":   redisdb.NewPinger(rdb),
		},
		AuthRateLimit: cfg.Auth.RateLimitPerSecond,
		Log:           logger.Component("http"),
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(sctx); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}

// bootstrapAdmin registers the configured administrator. An existing account
// with the same username is left untouched.
func bootstrapAdmin(ctx context.Context, auth ports.AuthService, admin config.AdminConfig, log zerolog.Logger) error {
	if admin.Username == "" {
		return nil
	}

	res, err := auth.Register(ctx, ports.RegistrationInput{
		Username: admin.Username,
		Password: admin.Password,
		Email:    admin.Email,
	}, domain.RoleAdmin)
	if err != nil {
		return err
	}

	switch {
	case res.Success:
		log.Info().Str("username", admin.Username).Msg("bootstrap admin created")
	case errors.Is(res.Failure, domain.ErrDuplicateUser):
		log.Debug().Str("username", admin.Username).Msg("bootstrap admin already exists")
	default:
		log.Warn().Str("username", admin.Username).Str("reason", res.Message).Msg("bootstrap admin not created")
	}
	return nil
}
