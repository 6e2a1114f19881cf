package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/estatehub/marketplace-api/internal/api"
	"github.com/estatehub/marketplace-api/internal/api/handler"
	"github.com/estatehub/marketplace-api/internal/core/ports"
	"github.com/estatehub/marketplace-api/internal/core/service"
	mongostore "github.com/estatehub/marketplace-api/internal/infrastructure/db/mongo"
	pgstore "github.com/estatehub/marketplace-api/internal/infrastructure/db/postgres"
	redisstore "github.com/estatehub/marketplace-api/internal/infrastructure/db/redis"
	"github.com/estatehub/marketplace-api/internal/infrastructure/queue"
	"github.com/estatehub/marketplace-api/internal/infrastructure/seed"
	"github.com/estatehub/marketplace-api/internal/infrastructure/token"
	"github.com/estatehub/marketplace-api/internal/pkg/config"
	"github.com/estatehub/marketplace-api/pkg/logger"
)

// App owns the HTTP server and every connection opened to serve it.
type App struct {
	httpServer *http.Server
	log        zerolog.Logger
	cleanups   []func(context.Context) error
	stopAudit  context.CancelFunc
	dispatcher *queue.Dispatcher
}

type stores struct {
	identity ports.CredentialStore
	audit    ports.AuditRepository
}

func New(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*App, error) {
	a := &App{log: log}

	st, err := a.openStores(ctx, cfg)
	if err != nil {
		a.abort(ctx)
		return nil, err
	}

	issuer, err := token.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTTTL)
	if err != nil {
		a.abort(ctx)
		return nil, err
	}

	checks := map[string]handler.CheckFunc{"store": st.identity.Ping}
	opts := []service.Option{service.WithLegacyLoginErrors(cfg.Auth.LegacyLoginErrors)}

	rdb, lock, redisCheck := openRedis(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, cfg.Redis.LockTTL, log)
	a.cleanups = append(a.cleanups, func(context.Context) error { return rdb.Close() })
	checks["redis"] = redisCheck
	opts = append(opts,
		service.WithRegistrationLock(lock),
		service.WithLockWait(cfg.Redis.LockWait),
	)

	a.dispatcher = queue.NewDispatcher(cfg.Audit.Workers, st.audit, logger.Component(log, "audit"))
	auditCtx, stopAudit := context.WithCancel(context.Background())
	a.stopAudit = stopAudit
	a.dispatcher.Start(auditCtx)
	opts = append(opts, service.WithAuditPublisher(a.dispatcher))

	identity := service.NewIdentityService(
		st.identity,
		issuer,
		service.NewBcryptHasher(cfg.Auth.BcryptCost),
		logger.Component(log, "identity"),
		opts...,
	)

	if cfg.AdminSeedPath != "" {
		n, err := seed.AdminsFromFile(ctx, identity, cfg.AdminSeedPath, log)
		if err != nil {
			a.abort(ctx)
			return nil, err
		}
		log.Info().Int("created", n).Msg("admin seed applied")
	}

	router := api.NewRouter(api.Deps{
		Identity: identity,
		Checks:   checks,
		Log:      log,
	})

	a.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return a, nil
}

func (a *App) openStores(ctx context.Context, cfg *config.Config) (stores, error) {
	switch cfg.Store.Driver {
	case config.DriverPostgres:
		pool, err := pgstore.Connect(ctx, pgstore.Config{DSN: cfg.Pg.DSN, Schema: cfg.Pg.Schema})
		if err != nil {
			return stores{}, err
		}
		a.cleanups = append(a.cleanups, func(context.Context) error { pool.Close(); return nil })

		if err := pgstore.EnsureSchema(ctx, pool, cfg.Pg.Schema); err != nil {
			return stores{}, err
		}
		identity, err := pgstore.NewIdentityRepository(pool, cfg.Pg.Schema)
		if err != nil {
			return stores{}, err
		}
		audit, err := pgstore.NewAuditRepository(pool, cfg.Pg.Schema)
		if err != nil {
			return stores{}, err
		}
		return stores{identity: identity, audit: audit}, nil

	case config.DriverMongo:
		client, db, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  "marketplace-api",
		})
		if err != nil {
			return stores{}, err
		}
		a.cleanups = append(a.cleanups, client.Disconnect)

		identity := mongostore.NewIdentityRepository(db)
		if err := identity.EnsureIndexes(ctx); err != nil {
			return stores{}, err
		}
		return stores{identity: identity, audit: mongostore.NewAuditRepository(db)}, nil
	}
	return stores{}, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
}

func (a *App) Run() error {
	a.log.Info().Str("addr", a.httpServer.Addr).Msg("http server listening")
	if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, flushes the audit queue and closes
// connections, in that order.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.httpServer.Shutdown(ctx)
	a.stopAudit()
	a.dispatcher.Wait()
	a.cleanup(ctx)
	return err
}

// openRedis always returns a usable client and lock. A failed boot ping only
// logs: the client redials on demand, lock errors fall back to store
// constraints and readiness pings live.
func openRedis(ctx context.Context, cfg redisstore.Config, lockTTL time.Duration, log zerolog.Logger) (*redis.Client, *redisstore.RegistrationLock, handler.CheckFunc) {
	rdb := redisstore.NewClient(cfg)
	if err := redisstore.Ping(ctx, rdb, cfg); err != nil {
		log.Warn().Err(err).Msg("redis unreachable at startup, registration lock degraded until it recovers")
	}
	check := func(ctx context.Context) error { return redisstore.Ping(ctx, rdb, cfg) }
	return rdb, redisstore.NewRegistrationLock(rdb, lockTTL), check
}

// abort releases everything New acquired before failing.
func (a *App) abort(ctx context.Context) {
	if a.dispatcher != nil {
		a.stopAudit()
		a.dispatcher.Wait()
	}
	a.cleanup(ctx)
}

func (a *App) cleanup(ctx context.Context) {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		if err := a.cleanups[i](ctx); err != nil {
			a.log.Warn().Err(err).Msg("cleanup failed")
		}
	}
	a.cleanups = nil
}
