package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"cleanghana/internal/geolocate"
	"cleanghana/internal/identity"
	"cleanghana/internal/platform/config"
	"cleanghana/internal/platform/httpserver"
	"cleanghana/internal/platform/logger"
	"cleanghana/internal/platform/metrics"
	"cleanghana/internal/platform/postgres"
	platformredis "cleanghana/internal/platform/redis"
	"cleanghana/internal/report"
	reporthandler "cleanghana/internal/report/handler"
	reportservice "cleanghana/internal/report/service"
	httptransport "cleanghana/internal/transport/http"
	"cleanghana/pkg/platform/audit"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const auditInboxSize = 256

// main wires dependencies and keeps the server lifecycle small. Business
// logic lives in the internal services packages. All cleanup happens via
// defers inside run so every exit path releases the stores and pools.
func main() {
	log := logger.New()
	if err := run(log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

func run(log *slog.Logger) error {
	cfg := config.FromEnv(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	rdb, err := platformredis.New(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("redis connection: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	var pool *pgxpool.Pool
	if cfg.PostgresURL != "" {
		pool, err = postgres.New(ctx, cfg.PostgresURL)
		if err != nil {
			return fmt.Errorf("postgres connection: %w", err)
		}
		defer pool.Close()
	}

	store, auditStore, err := buildStores(ctx, cfg, pool, rdb, m, log)
	if err != nil {
		return fmt.Errorf("store initialization: %w", err)
	}
	defer store.Close()

	inbox := make(chan audit.Event, auditInboxSize)
	auditPub := audit.NewPublisher(inbox, log)
	auditWorker := audit.NewWorker(auditStore, inbox, log)

	provider := identity.NewProvider(cfg.AuthTokenKey)
	svc := reportservice.New(store, m, log, auditPub)

	// The server has no positioning capability of its own; the resolver
	// degrades to the demo coordinates unless a provider is plugged in.
	geocoder := geolocate.NewNominatimClient(cfg.GeocoderBaseURL, cfg.GeocoderTimeout)
	resolver := geolocate.New(nil, geocoder, m, log)

	checks := map[string]httptransport.HealthCheck{}
	if rdb != nil {
		checks["redis"] = rdb.Health
	}
	if pool != nil {
		checks["postgres"] = pool.Ping
	}

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Logger:   log,
		Metrics:  m,
		Registry: registry,
		Handlers: []interface{ Register(chi.Router) }{
			reporthandler.New(svc, resolver, provider, log),
			httptransport.NewAuthHandler(provider, log),
		},
		Checks: checks,
	})

	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := auditWorker.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		log.Info("starting cleanghana", "addr", cfg.Addr, "collection", cfg.CollectionKey())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// buildStores selects the durable stack when postgres is configured and
// falls back to the in-memory stores otherwise.
func buildStores(ctx context.Context, cfg config.Config, pool *pgxpool.Pool, rdb *platformredis.Client, m *metrics.Metrics, log *slog.Logger) (report.Store, audit.Store, error) {
	if pool == nil {
		return report.NewMemoryStore(m), audit.NewInMemoryStore(), nil
	}
	var rawRedis *redis.Client
	if rdb != nil {
		rawRedis = rdb.Client
	}
	store, err := report.NewPostgresStore(ctx, pool, rawRedis, cfg.CollectionKey(), m, log)
	if err != nil {
		return nil, nil, err
	}
	auditStore, err := audit.NewPostgresStore(ctx, pool)
	if err != nil {
		return nil, nil, err
	}
	return store, auditStore, nil
}
