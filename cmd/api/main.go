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
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ariefcatur/go-clothing-rental/internal/activity"
	"github.com/ariefcatur/go-clothing-rental/internal/catalog"
	"github.com/ariefcatur/go-clothing-rental/internal/config"
	"github.com/ariefcatur/go-clothing-rental/internal/httpx"
	"github.com/ariefcatur/go-clothing-rental/internal/identity"
	kafkax "github.com/ariefcatur/go-clothing-rental/internal/kafka"
	"github.com/ariefcatur/go-clothing-rental/internal/logx"
	"github.com/ariefcatur/go-clothing-rental/internal/postgres"
	"github.com/ariefcatur/go-clothing-rental/internal/redisx"
	"github.com/ariefcatur/go-clothing-rental/internal/rental"
	"github.com/ariefcatur/go-clothing-rental/internal/seed"
	"github.com/ariefcatur/go-clothing-rental/internal/session"
	"github.com/ariefcatur/go-clothing-rental/internal/store"
	"github.com/ariefcatur/go-clothing-rental/internal/tracing"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logx.New(cfg.ServiceName, cfg.Env)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Setup(ctx, logger, tracing.Options{
		Service:     cfg.ServiceName,
		Environment: cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		logger.Fatalf("tracing init: %v", err)
	}

	// Store
	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("store: %v", err)
	}
	defer st.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("redis not reachable at startup")
	}

	// Kafka producers: created & returned (dua topic berbeda)
	engine := &rental.Engine{Store: st, Logger: logger, Service: cfg.ServiceName}
	var producers []*kafkax.Producer
	if len(cfg.KafkaBrokers) > 0 {
		pCreated := kafkax.NewProducer(cfg.KafkaBrokers, rental.TopicRentalCreated, 1024, logger)
		pCreated.Start(ctx)
		pReturned := kafkax.NewProducer(cfg.KafkaBrokers, rental.TopicRentalReturned, 1024, logger)
		pReturned.Start(ctx)
		engine.Created, engine.Returned = pCreated, pReturned
		producers = append(producers, pCreated, pReturned)
	}

	// Services & handler
	sink := &activity.RedisSink{RDB: rdb, FeedSize: cfg.ActivityFeedSize}
	h := &httpx.Handler{
		Engine:   engine,
		Identity: identity.NewService(st, logger, cfg.BcryptCost),
		Catalog: &catalog.Service{
			Store:         st,
			Cache:         &redisx.ProductCache{RDB: rdb, TTL: cfg.CatalogCacheTTL},
			Logger:        logger,
			FeaturedLimit: cfg.FeaturedLimit,
		},
		Sessions:     session.NewManager(cfg.SessionSecret, cfg.SessionTTL, &redisx.SessionStore{RDB: rdb}),
		Activity:     sink,
		Stats:        sink,
		Limiter:      &redisx.Limiter{RDB: rdb, Max: cfg.AuthRateLimit, Window: cfg.AuthRateWindow},
		RateMax:      cfg.AuthRateLimit,
		FeedLimit:    cfg.ActivityFeedSize,
		CookieSecure: cfg.CookieSecure,
		Logger:       logger,
	}
	router := httpx.NewRouter(logger, st)
	h.Register(router)

	// HTTP server
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           otelhttp.NewHandler(router, cfg.ServiceName),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// graceful shutdown
	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	for _, p := range producers {
		p.Close() // tutup inbox -> flush & close writer
	}
	flushCtx, cancelFlush := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelFlush()
	for _, p := range producers {
		if err := p.WaitClosed(flushCtx); err != nil {
			logger.WithError(err).Warn("kafka producer did not flush in time")
		}
	}
	cancel()
	if err := shutdownTracing(ctx2); err != nil {
		logger.WithError(err).Warn("tracing shutdown")
	}
}

// openStore builds the one store handle for the process. The memory driver is
// seeded on startup so a local run has a catalog to browse.
func openStore(ctx context.Context, cfg config.Config, logger *logrus.Logger) (store.Store, error) {
	if cfg.StoreDriver == "memory" {
		mem := store.NewMemory()
		sum, err := seed.Run(ctx, mem, seed.Admin{Email: cfg.SeedAdminEmail, Password: cfg.SeedAdminPassword}, cfg.BcryptCost, logger)
		if err != nil {
			return nil, err
		}
		logger.WithField("summary", sum.String()).Info("using in-memory store")
		return mem, nil
	}

	if cfg.MigrateOnStart {
		if err := postgres.Migrate(cfg.PostgresDSN, logger); err != nil {
			return nil, err
		}
	}
	pool, err := postgres.Connect(ctx, cfg.PostgresDSN, cfg.DBMaxConns)
	if err != nil {
		return nil, err
	}
	return postgres.NewStore(pool), nil
}
