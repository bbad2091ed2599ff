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
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/ariefcatur/go-clothing-rental/internal/activity"
	"github.com/ariefcatur/go-clothing-rental/internal/config"
	kafkax "github.com/ariefcatur/go-clothing-rental/internal/kafka"
	"github.com/ariefcatur/go-clothing-rental/internal/logx"
	"github.com/ariefcatur/go-clothing-rental/internal/redisx"
	"github.com/ariefcatur/go-clothing-rental/internal/rental"
	"github.com/ariefcatur/go-clothing-rental/internal/tracing"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	service := cfg.ServiceName + "-activity"
	logger := logx.New(service, cfg.Env)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Setup(ctx, logger, tracing.Options{
		Service:     service,
		Environment: cfg.Env,
		Endpoint:    cfg.OTLPEndpoint,
		Insecure:    cfg.OTLPInsecure,
		SampleRatio: cfg.TraceSampleRatio,
	})
	if err != nil {
		logger.Fatalf("tracing init: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer rdb.Close()

	// Service
	svc := &activity.Service{
		Sink:   &activity.RedisSink{RDB: rdb, Service: service, FeedSize: cfg.ActivityFeedSize},
		Logger: logger,
	}

	// Consumer: kedua topic rental dalam satu group
	topics := []string{rental.TopicRentalCreated, rental.TopicRentalReturned}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.ActivityGroup, topics, cfg.ActivityWorkers, logger)

	done := make(chan struct{})
	go func() {
		defer close(done)
		logger.WithFields(logrus.Fields{
			"group": cfg.ActivityGroup, "topics": topics, "workers": cfg.ActivityWorkers,
		}).Info("activity consumer started")
		if err := cons.Start(ctx, svc.HandleRentalEvent); err != nil {
			logger.WithError(err).Error("consumer exit")
			cancel()
		}
	}()

	// metrics only; the consumer has no other HTTP surface
	metricsSrv := &http.Server{Addr: cfg.ActivityMetricsAddr, Handler: promhttp.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server")
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	logger.Info("shutting down consumer...")
	cancel()
	<-done

	ctx2, cancel2 := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel2()
	_ = metricsSrv.Shutdown(ctx2)
	if err := shutdownTracing(ctx2); err != nil {
		logger.WithError(err).Warn("tracing shutdown")
	}
}
