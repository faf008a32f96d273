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
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"safenest/internal/platform/config"
	"safenest/internal/platform/httpserver"
	"safenest/internal/platform/kafka"
	"safenest/internal/platform/logger"
	"safenest/internal/platform/metrics"
	"safenest/internal/seed"
	"safenest/pkg/platform/audit/outbox"
)

var (
	serveMigrate  bool
	serveSeedDemo bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", true, "apply database migrations on start-up")
	serveCmd.Flags().BoolVar(&serveSeedDemo, "seed-demo", false, "load demo requests and residents when the tables are empty")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	a, err := buildApp(ctx, cfg, log, m, serveMigrate)
	if err != nil {
		return err
	}
	defer a.close()

	if serveSeedDemo {
		res, err := seed.Demo(ctx, a.requestStore, a.residentStore, cfg.DefaultCaseManager)
		if err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
		log.InfoContext(ctx, "demo data loaded", "requests", res.Requests, "residents", res.Residents)
	}

	srv := httpserver.New(cfg, a.router(prometheus.DefaultGatherer))

	// Relay failures never cancel the server group.
	relayCtx, stopRelay := context.WithCancel(ctx)
	relayDone := make(chan struct{})
	if a.db != nil && len(cfg.Kafka.Brokers) > 0 {
		go func() {
			defer close(relayDone)
			superviseRelay(relayCtx, cfg.Kafka, a.outbox, newKafkaProducer, log)
		}()
	} else {
		close(relayDone)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting safenest", "addr", cfg.Addr, "postgres", a.db != nil, "redis", a.redis != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})

	err = g.Wait()
	stopRelay()
	<-relayDone
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// relayProducer is the part of the Kafka client the outbox relay uses.
type relayProducer interface {
	outbox.Producer
	EnsureTopic(ctx context.Context, topic string, partitions int32, replicationFactor int16) error
	Close()
}

type producerFactory func(ctx context.Context, brokers []string) (relayProducer, error)

func newKafkaProducer(ctx context.Context, brokers []string) (relayProducer, error) {
	p, err := kafka.NewProducer(ctx, brokers)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// superviseRelay keeps the audit outbox relay running until ctx ends.
// Connection and topic failures are logged and retried every poll interval;
// rows stay pending in the outbox meanwhile.
func superviseRelay(ctx context.Context, cfg config.KafkaConfig, source outbox.Source, connect producerFactory, log *slog.Logger) {
	retry := cfg.PollInterval
	if retry <= 0 {
		retry = 2 * time.Second
	}
	for {
		err := runRelay(ctx, cfg, source, connect, log)
		if ctx.Err() != nil {
			return
		}
		log.ErrorContext(ctx, "audit outbox relay unavailable, retrying",
			"error", err,
			"retry_in", retry.String(),
		)
		select {
		case <-ctx.Done():
			return
		case <-time.After(retry):
		}
	}
}

// runRelay publishes committed audit outbox rows to Kafka until ctx ends.
func runRelay(ctx context.Context, cfg config.KafkaConfig, source outbox.Source, connect producerFactory, log *slog.Logger) error {
	producer, err := connect(ctx, cfg.Brokers)
	if err != nil {
		return fmt.Errorf("connect to kafka: %w", err)
	}
	defer producer.Close()

	if err := producer.EnsureTopic(ctx, cfg.AuditTopic, 1, 1); err != nil {
		return fmt.Errorf("ensure audit topic: %w", err)
	}
	relay := outbox.NewRelay(source, producer, cfg.AuditTopic,
		outbox.WithInterval(cfg.PollInterval),
		outbox.WithBatchSize(cfg.BatchSize),
		outbox.WithLogger(log),
	)
	log.InfoContext(ctx, "audit outbox relay started", "topic", cfg.AuditTopic)
	return relay.Run(ctx)
}
