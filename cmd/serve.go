package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/givepoint/donation-gateway/internal/config"
	"github.com/givepoint/donation-gateway/internal/content"
	"github.com/givepoint/donation-gateway/internal/db"
	"github.com/givepoint/donation-gateway/internal/fulfillment"
	httpSrv "github.com/givepoint/donation-gateway/internal/http"
	"github.com/givepoint/donation-gateway/internal/logger"
	"github.com/givepoint/donation-gateway/internal/mail"
	"github.com/givepoint/donation-gateway/internal/metrics"
	"github.com/givepoint/donation-gateway/internal/notifier"
	"github.com/givepoint/donation-gateway/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger.Init(cfg.Log.Level)
		zlog := logger.L()
		defer func() { _ = zlog.Sync() }()

		metrics.MustRegister(prometheus.DefaultRegisterer)

		// idempotency store: redis when configured, in-process otherwise
		var fulfillments repository.FulfillmentsRepository
		if cfg.Redis.Addr != "" {
			redisClient, err := db.NewRedisClient(db.RedisOpts{
				Addr:        cfg.Redis.Addr,
				Password:    cfg.Redis.Password,
				DB:          cfg.Redis.DB,
				DialTimeout: cfg.Redis.DialTimeout,
			})
			if err != nil {
				return fmt.Errorf("redis connect: %w", err)
			}
			defer func() { _ = redisClient.Close() }()
			fulfillments = repository.NewRedisFulfillmentsRepository(redisClient, cfg.Dedup.KeyPrefix, cfg.Dedup.TTL)
		} else {
			log.Printf("redis not configured, duplicate suppression is per-process only")
			fulfillments = repository.NewMemoryFulfillmentsRepository()
		}

		gen := content.NewGeminiGenerator(
			cfg.Generator.Endpoint,
			cfg.Generator.Model,
			cfg.Generator.APIKey,
			cfg.Generator.TimeoutMs,
			cfg.Generator.Breaker.FailThreshold,
			cfg.Generator.Breaker.OpenForMs,
			zlog,
		)

		mailer := mail.NewSMTPMailer(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Username,
			cfg.SMTP.Password,
			cfg.SMTP.From,
			cfg.SMTP.Timeout,
		)

		var stream notifier.Notifier = notifier.Noop{}
		if len(cfg.Kafka.Brokers) > 0 {
			kn := notifier.NewKafkaNotifier(cfg.Kafka.Brokers, cfg.Kafka.Topic)
			defer func() { _ = kn.Close() }()
			stream = kn
		}

		svc := fulfillment.New(gen, mailer, fulfillments, stream, cfg.Receipt.Subject, cfg.Receipt.CauseName, zlog)
		server := httpSrv.NewServer(svc)

		errCh := make(chan error, 1)
		go func() {
			log.Printf("starting http on %s", cfg.HTTP.Addr)
			errCh <- server.Start(cfg.HTTP.Addr)
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-sigCh:
			log.Printf("signal received: %s, shutting down...", sig)
		case err := <-errCh:
			if err != nil {
				log.Printf("http server exited: %v", err)
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)

		return nil
	},
}
