package commands

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/bluefermion/feedback-capture/internal/blobstore"
	"github.com/bluefermion/feedback-capture/internal/config"
	"github.com/bluefermion/feedback-capture/internal/errors"
	"github.com/bluefermion/feedback-capture/internal/handler"
	"github.com/bluefermion/feedback-capture/internal/logger"
	"github.com/bluefermion/feedback-capture/internal/repository"
	"github.com/bluefermion/feedback-capture/internal/transport"
)

// ServeCmd starts the collector.
var ServeCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"server"},
	Short:   "Start the feedback collector",
	Long: `Start the HTTP collector that receives feedback payloads.

Payloads are stored in SQLite. When MinIO is configured, screenshots are
uploaded to the bucket instead of being kept inline. When Kafka brokers are
configured, every accepted payload is also published to the topic.`,
	RunE: runServe,
}

func init() {
	f := ServeCmd.Flags()
	f.String("port", "8080", "Port to listen on")
	f.String("db-path", "feedback.db", "SQLite database path")
	f.String("api-keys", "", "Comma-separated accepted API keys (empty accepts any)")
	f.String("kafka-brokers", "", "Comma-separated Kafka brokers for the relay")
	f.String("kafka-topic", "feedback", "Kafka topic for the relay")
	f.String("minio-endpoint", "", "MinIO endpoint for screenshots")
	f.String("minio-access-key", "", "MinIO access key")
	f.String("minio-secret-key", "", "MinIO secret key")
	f.Bool("minio-tls", false, "Use TLS for MinIO")
	f.String("minio-bucket", "feedback-screenshots", "MinIO bucket")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadServer(settings())
	if err != nil {
		return err
	}
	log := logger.Named("collector")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := repository.NewSQLiteRepository(cfg.DBPath)
	if err != nil {
		return errors.Wrap(err, "failed to initialize database")
	}
	defer repo.Close()

	opts := handler.Options{Store: repo, APIKeys: cfg.APIKeys, Logger: log}

	if cfg.MinioEnabled() {
		blobs, err := blobstore.NewMinIO(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioUseTLS, cfg.MinioBucket)
		if err != nil {
			return err
		}
		if err := blobs.EnsureBucket(ctx); err != nil {
			return err
		}
		opts.Blobs = blobs
		log.Infow("Screenshots go to object storage", "endpoint", cfg.MinioEndpoint, "bucket", cfg.MinioBucket)
	}

	if cfg.KafkaEnabled() {
		relay := transport.NewKafka(transport.NewKafkaWriter(cfg.KafkaBrokers), log)
		defer relay.Close()
		opts.Relay = relay
		opts.RelayTopic = cfg.KafkaTopic
		log.Infow("Relaying feedback to Kafka", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	h := handler.NewFeedbackHandler(opts)
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler.NewRouter(h, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("Starting server", "addr", srv.Addr, "db", cfg.DBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "server failed")
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	h.Wait()
	return nil
}
