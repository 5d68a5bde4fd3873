package config

import (
	"strings"

	"github.com/spf13/viper"

	"github.com/bluefermion/feedback-capture/internal/errors"
)

// ServerConfig aggregates the settings of the collection endpoint.
type ServerConfig struct {
	Port   string
	DBPath string
	// APIKeys lists the accepted keys. Empty accepts any non-empty key.
	APIKeys []string

	KafkaBrokers []string
	KafkaTopic   string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseTLS    bool
	MinioBucket    string
}

// KafkaEnabled reports whether accepted payloads are relayed to Kafka.
func (c ServerConfig) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// MinioEnabled reports whether screenshots go to object storage.
func (c ServerConfig) MinioEnabled() bool {
	return c.MinioEndpoint != ""
}

// LoadServer reads the collector configuration; pass nil for a fresh viper.
func LoadServer(v *viper.Viper) (ServerConfig, error) {
	if v == nil {
		v = NewViper()
	}

	cfg := ServerConfig{
		Port:           v.GetString("port"),
		DBPath:         v.GetString("db_path"),
		APIKeys:        parseCSV(v.GetString("api_keys")),
		KafkaBrokers:   parseCSV(v.GetString("kafka.brokers")),
		KafkaTopic:     v.GetString("kafka.topic"),
		MinioEndpoint:  v.GetString("minio.endpoint"),
		MinioAccessKey: v.GetString("minio.access_key"),
		MinioSecretKey: v.GetString("minio.secret_key"),
		MinioUseTLS:    v.GetBool("minio.use_tls"),
		MinioBucket:    v.GetString("minio.bucket"),
	}
	if err := cfg.Validate(); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

// Validate ensures configuration is sane before the server starts.
func (c ServerConfig) Validate() error {
	if c.Port == "" {
		return errors.New("port is required")
	}
	if c.DBPath == "" {
		return errors.New("db path is required")
	}
	if c.KafkaEnabled() && c.KafkaTopic == "" {
		return errors.WithHint(errors.New("kafka topic is required when brokers are set"),
			"set FEEDBACK_KAFKA_TOPIC")
	}
	if c.MinioEnabled() && c.MinioBucket == "" {
		return errors.WithHint(errors.New("minio bucket is required when an endpoint is set"),
			"set FEEDBACK_MINIO_BUCKET")
	}
	return nil
}

// parseCSV splits a comma-separated list, dropping empty entries.
func parseCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
