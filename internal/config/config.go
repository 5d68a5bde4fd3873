// Package config builds the static configuration shared by every submission
// (API key, endpoint, client version, log capture sizes) and the settings of
// the collection endpoint.
//
// Values come from, in order of precedence: explicit flags bound by the CLI,
// FEEDBACK_* environment variables (optionally loaded from a .env file with
// godotenv), and the defaults below.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/bluefermion/feedback-capture/internal/errors"
	"github.com/bluefermion/feedback-capture/internal/model"
	"github.com/bluefermion/feedback-capture/internal/version"
)

// DefaultAPIURL is the collector endpoint started by `feedback serve`.
const DefaultAPIURL = "http://localhost:8080/api/feedback"

// DefaultLogCacheLength is the per-level capacity of the console log buffer.
const DefaultLogCacheLength = 100

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "FEEDBACK"

// Validation error codes.
const (
	CodeMissingConfig = 100
	CodeInvalidField  = 101
)

// LogConfig sizes the console log buffer.
type LogConfig struct {
	// CacheLength caps the number of entries kept per level.
	CacheLength map[model.LogLevel]int `mapstructure:"cache_length"`
	// AddQueryParamsToLog keeps query strings in logged URLs.
	AddQueryParamsToLog bool `mapstructure:"add_query_params"`
}

// Config is the static configuration consumed by the aggregator.
type Config struct {
	APIKey  string    `mapstructure:"api_key"`
	APIURL  string    `mapstructure:"api_url"`
	Version string    `mapstructure:"version"`
	Log     LogConfig `mapstructure:"log"`
}

// ValidationError reports an invalid configuration with a stable code.
type ValidationError struct {
	Code int
	Text string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config error %d: %s", e.Code, e.Text)
}

// DefaultLogConfig returns a LogConfig with every level at the default size.
func DefaultLogConfig() LogConfig {
	lengths := make(map[model.LogLevel]int, len(model.LogLevels))
	for _, level := range model.LogLevels {
		lengths[level] = DefaultLogCacheLength
	}
	return LogConfig{CacheLength: lengths}
}

// New merges a partial configuration over the defaults. Cache lengths that
// are not mentioned keep their default size.
func New(partial Config) Config {
	cfg := Config{
		APIKey:  partial.APIKey,
		APIURL:  DefaultAPIURL,
		Version: version.Version,
		Log:     DefaultLogConfig(),
	}
	if partial.APIURL != "" {
		cfg.APIURL = partial.APIURL
	}
	if partial.Version != "" {
		cfg.Version = partial.Version
	}
	for level, n := range partial.Log.CacheLength {
		cfg.Log.CacheLength[level] = n
	}
	cfg.Log.AddQueryParamsToLog = partial.Log.AddQueryParamsToLog
	return cfg
}

// Validate checks the configuration before it is used.
func Validate(cfg *Config) error {
	if cfg == nil {
		return &ValidationError{Code: CodeMissingConfig, Text: "config is missing"}
	}
	for level, n := range cfg.Log.CacheLength {
		if n < 0 {
			return errors.WithDetailf(
				&ValidationError{Code: CodeInvalidField, Text: "core config logCacheLength"},
				"level %q has negative length %d", level, n)
		}
	}
	if cfg.APIKey == "" && (cfg.APIURL == "" || cfg.APIURL == DefaultAPIURL) {
		return errors.WithHint(
			&ValidationError{Code: CodeInvalidField, Text: "apiKey is missing"},
			"set FEEDBACK_API_KEY or pass --api-key")
	}
	return nil
}

// Load reads the client configuration from the environment (and .env when
// present) through the given viper instance; pass nil for a fresh one.
func Load(v *viper.Viper) (Config, error) {
	if v == nil {
		v = NewViper()
	}

	partial := Config{
		APIKey:  v.GetString("api_key"),
		APIURL:  v.GetString("api_url"),
		Version: v.GetString("version"),
	}
	partial.Log.AddQueryParamsToLog = v.GetBool("log.add_query_params")
	partial.Log.CacheLength = make(map[model.LogLevel]int)
	for _, level := range model.LogLevels {
		key := "log.cache_length." + string(level)
		if v.IsSet(key) {
			partial.Log.CacheLength[level] = v.GetInt(key)
		}
	}

	cfg := New(partial)
	if err := Validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewViper returns a viper instance reading FEEDBACK_* variables. A .env file
// in the working directory is loaded first; it is fine for it to be missing.
func NewViper() *viper.Viper {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("version", version.Version)
	v.SetDefault("log.add_query_params", false)

	v.SetDefault("port", "8080")
	v.SetDefault("db_path", "feedback.db")
	v.SetDefault("api_keys", "")
	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "feedback")
	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.use_tls", false)
	v.SetDefault("minio.bucket", "feedback-screenshots")
}
