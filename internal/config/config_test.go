package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluefermion/feedback-capture/internal/errors"
	"github.com/bluefermion/feedback-capture/internal/model"
	"github.com/bluefermion/feedback-capture/internal/version"
)

func validationCode(t *testing.T, err error) int {
	t.Helper()
	var ve *ValidationError
	require.True(t, errors.As(err, &ve), "expected ValidationError, got %v", err)
	return ve.Code
}

func TestNewMergesOverDefaults(t *testing.T) {
	cfg := New(Config{
		APIKey: "key",
		Log: LogConfig{
			CacheLength:         map[model.LogLevel]int{model.LogLevelError: 10},
			AddQueryParamsToLog: true,
		},
	})

	assert.Equal(t, "key", cfg.APIKey)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, version.Version, cfg.Version)
	assert.True(t, cfg.Log.AddQueryParamsToLog)
	assert.Equal(t, 10, cfg.Log.CacheLength[model.LogLevelError])
	assert.Equal(t, DefaultLogCacheLength, cfg.Log.CacheLength[model.LogLevelLog])
	assert.Len(t, cfg.Log.CacheLength, len(model.LogLevels))
}

func TestNewDoesNotShareDefaults(t *testing.T) {
	a := New(Config{Log: LogConfig{CacheLength: map[model.LogLevel]int{model.LogLevelLog: 1}}})
	b := New(Config{})
	assert.Equal(t, 1, a.Log.CacheLength[model.LogLevelLog])
	assert.Equal(t, DefaultLogCacheLength, b.Log.CacheLength[model.LogLevelLog])
}

func TestValidate(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		assert.Equal(t, CodeMissingConfig, validationCode(t, Validate(nil)))
	})

	t.Run("negative cache length", func(t *testing.T) {
		cfg := New(Config{APIKey: "k"})
		cfg.Log.CacheLength[model.LogLevelWarn] = -1
		err := Validate(&cfg)
		assert.Equal(t, CodeInvalidField, validationCode(t, err))
	})

	t.Run("missing key with default url", func(t *testing.T) {
		cfg := New(Config{})
		err := Validate(&cfg)
		assert.Equal(t, CodeInvalidField, validationCode(t, err))
		assert.Contains(t, errors.FlattenHints(err), "FEEDBACK_API_KEY")
	})

	t.Run("missing key with custom url", func(t *testing.T) {
		cfg := New(Config{APIURL: "https://collector.example/api"})
		assert.NoError(t, Validate(&cfg))
	})

	t.Run("valid", func(t *testing.T) {
		cfg := New(Config{APIKey: "k"})
		assert.NoError(t, Validate(&cfg))
	})
}

func TestFromScriptQuery(t *testing.T) {
	cfg, err := FromScriptQuery("?apiKey=abc&apiUrl=https%3A%2F%2Fcollector.example%2Fapi&log.logCacheLength=%7B%22error%22%3A5%7D&log.addQueryParamsToLog=true&unknown=1")
	require.NoError(t, err)

	assert.Equal(t, "abc", cfg.APIKey)
	assert.Equal(t, "https://collector.example/api", cfg.APIURL)
	assert.Equal(t, map[model.LogLevel]int{model.LogLevelError: 5}, cfg.Log.CacheLength)
	assert.True(t, cfg.Log.AddQueryParamsToLog)
}

func TestFromScriptQueryAddQueryParams(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"false", false},
		{"true", true},
		{"1", true},
		{"", true},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			cfg, err := FromScriptQuery("log.addQueryParamsToLog=" + tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Log.AddQueryParamsToLog)
		})
	}
}

func TestFromScriptQueryErrors(t *testing.T) {
	_, err := FromScriptQuery("log.logCacheLength=not-json")
	assert.Error(t, err)

	cfg, err := FromScriptQuery("")
	require.NoError(t, err)
	assert.Equal(t, Config{}, cfg)
}

func TestLoad(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("api_key", "from-env")
	v.Set("log.cache_length.error", 7)
	v.Set("log.add_query_params", true)

	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.APIKey)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, 7, cfg.Log.CacheLength[model.LogLevelError])
	assert.Equal(t, DefaultLogCacheLength, cfg.Log.CacheLength[model.LogLevelDebug])
	assert.True(t, cfg.Log.AddQueryParamsToLog)
}

func TestLoadRejectsMissingKey(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	_, err := Load(v)
	assert.Equal(t, CodeInvalidField, validationCode(t, err))
}

func TestLoadServer(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("api_keys", "a, b,,c")
	v.Set("kafka.brokers", "k1:9092,k2:9092")
	v.Set("minio.endpoint", "localhost:9000")

	cfg, err := LoadServer(v)
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "feedback.db", cfg.DBPath)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.APIKeys)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, "feedback", cfg.KafkaTopic)
	assert.True(t, cfg.MinioEnabled())
	assert.Equal(t, "feedback-screenshots", cfg.MinioBucket)
}

func TestServerConfigValidate(t *testing.T) {
	base := ServerConfig{Port: "8080", DBPath: "x.db"}
	assert.NoError(t, base.Validate())

	noPort := base
	noPort.Port = ""
	assert.Error(t, noPort.Validate())

	noTopic := base
	noTopic.KafkaBrokers = []string{"k:9092"}
	assert.Error(t, noTopic.Validate())

	noBucket := base
	noBucket.MinioEndpoint = "localhost:9000"
	assert.Error(t, noBucket.Validate())
}
