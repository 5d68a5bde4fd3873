// Package commands implements the feedback CLI subcommands.
package commands

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/bluefermion/feedback-capture/internal/config"
)

// flagKeys maps CLI flags onto configuration keys.
var flagKeys = map[string]string{
	"api-key":          "api_key",
	"api-url":          "api_url",
	"port":             "port",
	"db-path":          "db_path",
	"api-keys":         "api_keys",
	"kafka-brokers":    "kafka.brokers",
	"kafka-topic":      "kafka.topic",
	"minio-endpoint":   "minio.endpoint",
	"minio-access-key": "minio.access_key",
	"minio-secret-key": "minio.secret_key",
	"minio-tls":        "minio.use_tls",
	"minio-bucket":     "minio.bucket",
	"query-params":     "log.add_query_params",
}

var v *viper.Viper

// BindFlags loads the environment and binds the flags of cmd that carry a
// configuration key.
func BindFlags(cmd *cobra.Command) error {
	v = config.NewViper()
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || err != nil {
			return
		}
		err = v.BindPFlag(key, f)
	})
	return err
}

func settings() *viper.Viper {
	if v == nil {
		v = config.NewViper()
	}
	return v
}
