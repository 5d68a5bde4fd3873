package config

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/bluefermion/feedback-capture/internal/errors"
	"github.com/bluefermion/feedback-capture/internal/model"
)

// FromScriptQuery parses the query string of the script tag that loaded the
// client, e.g. `?apiKey=abc&log.addQueryParamsToLog=true`. Unknown keys are
// ignored. The result is a partial configuration; pass it through New.
func FromScriptQuery(rawQuery string) (Config, error) {
	var cfg Config
	rawQuery = strings.TrimPrefix(rawQuery, "?")
	if rawQuery == "" {
		return cfg, nil
	}

	for _, pair := range strings.Split(rawQuery, "&") {
		key, value, _ := strings.Cut(pair, "=")
		switch key {
		case "apiKey":
			cfg.APIKey = value
		case "apiUrl":
			decoded, err := url.PathUnescape(value)
			if err != nil {
				return Config{}, errors.Wrapf(err, "decode apiUrl %q", value)
			}
			cfg.APIURL = decoded
		case "log.logCacheLength":
			decoded, err := url.QueryUnescape(value)
			if err != nil {
				return Config{}, errors.Wrap(err, "decode log.logCacheLength")
			}
			lengths := make(map[model.LogLevel]int)
			if err := json.Unmarshal([]byte(decoded), &lengths); err != nil {
				return Config{}, errors.Wrap(err, "parse log.logCacheLength")
			}
			cfg.Log.CacheLength = lengths
		case "log.addQueryParamsToLog":
			cfg.Log.AddQueryParamsToLog = value != "false"
		}
	}
	return cfg, nil
}
