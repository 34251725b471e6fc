// Package config loads settings from defaults, an optional TOML file and the
// environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Setting keys. Each is also read from the upper-cased environment variable.
const (
	KeyAPIURL            = "linkace_api_url"
	KeyAPIToken          = "linkace_api_token"
	KeyHTTPClientTimeout = "http_client_timeout_ms"
	KeyCacheTTL          = "cache_ttl_ms"
	KeyCacheMaxItems     = "cache_max_items"
	KeyDebounce          = "debounce_ms"
	KeyActivateSettle    = "activate_settle_ms"
	KeySuggestionLimit   = "suggestion_limit"
	KeyValidateResponses = "validate_responses"
	KeyLogLevel          = "log_level"
	KeyLogFormat         = "log_format"
	KeyLogFile           = "log_file"
	KeyLogMaxSizeMB      = "log_max_size_mb"
	KeyLogMaxBackups     = "log_max_backups"
	KeyLogMaxAgeDays     = "log_max_age_days"
	KeyLogCompress       = "log_compress"
)

const (
	configName = "config"
	configType = "toml"
	configDir  = "linkace"
)

// Config holds all runtime settings.
type Config struct {
	APIURL            string        // LINKACE_API_URL
	APIToken          string        // LINKACE_API_TOKEN
	HTTPClientTimeout time.Duration // HTTP_CLIENT_TIMEOUT_MS, default 5000ms
	CacheTTL          time.Duration // CACHE_TTL_MS, default 60000ms
	CacheMaxItems     int           // CACHE_MAX_ITEMS, default 4096
	Debounce          time.Duration // DEBOUNCE_MS, default 250ms
	ActivateSettle    time.Duration // ACTIVATE_SETTLE_MS, default 100ms
	SuggestionLimit   int           // SUGGESTION_LIMIT, default 10
	ValidateResponses bool          // VALIDATE_RESPONSES, default true

	LogLevel      string // LOG_LEVEL, default "info"
	LogFormat     string // LOG_FORMAT, "text" or "json"
	LogFile       string // LOG_FILE, default "" (stderr only)
	LogMaxSizeMB  int    // LOG_MAX_SIZE_MB, default 10
	LogMaxBackups int    // LOG_MAX_BACKUPS, default 3
	LogMaxAgeDays int    // LOG_MAX_AGE_DAYS, default 28
	LogCompress   bool   // LOG_COMPRESS, default true

	// File is the config file that was read, if any.
	File string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyAPIURL, "")
	v.SetDefault(KeyAPIToken, "")
	v.SetDefault(KeyHTTPClientTimeout, 5000)
	v.SetDefault(KeyCacheTTL, 60000)
	v.SetDefault(KeyCacheMaxItems, 4096)
	v.SetDefault(KeyDebounce, 250)
	v.SetDefault(KeyActivateSettle, 100)
	v.SetDefault(KeySuggestionLimit, 10)
	v.SetDefault(KeyValidateResponses, true)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyLogMaxSizeMB, 10)
	v.SetDefault(KeyLogMaxBackups, 3)
	v.SetDefault(KeyLogMaxAgeDays, 28)
	v.SetDefault(KeyLogCompress, true)
}

// Load reads the configuration. An explicit path must exist; without one,
// config.toml is looked up in the user config directory and skipped when
// absent.
func Load(path string) (*Config, error) {
	return LoadFrom(viper.New(), path)
}

// LoadFrom is Load on a caller-supplied viper instance.
func LoadFrom(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName(configName)
		v.SetConfigType(configType)
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, configDir))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		}
	}

	cfg := &Config{
		APIURL:            v.GetString(KeyAPIURL),
		APIToken:          v.GetString(KeyAPIToken),
		HTTPClientTimeout: millis(v, KeyHTTPClientTimeout),
		CacheTTL:          millis(v, KeyCacheTTL),
		CacheMaxItems:     v.GetInt(KeyCacheMaxItems),
		Debounce:          millis(v, KeyDebounce),
		ActivateSettle:    millis(v, KeyActivateSettle),
		SuggestionLimit:   v.GetInt(KeySuggestionLimit),
		ValidateResponses: v.GetBool(KeyValidateResponses),

		LogLevel:      v.GetString(KeyLogLevel),
		LogFormat:     v.GetString(KeyLogFormat),
		LogFile:       v.GetString(KeyLogFile),
		LogMaxSizeMB:  v.GetInt(KeyLogMaxSizeMB),
		LogMaxBackups: v.GetInt(KeyLogMaxBackups),
		LogMaxAgeDays: v.GetInt(KeyLogMaxAgeDays),
		LogCompress:   v.GetBool(KeyLogCompress),

		File: v.ConfigFileUsed(),
	}
	return cfg, nil
}

// Configured reports whether both the API URL and token are set.
func (c *Config) Configured() bool {
	return c.APIURL != "" && c.APIToken != ""
}

func millis(v *viper.Viper, key string) time.Duration {
	return time.Duration(v.GetInt(key)) * time.Millisecond
}
