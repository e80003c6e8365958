// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"codeberg.org/mambo/dashboard/core/idgen"
)

// Global exposes the server configuration.
var Global ServerConfig

// Possible values for Log.Format.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// ServerConfig holds the application configuration.
type ServerConfig struct {
	Build buildInfo `yaml:"-"`

	Basic struct {
		Host                     string      `env:"DASHBOARD_HOST,overwrite" yaml:"host"`
		Port                     string      `env:"DASHBOARD_PORT,overwrite" yaml:"port"`
		UnixSocket               string      `env:"DASHBOARD_UNIXSOCKET" yaml:"unixSocket"`
		RawUnixSocketPermissions string      `env:"DASHBOARD_UNIXSOCKET_PERMISSIONS" yaml:"unixSocketPermissions"`
		UnixSocketPermissions    os.FileMode `yaml:"-"`
	} `yaml:"basic"`

	// Cache controls the in-memory cache of rendered header fragments.
	Cache struct {
		Enabled  bool `env:"DASHBOARD_CACHE,overwrite" yaml:"enabled"`
		Size     int  `env:"DASHBOARD_CACHE_SIZE,overwrite" yaml:"cacheSize"`
		Compress bool `env:"DASHBOARD_CACHE_COMPRESS,overwrite" yaml:"compress"`
	} `yaml:"cache"`

	HTTPCache struct {
		MaxAge               time.Duration `env:"DASHBOARD_CACHE_CONTROL_MAX_AGE,overwrite" yaml:"cacheControlMaxAge"`
		StaleWhileRevalidate time.Duration `env:"DASHBOARD_CACHE_CONTROL_STALE_WHILE_REVALIDATE,overwrite" yaml:"cacheControlStaleWhileRevalidate"`
	} `yaml:"httpCache"`

	Response struct {
		Compression bool `env:"DASHBOARD_RESPONSE_COMPRESSION,overwrite" yaml:"compression"`
	} `yaml:"response"`

	Limiter struct {
		Enabled    bool     `env:"DASHBOARD_LIMITER,overwrite" yaml:"enabled"`
		Rate       float64  `env:"DASHBOARD_LIMITER_RATE,overwrite" yaml:"rate"`
		Burst      int      `env:"DASHBOARD_LIMITER_BURST,overwrite" yaml:"burst"`
		PassIPs    []string `env:"DASHBOARD_LIMITER_PASS_IPS,overwrite" yaml:"passList"`
		BlockIPs   []string `env:"DASHBOARD_LIMITER_BLOCK_IPS,overwrite" yaml:"blockList"`
		IPv4Prefix int      `env:"DASHBOARD_LIMITER_IPV4_PREFIX,overwrite" yaml:"ipv4Prefix"`
		IPv6Prefix int      `env:"DASHBOARD_LIMITER_IPV6_PREFIX,overwrite" yaml:"ipv6Prefix"`

		// CheckHeaders marks requests with bot-like headers as suspicious,
		// moving their network onto the reduced rate.
		CheckHeaders bool `env:"DASHBOARD_LIMITER_CHECK_HEADERS,overwrite" yaml:"checkHeaders"`
	} `yaml:"limiter"`

	Metrics struct {
		Enabled bool   `env:"DASHBOARD_METRICS,overwrite" yaml:"enabled"`
		Path    string `env:"DASHBOARD_METRICS_PATH,overwrite" yaml:"path"`
	} `yaml:"metrics"`

	Instance struct {
		StartingTime      string `yaml:"-"`
		FileServerCacheID string `yaml:"-"`
		RepoURL           string `env:"DASHBOARD_REPO_URL,overwrite" yaml:"repoUrl"`
	} `yaml:"instance"`

	Development struct {
		InDevelopment bool `env:"DASHBOARD_DEV" yaml:"inDevelopment"`
	} `yaml:"development"`

	Log struct {
		Level   string   `env:"DASHBOARD_LOG_LEVEL,overwrite" yaml:"logLevel"`
		Outputs []string `env:"DASHBOARD_LOG_OUTPUTS,overwrite" yaml:"logOutputs"`
		Format  string   `env:"DASHBOARD_LOG_FORMAT,overwrite" yaml:"logFormat"`
	} `yaml:"log"`

	Internationalization struct {
		// DefaultLocale is served when a request expresses no usable preference.
		DefaultLocale string `env:"DASHBOARD_DEFAULT_LOCALE,overwrite" yaml:"defaultLocale"`

		// Strict mode for missing keys.
		//
		// When enabled, missing keys are logged (deduplicated per locale+key) and
		// visibly wrapped using markers.
		StrictMissingKeys bool `env:"DASHBOARD_STRICT_MISSING_KEYS" yaml:"strictMissingKeys"`
	} `yaml:"internationalization"`
}

// LoadConfig loads the configuration from various sources.
func (cfg *ServerConfig) LoadConfig() error {
	parsedConfigFlagValue := parseCommandLineArgs()

	// Check if the -config flag was explicitly set by the user.
	configFlagUserSet := false

	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			configFlagUserSet = true
		}
	})

	var configFilePath string

	// Precedence: -config flag, then DASHBOARD_CONFIGFILE, then ./config.yaml
	// with a fallback to ./config.yml.
	switch envVar := os.Getenv("DASHBOARD_CONFIGFILE"); {
	case configFlagUserSet:
		configFilePath = parsedConfigFlagValue
	case envVar != "":
		configFilePath = envVar
	default:
		configFilePath = parsedConfigFlagValue

		if _, err := os.Stat(configFilePath); os.IsNotExist(err) {
			ymlPath := "./config.yml"
			if _, statErr := os.Stat(ymlPath); statErr == nil {
				configFilePath = ymlPath
			}
		}
	}

	cfg.SetDefaults()

	cfg.Build.load()

	cfg.Instance.FileServerCacheID = idgen.Make()
	cfg.Instance.StartingTime = time.Now().UTC().Format("2006-01-02 15:04")

	if err := cfg.readYAML(configFilePath); err != nil {
		return fmt.Errorf("error loading YAML config: %w", err)
	}

	if err := useDotEnv(); err != nil {
		return fmt.Errorf("error using .env file: %w", err)
	}

	if err := readEnv(cfg); err != nil {
		return fmt.Errorf("error loading environment variables: %w", err)
	}

	if err := cfg.validateAndSet(); err != nil {
		return fmt.Errorf("configuration invalid: %w", err)
	}

	cfg.setupAudit()

	cfg.print()

	return nil
}

var staticSkippedPathPrefixes = []string{"/css/", "/img/", "/healthz"}

// ShouldSkipServerLogging determines if a request should bypass the logging middleware.
func (cfg *ServerConfig) ShouldSkipServerLogging(path string) bool {
	for _, prefix := range staticSkippedPathPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return cfg.Metrics.Enabled && path == cfg.Metrics.Path
}

// CacheControl returns the Cache-Control value for cacheable rendered pages.
func (cfg *ServerConfig) CacheControl() string {
	return fmt.Sprintf("public, max-age=%d, stale-while-revalidate=%d",
		int(cfg.HTTPCache.MaxAge.Seconds()),
		int(cfg.HTTPCache.StaleWhileRevalidate.Seconds()))
}

// GetDurationEncoderOption returns a YAML encoder option that marshals
// time.Duration into a human-readable string format (e.g., "30m", "1h").
func GetDurationEncoderOption() yaml.EncodeOption {
	return yaml.CustomMarshaler[time.Duration](
		func(d time.Duration) ([]byte, error) {
			return yaml.Marshal(d.String())
		},
	)
}
