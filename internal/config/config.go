package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const QR_IMAGE_SIZE = 512

type Config struct {
	LogLevel string `mapstructure:"log_level"`
	// Address the HTTP server listens on.
	Listen string `mapstructure:"listen"`

	// Comma separated list of allowed CIDR networks. Empty means allow all.
	AllowedNetworks string `mapstructure:"allowed_networks"`

	// Public origin used in QR references, e.g. https://lab.example.com. When empty the
	// origin is detected from the request.
	BaseURL string `mapstructure:"base_url"`

	// QR image size in pixels
	QRSize int `mapstructure:"qr_size"`

	MetricsEnabled bool `mapstructure:"metrics_enabled"`

	Storage Storage `mapstructure:"storage"`
}

var Cfg *Config

// Check if running in Docker container by checking for the presence of /.dockerenv file
func runningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}
	return false
}

func getConfigPath() string {
	if runningInDocker() {
		return "/app/instance"
	}
	return "./instance"
}

// LoadConfig reads config.yaml (if any) and environment variables. Nested keys map to
// env variables with "_", e.g. STORAGE_REMOTE_DSN.
func LoadConfig(configFile ...string) (*Config, error) {
	var cfg Config

	v := viper.New()
	v.SetConfigName("config")
	v.AddConfigPath(getConfigPath())
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for _, path := range configFile {
		v.SetConfigFile(path)
	}

	for k, val := range Defaults() {
		v.SetDefault(k, val)
	}

	// No default, so the key must be bound for env lookup to reach Unmarshal.
	if err := v.BindEnv("storage.remote.dsn"); err != nil {
		return nil, fmt.Errorf("unable to bind env: %w", err)
	}

	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("unable to read config file: %w", err)
		}
		slog.Debug("No config file found, using defaults and environment")
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %v", err)
	}

	if cfg.Storage.Remote != nil && cfg.Storage.Remote.DSN == "" {
		cfg.Storage.Remote = nil
	}

	// Convert relative sqlite path to absolute instance folder
	if cfg.Storage.Local != nil {
		switch path := cfg.Storage.Local.Path; {
		case path == "":
			cfg.Storage.Local = nil
		case path == ":memory:":
			// In-memory database, do nothing
		case !os.IsPathSeparator(path[0]):
			cfg.Storage.Local.Path = fmt.Sprintf("%s/%s", getConfigPath(), strings.TrimPrefix(path, "./"))
		}
	}

	if cfg.QRSize <= 0 {
		slog.Warn("QR_SIZE must be positive, using default", slog.Int("actual", cfg.QRSize), slog.Int("default", QR_IMAGE_SIZE))
		cfg.QRSize = QR_IMAGE_SIZE
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	Cfg = &cfg
	return &cfg, nil
}
