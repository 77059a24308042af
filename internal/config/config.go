// Package config provides configuration loading for the dispatch service.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the dispatch service
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	NATS    NATSConfig    `mapstructure:"nats"`
	Rules   RulesConfig   `mapstructure:"rules"`
	Iris    IrisConfig    `mapstructure:"iris"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// NATSConfig holds NATS message broker configuration
type NATSConfig struct {
	URL           string        `mapstructure:"url"`
	Enabled       bool          `mapstructure:"enabled"`
	Subject       string        `mapstructure:"subject"`
	Queue         string        `mapstructure:"queue"`
	MaxReconnects int           `mapstructure:"max_reconnects"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
}

// RulesConfig holds rule definition loading settings
type RulesConfig struct {
	Dir string `mapstructure:"dir"`
}

// IrisConfig holds service-wide IRIS connection defaults. Rule files may
// override any of these per rule.
type IrisConfig struct {
	Host            string        `mapstructure:"host"`
	APIToken        string        `mapstructure:"api_token"`
	CustomerID      int           `mapstructure:"customer_id"`
	CACert          string        `mapstructure:"ca_cert"`
	IgnoreSSLErrors bool          `mapstructure:"ignore_ssl_errors"`
	Timeout         time.Duration `mapstructure:"timeout"`
	AlertSource     string        `mapstructure:"alert_source"`
}

// Load reads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8087)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("nats.url", "nats://nats:4222")
	v.SetDefault("nats.enabled", true)
	v.SetDefault("nats.subject", "respond.alerts.triggered")
	v.SetDefault("nats.queue", "iris-dispatch")
	v.SetDefault("nats.max_reconnects", -1)
	v.SetDefault("nats.reconnect_wait", "2s")

	v.SetDefault("rules.dir", "rules")

	v.SetDefault("iris.customer_id", 1)
	v.SetDefault("iris.timeout", "30s")
	v.SetDefault("iris.alert_source", "TelHawk")

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/telhawk/iris")
	}

	// Environment variables override (IRIS_NATS_URL, etc.)
	v.SetEnvPrefix("IRIS")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config - ignore file not found for defaults
	if err := v.ReadInConfig(); err != nil {
		// Only fail if a specific config path was given
		if configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Otherwise use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
