package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
	Events  EventsConfig  `mapstructure:"events"`
	Monitor MonitorConfig `mapstructure:"monitor"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level           string `mapstructure:"level"`
	Format          string `mapstructure:"format"`
	Output          string `mapstructure:"output"`
	EnableJSON      bool   `mapstructure:"enable_json"`
	EnableAsync     bool   `mapstructure:"enable_async"`
	AsyncBufferSize int    `mapstructure:"async_buffer_size"`
}

// EventsConfig holds event bus configuration
type EventsConfig struct {
	SubscriberBuffer int `mapstructure:"subscriber_buffer"`
}

// MonitorConfig holds bridge health monitoring configuration
type MonitorConfig struct {
	CheckInterval time.Duration `mapstructure:"check_interval"`
	CheckTimeout  time.Duration `mapstructure:"check_timeout"`
	// Bridges maps bridge JID to the URL of its health endpoint.
	Bridges map[string]string `mapstructure:"bridges"`
}

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	bridges, err := ParseBridges(getEnvOrDefault("BRIDGES", ""))
	if err != nil {
		return nil, fmt.Errorf("failed to parse BRIDGES: %w", err)
	}

	config := &Config{
		Server: ServerConfig{
			Port:         getEnvOrDefault("PORT", "8888"),
			Host:         getEnvOrDefault("HOST", "0.0.0.0"),
			ReadTimeout:  getEnvDurationOrDefault("READ_TIMEOUT", "30s"),
			WriteTimeout: getEnvDurationOrDefault("WRITE_TIMEOUT", "30s"),
			IdleTimeout:  getEnvDurationOrDefault("IDLE_TIMEOUT", "120s"),
		},
		Logging: LoggingConfig{
			Level:           getEnvOrDefault("LOG_LEVEL", "info"),
			Format:          getEnvOrDefault("LOG_FORMAT", "json"),
			Output:          getEnvOrDefault("LOG_OUTPUT", "stdout"),
			EnableJSON:      getEnvBoolOrDefault("LOG_ENABLE_JSON", true),
			EnableAsync:     getEnvBoolOrDefault("LOG_ASYNC", false),
			AsyncBufferSize: getEnvIntOrDefault("LOG_ASYNC_BUFFER_SIZE", 10000),
		},
		Events: EventsConfig{
			SubscriberBuffer: getEnvIntOrDefault("EVENT_SUBSCRIBER_BUFFER", 64),
		},
		Monitor: MonitorConfig{
			CheckInterval: getEnvDurationOrDefault("BRIDGE_CHECK_INTERVAL", "10s"),
			CheckTimeout:  getEnvDurationOrDefault("BRIDGE_CHECK_TIMEOUT", "5s"),
			Bridges:       bridges,
		},
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// ParseBridges parses a comma separated list of jid=healthURL pairs.
func ParseBridges(value string) (map[string]string, error) {
	bridges := make(map[string]string)
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		jid, rawURL, found := strings.Cut(entry, "=")
		jid, rawURL = strings.TrimSpace(jid), strings.TrimSpace(rawURL)
		if !found || jid == "" || rawURL == "" {
			return nil, fmt.Errorf("invalid bridge entry %q, expected jid=url", entry)
		}
		if _, dup := bridges[jid]; dup {
			return nil, fmt.Errorf("duplicate bridge %q", jid)
		}
		u, err := url.Parse(rawURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("invalid health URL for bridge %q: %q", jid, rawURL)
		}
		bridges[jid] = rawURL
	}
	return bridges, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return errors.New("server port cannot be empty")
	}

	if c.Monitor.CheckInterval <= 0 {
		return errors.New("bridge check interval must be positive")
	}

	if c.Monitor.CheckTimeout <= 0 {
		return errors.New("bridge check timeout must be positive")
	}

	if c.Events.SubscriberBuffer <= 0 {
		return errors.New("event subscriber buffer must be positive")
	}

	validLevels := []string{"debug", "info", "warn", "warning", "error"}
	if !slices.Contains(validLevels, strings.ToLower(c.Logging.Level)) {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue string) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	duration, _ := time.ParseDuration(defaultValue)
	return duration
}
