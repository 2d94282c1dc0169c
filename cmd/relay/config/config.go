// Package config provides configuration parsing and management for the relay.
//
// It handles both command-line flags and environment variables, with flags taking
// precedence over environment variables.
//
// Supported configuration sources (in order of precedence):
//  1. Command-line flags
//  2. Environment variables
//  3. Default values
//
// Example usage:
//
//	cfg := config.ParseFlags()
//	// cfg now contains validated configuration
package config

import (
	"flag"
	"fmt"
	"os"
	"time"
)

type Config struct {
	Listen         string
	HTTPListen     string
	MonitorURL     string
	RequestTimeout time.Duration
	LogFormat      string
	LogLevel       string
}

func ParseFlags() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.Listen, "listen", getEnv("RELAY_LISTEN", ":50051"), "gRPC listen address")
	flag.StringVar(&cfg.HTTPListen, "http-listen", getEnv("RELAY_HTTP_LISTEN", ":8082"), "HTTP listen address for /healthz and /metrics")
	flag.StringVar(&cfg.MonitorURL, "monitor-url", getEnv("MONITOR_URL", "http://localhost:8080"), "Monitor HTTP endpoint")
	flag.DurationVar(&cfg.RequestTimeout, "request-timeout", getEnvDuration("REQUEST_TIMEOUT", 5*time.Second), "Timeout for snapshot requests to the monitor")
	flag.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "Log format (text|json)")
	flag.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level (debug|info|warn|error)")

	flag.Parse()

	// Validation
	if cfg.MonitorURL == "" {
		fmt.Fprintln(os.Stderr, "Error: -monitor-url is required")
		flag.Usage()
		os.Exit(1)
	}

	return cfg
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
