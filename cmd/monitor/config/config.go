// Package config implements the pulsewatch monitor config.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all monitor configuration.
type Config struct {
	Listen string
	Device string

	// Source
	Source         string
	DeviceURL      string
	PollInterval   time.Duration
	RequestTimeout time.Duration
	AutoConnect    bool
	I2CBus         string
	I2CAddr        int
	SimHeartRate   float64
	SimNoise       float64
	SimSeed        int

	// Output
	TailLength int
	StaleAfter time.Duration

	// Storage
	Storage       string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTTL      time.Duration

	// Fan-out
	NATSURL     string
	NATSSubject string

	LogFormat string
	LogLevel  string
}

// ParseFlags parses command-line flags and environment variables into a Config.
// Exits with status 1 if the configuration is inconsistent.
// Environment variables are used as fallbacks when flags are not provided.
func ParseFlags() *Config {
	cfg := &Config{}

	// Server
	flag.StringVar(&cfg.Listen, "listen", getEnv("LISTEN", ":8080"), "HTTP listen address")
	flag.StringVar(&cfg.Device, "device", getEnv("DEVICE", "ppg-0"), "Device ID used in snapshots, metrics and subjects")

	// Source
	flag.StringVar(&cfg.Source, "source", getEnv("SOURCE", "http"), "Sample source: http, i2c or sim")
	flag.StringVar(&cfg.DeviceURL, "device-url", getEnv("DEVICE_URL", ""), "Sensor address for the http source (required with -source=http)")
	flag.DurationVar(&cfg.PollInterval, "poll-interval", getEnvDuration("POLL_INTERVAL", 250*time.Millisecond), "Sampling interval")
	flag.DurationVar(&cfg.RequestTimeout, "request-timeout", getEnvDuration("REQUEST_TIMEOUT", 2*time.Second), "Timeout for one sensor read")
	flag.BoolVar(&cfg.AutoConnect, "autoconnect", getEnvBool("AUTOCONNECT", false), "Connect to the sensor at startup")
	flag.StringVar(&cfg.I2CBus, "i2c-bus", getEnv("I2C_BUS", ""), "I2C bus name for the i2c source (empty picks the first)")
	flag.IntVar(&cfg.I2CAddr, "i2c-addr", getEnvInt("I2C_ADDR", 0x57), "I2C address of the MAX30102")
	flag.Float64Var(&cfg.SimHeartRate, "sim-hr", getEnvFloat("SIM_HR", 72), "Simulated heart rate in bpm")
	flag.Float64Var(&cfg.SimNoise, "sim-noise", getEnvFloat("SIM_NOISE", 0.03), "Simulated noise relative to the pulse amplitude")
	flag.IntVar(&cfg.SimSeed, "sim-seed", getEnvInt("SIM_SEED", 1), "Simulator seed")

	// Output
	flag.IntVar(&cfg.TailLength, "tail", getEnvInt("TAIL_LENGTH", 121), "Number of buffered values per channel included in snapshots")
	flag.DurationVar(&cfg.StaleAfter, "stale-after", getEnvDuration("STALE_AFTER", 2*time.Second), "Age after which /state marks a snapshot stale")

	// Storage
	flag.StringVar(&cfg.Storage, "storage", getEnv("STORAGE", "memory"), "Snapshot storage: memory or redis")
	flag.StringVar(&cfg.RedisAddr, "redis-addr", getEnv("REDIS_ADDR", "localhost:6379"), "Redis address")
	flag.StringVar(&cfg.RedisPassword, "redis-password", getEnv("REDIS_PASSWORD", ""), "Redis password")
	flag.IntVar(&cfg.RedisDB, "redis-db", getEnvInt("REDIS_DB", 0), "Redis database")
	flag.DurationVar(&cfg.RedisTTL, "redis-ttl", getEnvDuration("REDIS_TTL", time.Minute), "Snapshot TTL in redis")

	// Fan-out
	flag.StringVar(&cfg.NATSURL, "nats-url", getEnv("NATS_URL", ""), "NATS URL; empty disables publishing")
	flag.StringVar(&cfg.NATSSubject, "nats-subject", getEnv("NATS_SUBJECT", "pulsewatch.snapshot"), "NATS subject prefix")

	// Logging
	flag.StringVar(&cfg.LogFormat, "log-format", getEnv("LOG_FORMAT", "text"), "Log format: text or json")
	flag.StringVar(&cfg.LogLevel, "log-level", getEnv("LOG_LEVEL", "info"), "Log level: debug, info, warn, error")

	flag.Parse()

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		flag.Usage()
		os.Exit(1)
	}

	return cfg
}

// Validate checks that the selected source and storage are usable.
func (c *Config) Validate() error {
	switch c.Source {
	case "http":
		if c.DeviceURL == "" {
			return fmt.Errorf("-device-url is required with -source=http")
		}
	case "i2c", "sim":
	default:
		return fmt.Errorf("-source must be http, i2c or sim, got %q", c.Source)
	}

	if c.Device == "" {
		return fmt.Errorf("-device is required")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("-poll-interval must be positive")
	}
	if c.Storage != "memory" && c.Storage != "redis" {
		return fmt.Errorf("-storage must be memory or redis, got %q", c.Storage)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 0, 0); err == nil {
			return int(i)
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
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
