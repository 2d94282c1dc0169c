// Package config implements the sensorsim config.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	Listen     string
	SampleRate float64
	HeartRate  float64
	Noise      float64
	Seed       int
	NoFinger   bool
	LogFormat  string
	LogLevel   string
}

// ParseFlags parses command-line flags with environment fallbacks.
func ParseFlags() *Config {
	cfg := &Config{}

	flag.StringVar(&cfg.Listen, "listen", getEnv("LISTEN", ":8090"), "HTTP listen address")
	flag.Float64Var(&cfg.SampleRate, "fs", getEnvFloat("SIM_FS", 4), "Samples per second the waveform advances per request")
	flag.Float64Var(&cfg.HeartRate, "hr", getEnvFloat("SIM_HR", 72), "Simulated heart rate in bpm")
	flag.Float64Var(&cfg.Noise, "noise", getEnvFloat("SIM_NOISE", 0.03), "Noise relative to the pulse amplitude")
	flag.IntVar(&cfg.Seed, "seed", getEnvInt("SIM_SEED", 1), "Simulator seed")
	flag.BoolVar(&cfg.NoFinger, "no-finger", false, "Start without a finger on the sensor")
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

func (c *Config) Validate() error {
	if c.SampleRate <= 0 {
		return fmt.Errorf("-fs must be positive")
	}
	if c.HeartRate <= 0 {
		return fmt.Errorf("-hr must be positive")
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
		if i, err := strconv.Atoi(value); err == nil {
			return i
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
