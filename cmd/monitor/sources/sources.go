// Package sources builds the sample source selected by the monitor config.
package sources

import (
	"log/slog"
	"os"

	"github.com/HatiCode/pulsewatch/cmd/monitor/config"
	"github.com/HatiCode/pulsewatch/pkg/adapters"
)

// New returns the source for cfg.Source, exiting the process when it cannot
// be opened.
func New(cfg *config.Config, logger *slog.Logger) adapters.Source {
	switch cfg.Source {
	case "http":
		logger.Info("using http source", "url", adapters.DataURL(cfg.DeviceURL))
		return &adapters.HTTPSource{DeviceURL: cfg.DeviceURL}

	case "i2c":
		logger.Info("opening i2c source", "bus", cfg.I2CBus, "addr", cfg.I2CAddr)
		src, err := adapters.OpenI2CSource(cfg.I2CBus, uint16(cfg.I2CAddr))
		if err != nil {
			logger.Error("failed to open i2c source", "error", err)
			os.Exit(1)
		}
		return src

	case "sim":
		logger.Info("using simulated source", "heart_rate", cfg.SimHeartRate, "noise", cfg.SimNoise)
		fs := 1 / cfg.PollInterval.Seconds()
		return adapters.NewSimSource(adapters.NewPPGSim(fs, cfg.SimHeartRate, cfg.SimNoise, uint64(cfg.SimSeed)))

	default:
		logger.Error("invalid source type", "source", cfg.Source)
		os.Exit(1)
	}

	return nil
}
