package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HatiCode/pulsewatch/cmd/sensorsim/config"
	"github.com/HatiCode/pulsewatch/cmd/sensorsim/logger"
	"github.com/HatiCode/pulsewatch/pkg/adapters"
	"github.com/HatiCode/pulsewatch/pkg/httpx"
)

func main() {
	cfg := config.ParseFlags()
	log := logger.New(cfg)

	log.Info("starting sensorsim",
		"listen", cfg.Listen,
		"fs", cfg.SampleRate,
		"heart_rate", cfg.HeartRate,
		"noise", cfg.Noise,
	)

	sim := adapters.NewPPGSim(cfg.SampleRate, cfg.HeartRate, cfg.Noise, uint64(cfg.Seed))
	src := adapters.NewSimSource(sim)
	if cfg.NoFinger {
		src.SetFinger(false)
	}

	server := httpx.NewServer(cfg.Listen, Routes(src, log), log)

	go func() {
		if err := server.Start(); err != nil {
			log.Error("http server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	log.Info("received shutdown signal", "signal", sig)

	if err := server.Stop(5 * time.Second); err != nil {
		log.Error("http server shutdown error", "error", err)
	}
	log.Info("shutdown complete")
}
