package main

import (
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/HatiCode/pulsewatch/cmd/relay/config"
	"github.com/HatiCode/pulsewatch/cmd/relay/logger"
	"github.com/HatiCode/pulsewatch/cmd/relay/metrics"
	"github.com/HatiCode/pulsewatch/cmd/relay/router"
	pb "github.com/HatiCode/pulsewatch/pkg/api/monitorv1"
	"github.com/HatiCode/pulsewatch/pkg/httpx"
)

func main() {
	cfg := config.ParseFlags()
	log := logger.New(cfg)
	m := metrics.New(nil)

	log.Info("starting pulsewatch relay",
		"listen", cfg.Listen,
		"monitor_url", cfg.MonitorURL,
	)

	relay := New(cfg.MonitorURL, cfg.RequestTimeout, log, m)

	grpcServer := grpc.NewServer()

	pb.RegisterMonitorServer(grpcServer, relay)

	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(pb.ServiceName, grpc_health_v1.HealthCheckResponse_SERVING)

	reflection.Register(grpcServer)

	lis, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		log.Error("failed to listen", "error", err)
		os.Exit(1)
	}

	go func() {
		log.Info("grpc server listening", "address", cfg.Listen)
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("grpc server failed", "error", err)
			os.Exit(1)
		}
	}()

	httpServer := httpx.NewServer(cfg.HTTPListen, router.SetupRoutes(log), log)

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Error("http server failed", "error", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	log.Info("received shutdown signal", "signal", sig)

	healthServer.Shutdown()

	log.Info("shutting down grpc server")
	grpcServer.GracefulStop()

	log.Info("shutting down http server")
	if err := httpServer.Stop(10 * time.Second); err != nil {
		log.Error("http server shutdown error", "error", err)
	}

	log.Info("shutdown complete")
}
