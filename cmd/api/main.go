package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	api "timely/internal/adapter/http"
	"timely/internal/shared"
	"timely/pkg/config"
)

func main() {
	ctx := context.Background()

	cfg := config.FromEnv()

	logger, err := shared.NewAppLogger("timely", os.Getenv("LOKI_URL"))

	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}

	defer logger.Sync()

	otlpEndpoint := os.Getenv("OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	telemetry, err := shared.InitTelemetry(shared.TelemetryConfig{
		ServiceName:    "timely",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Environment,
		MetricsPort:    "9091",
		OTLPEndpoint:   otlpEndpoint,
	})

	if err != nil {
		log.Fatal("Failed to initialize telemetry:", err)
	}

	defer telemetry.Shutdown(ctx)

	metrics := shared.NewAppMetrics(telemetry.PrometheusRegistry)
	metrics.StartSystemMetrics(ctx)

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go api.StartServerWithConfig(metrics, logger, cfg)

	<-c
	logger.Logger.Info("Shutting down gracefully...")
}
