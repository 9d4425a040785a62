// Manual harness for the Kafka audit mirror: publishes synthetic audit events
// against real brokers and reports delivery behavior. Mirror metrics are
// served on a local endpoint for inspection while the harness runs.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tutela/internal/consent/models"
	"tutela/internal/platform/metrics"
	"tutela/internal/platform/stream"
)

func main() {
	var (
		brokers     = flag.String("brokers", "localhost:9092", "comma-separated Kafka broker list")
		topic       = flag.String("topic", stream.DefaultTopic, "audit topic")
		count       = flag.Int("count", 5, "number of events to publish")
		metricsAddr = flag.String("metrics-addr", ":9090", "metrics listen address")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	m := metrics.New()

	mirror, err := stream.New(stream.Config{
		Brokers: strings.Split(*brokers, ","),
		Topic:   *topic,
	}, logger, m)
	if err != nil {
		logger.Error("failed to build audit mirror", "error", err)
		os.Exit(1)
	}

	go func() {
		http.Handle("/metrics", promhttp.Handler())
		fmt.Printf("Metrics available at http://localhost%s/metrics\n", *metricsAddr)
		if err := http.ListenAndServe(*metricsAddr, nil); err != nil {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	ctx := context.Background()

	fmt.Println("\n=== Audit Mirror Test ===")
	fmt.Printf("1. Publishing %d events to %s...\n", *count, *topic)

	failed := 0
	for i := 0; i < *count; i++ {
		event := models.NewAuditEvent(models.AuditActionConsentGranted, fmt.Sprintf("harness-user-%d", i+1), map[string]string{
			models.DetailConsentType: "harness",
			models.DetailGranted:     strconv.FormatBool(true),
		})
		event.Timestamp = time.Now().UTC()

		if err := mirror.Publish(ctx, event); err != nil {
			failed++
			fmt.Printf("   Event %d failed: %v\n", i+1, err)
			continue
		}
		fmt.Printf("   Event %d delivered\n", i+1)
	}
	fmt.Printf("   Published %d events, %d failed\n", *count, failed)

	fmt.Println("\n2. Closing mirror (flushes buffered deliveries)...")
	if err := mirror.Close(); err != nil {
		fmt.Printf("   Close reported: %v\n", err)
	} else {
		fmt.Println("   Flushed cleanly")
	}

	fmt.Println("\n=== Metrics Summary ===")
	fmt.Printf("View full metrics at: http://localhost%s/metrics\n", *metricsAddr)
	fmt.Printf("Filter with: curl -s http://localhost%s/metrics | grep tutela_audit\n", *metricsAddr)
	fmt.Println("\nPress Ctrl+C to exit...")

	select {}
}
