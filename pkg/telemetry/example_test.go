package telemetry_test

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/opensymposium/opensymposium/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Example_basicSetup demonstrates basic telemetry setup.
func Example_basicSetup() {
	// Create configuration
	cfg := telemetry.DefaultConfig()
	cfg.ServiceVersion = "1.0.0"

	// Initialize telemetry
	tel, err := telemetry.NewTelemetry(cfg)
	if err != nil {
		panic(err)
	}
	defer tel.Shutdown(context.Background())

	// Start metrics server (non-blocking)
	if err := tel.StartMetricsServer(); err != nil {
		panic(err)
	}

	// Add telemetry to context
	ctx := tel.WithContext(context.Background())

	// Use telemetry
	logger := telemetry.FromContext(ctx)
	logger.Info("Server started")

	// Output can vary, so we don't specify output for this example
}

// Example_structuredLogging demonstrates structured logging features.
func Example_structuredLogging() {
	cfg := telemetry.DevelopmentConfig()
	cfg.Logging.Output = "stdout"

	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	// Component-specific logger
	logger := tel.Logger.NewComponentLogger("table")

	// Add context fields
	logger = logger.WithPhilosopherID(3).WithChopstickID(3)

	// Log at different levels
	logger.Debug("Attempting to pick up left chopstick")
	logger.Info("Chopstick acquired")
	logger.Warn("Gate contention is high")

	// Log with error
	err := fmt.Errorf("connection reset")
	logger.WithError(err).Error("Session torn down")

	// Output varies, no output specified
}

// Example_eventPublishing demonstrates event publishing and subscription.
func Example_eventPublishing() {
	cfg := telemetry.DefaultConfig()
	cfg.Events.Enabled = true
	cfg.Events.EnableAsync = false // Synchronous for example

	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	// Subscribe to events
	tel.Events.Subscribe(func(event telemetry.Event) {
		fmt.Printf("%s: %s\n", event.Type, event.Message)
	}, nil) // No filter, receive all events

	// Publish events
	tel.Events.PublishAdmitted(2, 2, 1)
	tel.Events.PublishChopstickAcquired(2, 2, "left")

	// Output:
	// philosopher.admitted: Philosopher 2 joined the table (left chopstick 2, right chopstick 1)
	// chopstick.acquired: Philosopher 2 picked up left chopstick 2
}

// Example_eventFiltering demonstrates routing events by scope and philosopher.
func Example_eventFiltering() {
	cfg := telemetry.DefaultConfig()
	cfg.Events.Enabled = true
	cfg.Events.EnableAsync = false

	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	// Subscribe to a single philosopher's stream
	tel.Events.Subscribe(func(event telemetry.Event) {
		fmt.Printf("philosopher 2: %s\n", event.Type)
	}, telemetry.FilterByPhilosopher(2))

	// Subscribe to server-wide events only
	tel.Events.Subscribe(func(event telemetry.Event) {
		fmt.Printf("server: %s\n", event.Type)
	}, telemetry.FilterByScope(telemetry.ScopeServer))

	// Publish various events
	tel.Events.PublishGateWaiting(1)           // philosopher 1, matches neither
	tel.Events.PublishGateAcquired(2, 0)       // philosopher 2
	tel.Events.PublishGatePermitAdded(2)       // server scope
	tel.Events.PublishChopstickAcquired(2, 2, "left") // philosopher 2

	// Output:
	// philosopher 2: gate.acquired
	// server: gate.permit_added
	// philosopher 2: chopstick.acquired
}

// Example_metricsCollection demonstrates metrics collection.
func Example_metricsCollection() {
	cfg := telemetry.DefaultConfig()
	cfg.Metrics.Enabled = true

	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	// Record an admission growing the table to three seats
	tel.Metrics.RecordAdmission(3, 1)

	// Record transitions
	tel.Metrics.RecordTransition("hungry")
	tel.Metrics.IncHungry()

	// Record the wait for a resource
	tel.Metrics.RecordAcquireWait("gate", 12*time.Millisecond)
	tel.Metrics.RecordAcquireWait("left_chopstick", 3*time.Millisecond)

	// Record the grant
	tel.Metrics.RecordEatGrant()
	tel.Metrics.DecHungry()
	tel.Metrics.IncEating()

	fmt.Println("Metrics recorded successfully")
	// Output: Metrics recorded successfully
}

// Example_fileSink demonstrates fanning events out to per-philosopher logs.
func Example_fileSink() {
	dir, err := os.MkdirTemp("", "symposium-logs")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	cfg := telemetry.DefaultConfig()
	cfg.Events.EnableAsync = false

	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	// Route every event into the sink; philosopher-scoped events also land
	// in philosopher_<id>.log
	sink, err := telemetry.NewFileSink(dir)
	if err != nil {
		panic(err)
	}
	defer sink.Close()

	tel.Events.Subscribe(sink.HandleEvent, nil)

	tel.Events.PublishAdmitted(1, 1, 0)
	tel.Events.PublishStateChanged(1, "thinking", "hungry", 0)

	fmt.Printf("log files written: %d\n", len(sink.Paths()))
	// Output: log files written: 2
}

// Example_sessionInstrumentation demonstrates instrumenting a client session.
func Example_sessionInstrumentation() {
	cfg := telemetry.DefaultConfig()
	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	ctx := tel.WithContext(context.Background())

	// Start session context
	ctx = telemetry.WithSessionContext(ctx, "conn-123", "127.0.0.1:51234")

	// Serve the session (simulated)
	time.Sleep(5 * time.Millisecond)

	// End session context
	telemetry.EndSessionContext(ctx, "conn-123", "client disconnected", nil)

	fmt.Println("Session instrumentation complete")
	// Output: Session instrumentation complete
}

// Example_instrumentedOperation demonstrates using the InstrumentedContext helper.
func Example_instrumentedOperation() {
	cfg := telemetry.DevelopmentConfig()
	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	ctx := tel.WithContext(context.Background())

	// Start instrumented operation
	ic := telemetry.StartOperation(ctx, "table.admit",
		attribute.Int("philosopher.id", 4),
	)
	defer ic.End(nil)

	// Use the instrumented context
	ic.Logger.Info("Admitting philosopher")

	// Output varies, no output specified
}

// Example_productionConfiguration demonstrates production-ready configuration.
func Example_productionConfiguration() {
	cfg := telemetry.ProductionConfig()

	// Customize for your environment
	cfg.ServiceVersion = "1.2.3"
	cfg.Environment = "production"

	// Configure OTLP exporter
	cfg.Tracing.Enabled = true
	cfg.Tracing.Exporter = "otlp"
	cfg.Tracing.Endpoint = "otel-collector.monitoring.svc.cluster.local:4317"
	cfg.Tracing.SamplingRate = 0.1 // 10% sampling
	cfg.Tracing.Insecure = false   // Use TLS in production

	// Configure events
	cfg.Events.BufferSize = 4096
	cfg.Events.FlushInterval = time.Second

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		panic(err)
	}

	fmt.Println("Production configuration validated")
	// Output: Production configuration validated
}

// Example_multipleComponents demonstrates telemetry in a multi-component system.
func Example_multipleComponents() {
	cfg := telemetry.DevelopmentConfig()
	tel, _ := telemetry.NewTelemetry(cfg)
	defer tel.Shutdown(context.Background())

	// Component-specific loggers
	tableLogger := tel.Logger.NewComponentLogger("table")
	serverLogger := tel.Logger.NewComponentLogger("server")
	journalLogger := tel.Logger.NewComponentLogger("journal")

	tableLogger.Info("Table initialized")
	serverLogger.Info("Listening for diners")
	journalLogger.Info("Event journal opened")

	// Output varies, no output specified
}
