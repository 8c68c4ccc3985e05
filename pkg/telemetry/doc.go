// Package telemetry provides observability instrumentation for the symposium
// coordination server and its clients.
//
// The telemetry package integrates structured logging (zerolog), distributed
// tracing (OpenTelemetry), metrics (Prometheus), and event publishing into a
// unified system for monitoring the life of the table.
//
// # Architecture
//
// The telemetry system is built on four pillars:
//
//  1. Structured Logging - Context-aware logging with zerolog
//  2. Distributed Tracing - OpenTelemetry traces with multiple exporters
//  3. Metrics Collection - Prometheus metrics for operational insights
//  4. Event Publishing - Async, fire-and-forget event stream
//
// # Usage
//
// Initialize telemetry at application startup:
//
//	cfg := telemetry.DefaultConfig()
//	cfg.ServiceVersion = "1.0.0"
//
//	tel, err := telemetry.NewTelemetry(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer tel.Shutdown(context.Background())
//
//	// Start metrics server
//	if err := tel.StartMetricsServer(); err != nil {
//	    log.Fatal(err)
//	}
//
// Add telemetry to context:
//
//	ctx = tel.WithContext(ctx)
//
// # Structured Logging
//
// The logger provides component-specific logging with automatic context propagation:
//
//	logger := tel.Logger.NewComponentLogger("table")
//	logger = logger.WithPhilosopherID(3).WithChopstickID(3)
//	logger.Info("Chopstick acquired")
//	logger.WithError(err).Error("Transition failed")
//
// Log levels: trace, debug, info, warn, error, fatal
//
// # Event Publishing
//
// Events are the narration of the table: admissions, state changes, gate and
// chopstick activity. Publishing never blocks the philosopher that produced
// the event; when the buffer is full the event is dropped and counted.
//
// Every event carries a scope that routes it. ScopeServer events describe the
// table as a whole; ScopePhilosopher events belong to one philosopher and are
// additionally fanned out to that philosopher's log file by FileSink.
//
//	// Publish events
//	tel.Events.PublishAdmitted(3, 3, 1)
//	tel.Events.PublishChopstickAcquired(3, 3, "left")
//
//	// Subscribe to events
//	tel.Events.Subscribe(func(event telemetry.Event) {
//	    fmt.Printf("%s: %s\n", event.Type, event.Message)
//	}, telemetry.FilterByPhilosopher(3))
//
// Event filters: FilterByLevel, FilterByType, FilterByScope, FilterByPhilosopher
//
// Subscribers run on the delivery goroutine in publish order, so a per-file
// sink sees a philosopher's gate, chopstick and state events in the order
// they happened.
//
// # Metrics
//
// Prometheus metrics track the table's behavior:
//
//	tel.Metrics.RecordAdmission(seated, gateCapacity)
//	tel.Metrics.RecordTransition("hungry")
//	tel.Metrics.RecordAcquireWait("gate", waited)
//
// Key series:
//
//   - symposium_admissions_total
//   - symposium_transitions_total{state}
//   - symposium_eat_grants_total
//   - symposium_acquire_wait_seconds{resource}
//   - symposium_philosophers_seated
//   - symposium_philosophers_eating
//   - symposium_gate_permits_available
//   - symposium_active_connections
//
// Metrics are exposed via HTTP at /metrics (default: :9090/metrics)
//
// # Distributed Tracing
//
// Tracing covers admissions, transitions and whole sessions:
//
//	ctx, span := tel.Tracer.StartTransitionSpan(ctx, id, "hungry")
//	defer span.End()
//
//	if err != nil {
//	    telemetry.RecordError(span, err)
//	}
//
// Supported exporters: OTLP (production), Stdout (development), none (testing)
//
// # Graceful Shutdown
//
// Always shut down telemetry gracefully to flush pending data:
//
//	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
//	defer cancel()
//
//	if err := tel.Shutdown(ctx); err != nil {
//	    log.Printf("Telemetry shutdown error: %v", err)
//	}
//
// Shutdown drains the event buffer to subscribers before returning, so log
// files end with the last events the table produced.
package telemetry
