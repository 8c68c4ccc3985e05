package diner

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/opensymposium/opensymposium/pkg/telemetry"
)

func TestNewConsoleValidation(t *testing.T) {
	logger := telemetry.NewNopLogger()

	tests := []struct {
		name    string
		maxSize int
		logger  *telemetry.Logger
		wantErr bool
	}{
		{name: "valid", maxSize: 7, logger: logger},
		{name: "size below bootstrap minimum", maxSize: 1, logger: logger, wantErr: true},
		{name: "missing logger", maxSize: 7, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConsole(Config{ServerAddress: "127.0.0.1:9002"}, tt.maxSize, tt.logger, nil, nil)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewConsole() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConsoleBootstrapAndQuit(t *testing.T) {
	addr, logger := startServer(t, 7)

	in := strings.NewReader("/add 1\n/add 2\n/quit\n")
	var out bytes.Buffer

	console, err := NewConsole(Config{ServerAddress: addr}, 7, logger, in, &out)
	if err != nil {
		t.Fatalf("NewConsole() error = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- console.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("console did not exit on /quit")
	}

	if got := console.Seated(); got != 2 {
		t.Errorf("Seated() = %d, want 2 (the undersized first add must be refused)", got)
	}
	if !strings.Contains(out.String(), "at least 2") {
		t.Errorf("expected bootstrap refusal in output, got:\n%s", out.String())
	}
}

func TestConsoleCapacityBound(t *testing.T) {
	addr, logger := startServer(t, 7)

	// The console's own bound is tighter than the server's here; the
	// oversized add must be refused without contacting the server.
	in := strings.NewReader("/add 2\n/add 5\n/quit\n")
	var out bytes.Buffer

	console, err := NewConsole(Config{ServerAddress: addr}, 3, logger, in, &out)
	if err != nil {
		t.Fatalf("NewConsole() error = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- console.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("console did not exit on /quit")
	}

	if got := console.Seated(); got != 2 {
		t.Errorf("Seated() = %d, want 2", got)
	}
	if !strings.Contains(out.String(), "seats remain") {
		t.Errorf("expected capacity refusal in output, got:\n%s", out.String())
	}
}

func TestConsoleUnknownCommand(t *testing.T) {
	addr, logger := startServer(t, 7)

	in := strings.NewReader("/feast\n/quit\n")
	var out bytes.Buffer

	console, err := NewConsole(Config{ServerAddress: addr}, 7, logger, in, &out)
	if err != nil {
		t.Fatalf("NewConsole() error = %v", err)
	}
	if err := console.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if !strings.Contains(out.String(), "unknown command") {
		t.Errorf("expected unknown-command error in output, got:\n%s", out.String())
	}
}

func TestConsoleStopsOnEOF(t *testing.T) {
	addr, logger := startServer(t, 7)

	console, err := NewConsole(Config{ServerAddress: addr}, 7, logger, strings.NewReader(""), nil)
	if err != nil {
		t.Fatalf("NewConsole() error = %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- console.Run(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("console did not exit on EOF")
	}
}
