package config

import (
	"time"

	"github.com/opensymposium/opensymposium/pkg/telemetry"
)

// Config is the root configuration document.
type Config struct {
	// Server configures the coordination server.
	Server ServerConfig `yaml:"server"`

	// Table configures registry capacity and the bootstrap minimum.
	Table TableConfig `yaml:"table"`

	// Diner configures the client-side philosopher simulation.
	Diner DinerConfig `yaml:"diner"`

	// Telemetry configures logging, metrics, tracing, events and the journal.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig configures the TCP coordination server.
type ServerConfig struct {
	// ListenAddress is the host:port the server accepts connections on.
	ListenAddress string `yaml:"listen_address" validate:"required,hostname_port"`

	// LogDir is where per-philosopher and server log files are written.
	// Empty disables the file fan-out.
	LogDir string `yaml:"log_dir"`

	// ShutdownGraceSeconds bounds how long shutdown waits for open
	// sessions and buffered events to drain.
	ShutdownGraceSeconds int `yaml:"shutdown_grace_seconds" validate:"min=1"`
}

// TableConfig configures the shared table.
type TableConfig struct {
	// MinPhilosophers is the bootstrap minimum: the first /add must seat
	// at least this many philosophers. Two is the smallest ring.
	MinPhilosophers int `yaml:"min_philosophers" validate:"min=2"`

	// MaxPhilosophers is the fixed capacity of both registries.
	MaxPhilosophers int `yaml:"max_philosophers" validate:"required,gtefield=MinPhilosophers,max=64"`
}

// DinerConfig configures the diner client and its actors.
type DinerConfig struct {
	// ServerAddress is the coordination server to dial.
	ServerAddress string `yaml:"server_address" validate:"required,hostname_port"`

	// DialAttempts is how many times an actor retries the initial dial.
	DialAttempts int `yaml:"dial_attempts" validate:"min=1"`

	// DialBackoffSeconds is the pause between dial attempts.
	DialBackoffSeconds int `yaml:"dial_backoff_seconds" validate:"min=0"`

	// MinStateSeconds and MaxStateSeconds bound the random duration a
	// philosopher spends thinking or eating.
	MinStateSeconds int `yaml:"min_state_seconds" validate:"min=1"`
	MaxStateSeconds int `yaml:"max_state_seconds" validate:"gtefield=MinStateSeconds"`
}

// TelemetryConfig is the user-facing telemetry section. It is flattened
// relative to telemetry.Config so the YAML stays small; ToTelemetryConfig
// expands it.
type TelemetryConfig struct {
	// LogLevel sets the minimum log level (trace, debug, info, warn, error, fatal).
	LogLevel string `yaml:"log_level" validate:"oneof=trace debug info warn error fatal"`

	// LogFormat selects console or json output.
	LogFormat string `yaml:"log_format" validate:"oneof=console json"`

	// EventBufferSize is the capacity of the async event channel. Events
	// published while the buffer is full are dropped, never blocked on.
	EventBufferSize int `yaml:"event_buffer_size" validate:"min=1"`

	// JournalPath is the SQLite event-journal file. Empty disables the journal.
	JournalPath string `yaml:"journal_path"`

	// Metrics configures the Prometheus endpoint.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing configures OpenTelemetry export.
	Tracing TracingConfig `yaml:"tracing"`
}

// MetricsConfig configures the Prometheus metrics endpoint.
type MetricsConfig struct {
	Enabled       bool   `yaml:"enabled"`
	ListenAddress string `yaml:"listen_address" validate:"required_with=Enabled"`
	Path          string `yaml:"path"`
}

// TracingConfig configures trace export.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled"`
	Exporter     string  `yaml:"exporter" validate:"omitempty,oneof=otlp stdout none"`
	Endpoint     string  `yaml:"endpoint"`
	SamplingRate float64 `yaml:"sampling_rate" validate:"min=0,max=1"`
	Insecure     bool    `yaml:"insecure"`
}

// Default returns the configuration used when no file (or an empty file)
// is supplied.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddress:        "127.0.0.1:9002",
			LogDir:               "logs",
			ShutdownGraceSeconds: 10,
		},
		Table: TableConfig{
			MinPhilosophers: 2,
			MaxPhilosophers: 7,
		},
		Diner: DinerConfig{
			ServerAddress:      "127.0.0.1:9002",
			DialAttempts:       5,
			DialBackoffSeconds: 1,
			MinStateSeconds:    5,
			MaxStateSeconds:    10,
		},
		Telemetry: TelemetryConfig{
			LogLevel:        "info",
			LogFormat:       "console",
			EventBufferSize: 256,
			JournalPath:     "",
			Metrics: MetricsConfig{
				Enabled:       true,
				ListenAddress: ":9090",
				Path:          "/metrics",
			},
			Tracing: TracingConfig{
				Enabled:      false,
				Exporter:     "stdout",
				SamplingRate: 1.0,
				Insecure:     true,
			},
		},
	}
}

// DialBackoff returns the dial backoff as a duration.
func (d DinerConfig) DialBackoff() time.Duration {
	return time.Duration(d.DialBackoffSeconds) * time.Second
}

// ShutdownGrace returns the shutdown grace period as a duration.
func (s ServerConfig) ShutdownGrace() time.Duration {
	return time.Duration(s.ShutdownGraceSeconds) * time.Second
}

// ToTelemetryConfig expands the flattened telemetry section into the full
// telemetry.Config consumed by the telemetry constructors.
func (c *Config) ToTelemetryConfig(serviceVersion, environment string) *telemetry.Config {
	tc := telemetry.DefaultConfig()
	tc.ServiceVersion = serviceVersion
	tc.Environment = environment
	tc.Logging.Level = c.Telemetry.LogLevel
	tc.Logging.Format = c.Telemetry.LogFormat
	tc.Events.BufferSize = c.Telemetry.EventBufferSize
	tc.Metrics.Enabled = c.Telemetry.Metrics.Enabled
	if c.Telemetry.Metrics.ListenAddress != "" {
		tc.Metrics.ListenAddress = c.Telemetry.Metrics.ListenAddress
	}
	if c.Telemetry.Metrics.Path != "" {
		tc.Metrics.Path = c.Telemetry.Metrics.Path
	}
	tc.Tracing.Enabled = c.Telemetry.Tracing.Enabled
	if c.Telemetry.Tracing.Exporter != "" {
		tc.Tracing.Exporter = c.Telemetry.Tracing.Exporter
	}
	tc.Tracing.Endpoint = c.Telemetry.Tracing.Endpoint
	tc.Tracing.SamplingRate = c.Telemetry.Tracing.SamplingRate
	tc.Tracing.Insecure = c.Telemetry.Tracing.Insecure
	return tc
}
