// Package diner provides the client side of the symposium: a connection
// client speaking the JSON protocol, an actor simulating one philosopher's
// think/eat cycle, and an operator console that spawns actors on demand.
package diner

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/opensymposium/opensymposium/pkg/protocol"
	"github.com/opensymposium/opensymposium/pkg/telemetry"
)

// Config contains client configuration options.
type Config struct {
	// ServerAddress is the host:port of the coordination server.
	ServerAddress string

	// DialAttempts bounds connection retries before giving up.
	DialAttempts int

	// DialBackoff is the pause between failed dial attempts.
	DialBackoff time.Duration

	// MinStateSeconds and MaxStateSeconds bound the random state timers.
	MinStateSeconds int
	MaxStateSeconds int
}

// Client holds one connection to the coordination server and the codec pair
// over it. A client serves exactly one philosopher; actors never share one.
type Client struct {
	cfg     Config
	logger  *telemetry.Logger
	conn    net.Conn
	encoder *protocol.Encoder
	decoder *protocol.Decoder

	mu     sync.Mutex
	closed bool
}

// NewClient validates the configuration and returns an unconnected client.
func NewClient(cfg Config, logger *telemetry.Logger) (*Client, error) {
	if cfg.ServerAddress == "" {
		return nil, fmt.Errorf("server address is required")
	}
	if cfg.DialAttempts <= 0 {
		cfg.DialAttempts = 5
	}
	if cfg.DialBackoff <= 0 {
		cfg.DialBackoff = time.Second
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &Client{
		cfg:    cfg,
		logger: logger.NewComponentLogger("client"),
	}, nil
}

// Connect dials the server with bounded retry.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("client is closed")
	}
	if c.conn != nil {
		return nil
	}

	var lastErr error
	dialer := &net.Dialer{}
	for attempt := 1; attempt <= c.cfg.DialAttempts; attempt++ {
		conn, err := dialer.DialContext(ctx, "tcp", c.cfg.ServerAddress)
		if err == nil {
			c.conn = conn
			c.encoder = protocol.NewEncoder(conn)
			c.decoder = protocol.NewDecoder(conn)
			return nil
		}
		lastErr = err
		c.logger.WithField("attempt", attempt).WithError(err).Warn("Dial failed")

		if attempt == c.cfg.DialAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("dial cancelled: %w", ctx.Err())
		case <-time.After(c.cfg.DialBackoff):
		}
	}

	return fmt.Errorf("failed to connect to %s after %d attempts: %w",
		c.cfg.ServerAddress, c.cfg.DialAttempts, lastErr)
}

// Create asks the server to seat a new philosopher and blocks for the
// response. A rejected request surfaces the server's error code.
func (c *Client) Create(ctx context.Context) (*protocol.Philosopher, error) {
	if err := c.requireConn(); err != nil {
		return nil, err
	}

	if err := c.encoder.EncodeCreate(); err != nil {
		return nil, fmt.Errorf("failed to send create: %w", err)
	}

	msg, err := c.decoder.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to read create response: %w", err)
	}

	switch msg.Type {
	case protocol.MessageTypeCreated:
		var created protocol.CreatedMessage
		if err := protocol.ParsePayload(msg.Data, &created); err != nil {
			return nil, fmt.Errorf("failed to parse created: %w", err)
		}
		return &created.Philosopher, nil

	case protocol.MessageTypeError:
		var errMsg protocol.ErrorMessage
		if err := protocol.ParsePayload(msg.Data, &errMsg); err != nil {
			return nil, fmt.Errorf("failed to parse error: %w", err)
		}
		return nil, fmt.Errorf("create rejected: %s - %s", errMsg.Code, errMsg.Message)

	default:
		return nil, fmt.Errorf("unexpected message type: %s", msg.Type)
	}
}

// Update reports the philosopher's requested state. Only the hungry request
// is answered; for it, Update blocks until the eating grant arrives and
// returns the granted record. Thinking and eating requests return nil
// immediately after the write.
func (c *Client) Update(ctx context.Context, p protocol.Philosopher) (*protocol.Philosopher, error) {
	if err := c.requireConn(); err != nil {
		return nil, err
	}

	update := &protocol.UpdateMessage{Philosopher: p}
	if err := update.Validate(); err != nil {
		return nil, err
	}
	if err := c.encoder.EncodeUpdate(update); err != nil {
		return nil, fmt.Errorf("failed to send update: %w", err)
	}

	if p.State != protocol.StateHungry {
		return nil, nil
	}

	msg, err := c.decoder.Decode()
	if err != nil {
		return nil, fmt.Errorf("failed to read update response: %w", err)
	}
	if msg.Type != protocol.MessageTypeUpdated {
		return nil, fmt.Errorf("unexpected message type: %s", msg.Type)
	}

	var updated protocol.UpdatedMessage
	if err := protocol.ParsePayload(msg.Data, &updated); err != nil {
		return nil, fmt.Errorf("failed to parse updated: %w", err)
	}
	return &updated.Philosopher, nil
}

// Close tears the connection down. A blocked Create or Update unblocks with
// a read error.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

func (c *Client) requireConn() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("client is closed")
	}
	if c.conn == nil {
		return fmt.Errorf("client is not connected")
	}
	return nil
}
