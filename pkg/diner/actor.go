package diner

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net"
	"sync"
	"time"

	"github.com/opensymposium/opensymposium/pkg/protocol"
	"github.com/opensymposium/opensymposium/pkg/telemetry"
)

// Actor simulates one philosopher: it owns its connection, keeps the local
// state and timer, and drives the think/eat cycle against the server.
type Actor struct {
	cfg    Config
	client *Client
	logger *telemetry.Logger

	id int

	mu    sync.Mutex
	state string
	timer int
}

// NewActor dials the server, seats a philosopher and returns the actor
// holding it. The seated philosopher starts thinking on a fresh random
// timer.
func NewActor(ctx context.Context, cfg Config, logger *telemetry.Logger) (*Actor, error) {
	client, err := NewClient(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := client.Connect(ctx); err != nil {
		return nil, err
	}

	seated, err := client.Create(ctx)
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to seat philosopher: %w", err)
	}

	a := &Actor{
		cfg:    cfg,
		client: client,
		logger: logger.NewComponentLogger("actor").WithPhilosopherID(seated.ID),
		id:     seated.ID,
		state:  protocol.StateThinking,
		timer:  randomTimer(cfg),
	}
	a.logger.WithField("timer", a.timer).Info("Seated, thinking")
	return a, nil
}

// ID returns the seated philosopher's id.
func (a *Actor) ID() int {
	return a.id
}

// State returns the actor's local state.
func (a *Actor) State() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Actor) setState(state string, timer int) {
	a.mu.Lock()
	a.state = state
	a.timer = timer
	a.mu.Unlock()
}

// tick burns one second off the timer and reports whether it has expired.
func (a *Actor) tick() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer > 0 {
		a.timer--
		return false
	}
	return true
}

// Run drives the cycle: a 1 second tick decrements the timer; when it
// reaches zero the state flips. Run returns on ctx cancellation or a
// transport failure; only this actor stops either way.
func (a *Actor) Run(ctx context.Context) error {
	defer func() { _ = a.client.Close() }()

	// A hungry request can park this goroutine on a read for as long as
	// contention lasts; closing the connection is the only way to unblock
	// it when the actor is told to stop.
	go func() {
		<-ctx.Done()
		_ = a.client.Close()
	}()

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("Actor stopping")
			return nil
		case <-ticker.C:
			if !a.tick() {
				continue
			}
			if err := a.advance(ctx); err != nil {
				if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					a.logger.Info("Actor stopping")
					return nil
				}
				a.logger.WithError(err).Error("Actor lost its connection")
				return err
			}
		}
	}
}

// advance performs the expired-timer transition for the current state.
func (a *Actor) advance(ctx context.Context) error {
	switch a.State() {
	case protocol.StateThinking:
		// Hungry has no timer of its own; the request blocks until the
		// grant to eat arrives, however long contention makes that.
		a.setState(protocol.StateHungry, 0)
		a.logger.Info("Hungry, asking to eat")

		granted, err := a.client.Update(ctx, protocol.Philosopher{
			ID:    a.id,
			State: protocol.StateHungry,
		})
		if err != nil {
			return err
		}

		timer := randomTimer(a.cfg)
		a.setState(granted.State, timer)
		a.logger.WithField("timer", timer).Info("Eating")

		// The grant set the record eating with a zero timer; report the
		// real meal length back, fire-and-forget.
		_, err = a.client.Update(ctx, protocol.Philosopher{
			ID:         a.id,
			State:      protocol.StateEating,
			StateTimer: timer,
		})
		return err

	case protocol.StateEating:
		timer := randomTimer(a.cfg)
		a.setState(protocol.StateThinking, timer)
		a.logger.WithField("timer", timer).Info("Thinking")

		_, err := a.client.Update(ctx, protocol.Philosopher{
			ID:         a.id,
			State:      protocol.StateThinking,
			StateTimer: timer,
		})
		return err

	default:
		return fmt.Errorf("actor in unexpected state %q", a.State())
	}
}

// randomTimer picks a state duration in [MinStateSeconds, MaxStateSeconds].
func randomTimer(cfg Config) int {
	min, max := cfg.MinStateSeconds, cfg.MaxStateSeconds
	if min <= 0 {
		min = 5
	}
	if max < min {
		max = min + 5
	}
	return min + rand.Intn(max-min+1)
}
