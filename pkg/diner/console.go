package diner

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/opensymposium/opensymposium/pkg/telemetry"
)

// bootstrapMinimum is the smallest first party: a lone philosopher would
// starve at a zero-permit gate, so the console refuses to seat fewer than
// two to begin with.
const bootstrapMinimum = 2

// Console is the operator REPL. It reads commands from in, spawns one actor
// per requested philosopher, and stops them all on /quit or ctx
// cancellation.
type Console struct {
	cfg     Config
	maxSize int
	logger  *telemetry.Logger
	in      io.Reader
	out     io.Writer

	mu     sync.Mutex
	actors []*Actor
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewConsole creates a console bounded by maxSize seats.
func NewConsole(cfg Config, maxSize int, logger *telemetry.Logger, in io.Reader, out io.Writer) (*Console, error) {
	if maxSize < bootstrapMinimum {
		return nil, fmt.Errorf("table size must be at least %d, got %d", bootstrapMinimum, maxSize)
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	return &Console{
		cfg:     cfg,
		maxSize: maxSize,
		logger:  logger.NewComponentLogger("console"),
		in:      in,
		out:     out,
	}, nil
}

// Run reads operator commands until /quit, EOF or ctx cancellation, then
// stops every actor and waits for them.
func (c *Console) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	defer c.stop()

	c.printf("Commands: /add N (seat N philosophers), /quit\n")

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			quit, err := c.dispatch(ctx, strings.TrimSpace(line))
			if err != nil {
				c.printf("error: %v\n", err)
			}
			if quit {
				return nil
			}
		}
	}
}

// dispatch executes one command line. It returns true when the console
// should exit.
func (c *Console) dispatch(ctx context.Context, line string) (bool, error) {
	switch {
	case line == "":
		return false, nil

	case line == "/quit":
		c.printf("Stopping %d philosophers\n", c.Seated())
		return true, nil

	case strings.HasPrefix(line, "/add"):
		arg := strings.TrimSpace(strings.TrimPrefix(line, "/add"))
		n, err := strconv.Atoi(arg)
		if err != nil {
			return false, fmt.Errorf("usage: /add N")
		}
		return false, c.add(ctx, n)

	default:
		return false, fmt.Errorf("unknown command %q", line)
	}
}

// add seats n philosophers. The first add must reach the bootstrap minimum;
// every add is bounded by the remaining capacity before any request is
// sent, so the server is never asked for a seat that cannot exist.
func (c *Console) add(ctx context.Context, n int) error {
	seated := c.Seated()

	if n < 1 {
		return fmt.Errorf("cannot seat %d philosophers", n)
	}
	if seated == 0 && n < bootstrapMinimum {
		return fmt.Errorf("the first add must seat at least %d philosophers", bootstrapMinimum)
	}
	if remaining := c.maxSize - seated; n > remaining {
		return fmt.Errorf("only %d of %d seats remain", remaining, c.maxSize)
	}

	for i := 0; i < n; i++ {
		actor, err := NewActor(ctx, c.cfg, c.logger)
		if err != nil {
			return fmt.Errorf("failed to seat philosopher: %w", err)
		}

		c.mu.Lock()
		c.actors = append(c.actors, actor)
		c.mu.Unlock()

		c.wg.Add(1)
		go func() {
			defer c.wg.Done()
			if err := actor.Run(ctx); err != nil {
				c.logger.WithPhilosopherID(actor.ID()).WithError(err).Warn("Actor exited")
			}
		}()

		c.printf("Seated philosopher %d\n", actor.ID())
	}

	return nil
}

// Seated returns how many actors this console has spawned.
func (c *Console) Seated() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.actors)
}

// stop cancels every actor and waits for them to finish.
func (c *Console) stop() {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	c.logger.Info("Console stopped")
}

func (c *Console) printf(format string, args ...interface{}) {
	if c.out != nil {
		fmt.Fprintf(c.out, format, args...)
	}
}
