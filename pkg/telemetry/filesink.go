package telemetry

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// FileSink fans events out to log files under a directory. Every event goes
// to server.log; philosopher-scoped events additionally go to the owning
// philosopher's philosopher_<id>.log. Files are created lazily on first
// write and held open until Close.
type FileSink struct {
	dir    string
	mu     sync.Mutex
	files  map[string]*sinkFile
	closed bool
}

type sinkFile struct {
	file *os.File
	log  zerolog.Logger
}

// NewFileSink creates a sink writing under dir, creating the directory if
// necessary.
func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	return &FileSink{
		dir:   dir,
		files: make(map[string]*sinkFile),
	}, nil
}

// HandleEvent implements EventSubscriber. The sink is best effort: write
// failures are swallowed so a full disk never stalls event delivery.
func (s *FileSink) HandleEvent(event Event) {
	s.write("server.log", event)

	if event.Scope == ScopePhilosopher {
		s.write(fmt.Sprintf("philosopher_%d.log", event.PhilosopherID), event)
	}
}

// write appends one event to the named file as a JSON line.
func (s *FileSink) write(name string, event Event) {
	sf, err := s.file(name)
	if err != nil {
		return
	}

	entry := sf.log.WithLevel(eventLevel(event.Level)).
		Time(zerolog.TimestampFieldName, event.Timestamp).
		Str("event_id", event.ID).
		Str("type", event.Type).
		Str("scope", event.Scope)
	if event.PhilosopherID != 0 {
		entry = entry.Int("philosopher_id", event.PhilosopherID)
	}
	if event.ChopstickID != 0 {
		entry = entry.Int("chopstick_id", event.ChopstickID)
	}
	entry.Msg(event.Message)
}

// file returns the open sink file for name, opening it on first use.
func (s *FileSink) file(name string) (*sinkFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("file sink closed")
	}

	if sf, ok := s.files[name]; ok {
		return sf, nil
	}

	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	sf := &sinkFile{
		file: f,
		log:  zerolog.New(f),
	}
	s.files[name] = sf

	return sf, nil
}

// Paths returns the file names the sink has written so far.
func (s *FileSink) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	paths := make([]string, 0, len(s.files))
	for name := range s.files {
		paths = append(paths, filepath.Join(s.dir, name))
	}
	return paths
}

// Close closes all open log files. The sink drops events that arrive after
// Close.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	var firstErr error
	for _, sf := range s.files {
		if err := sf.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.files = make(map[string]*sinkFile)

	return firstErr
}

// eventLevel converts an event level string to a zerolog level.
func eventLevel(level string) zerolog.Level {
	switch level {
	case EventLevelWarning:
		return zerolog.WarnLevel
	case EventLevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
