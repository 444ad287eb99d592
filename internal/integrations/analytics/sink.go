package analytics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	errx "github.com/empowering-agents/server/internal/core/error"
	logx "github.com/empowering-agents/server/pkg/logger"
)

// Event is one analytics record: a timestamped JSON line.
type Event struct {
	Timestamp string         `json:"ts"`
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
}

// Sink appends events to a JSON-lines file. Append-only; records are never
// rewritten.
type Sink struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

func NewSink(path string) *Sink {
	return &Sink{path: path, now: time.Now}
}

// Record appends one event. Failures are surfaced to the caller; most call
// sites log and carry on since analytics is not load-bearing for a turn.
func (s *Sink) Record(eventType string, data map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errx.WrapStorage(err)
		}
	}

	b, err := json.Marshal(Event{
		Timestamp: s.now().UTC().Format(time.RFC3339),
		Type:      eventType,
		Data:      data,
	})
	if err != nil {
		return err
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errx.WrapStorage(err)
	}
	defer f.Close()

	if _, err := f.Write(append(b, '\n')); err != nil {
		logx.Error().Err(err).Str("path", s.path).Msg("failed to append analytics event")
		return errx.WrapStorage(err)
	}
	return nil
}
