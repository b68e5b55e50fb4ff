package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Event names written by the match stream.
const (
	EventStage        = "stage"
	EventRequirements = "requirements"
	EventResult       = "result"
	EventError        = "error"
	EventComplete     = "complete"
)

// heartbeatInterval keeps idle proxies from closing the stream while the AI
// provider is working.
const heartbeatInterval = 15 * time.Second

var errStreamingUnsupported = errors.New("streaming not supported")

// SSEWriter writes numbered server-sent events. It is safe for concurrent
// use so a heartbeat can run alongside the handler.
type SSEWriter struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	seq     int
	err     error
}

// NewSSEWriter sends the event-stream headers and returns a writer, or
// fails if w cannot flush.
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, errStreamingUnsupported
	}
	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends data as JSON under the given event name. Once a write
// fails every later call returns the same error.
func (s *SSEWriter) WriteEvent(event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return s.write(fmt.Sprintf("id: %d\nevent: %s\ndata: %s\n\n", s.seq, event, payload))
}

func (s *SSEWriter) write(frame string) error {
	if s.err != nil {
		return s.err
	}
	if _, err := fmt.Fprint(s.w, frame); err != nil {
		s.err = err
		return err
	}
	s.flusher.Flush()
	return nil
}

// Heartbeat writes a comment line every interval until the returned stop
// function is called.
func (s *SSEWriter) Heartbeat(interval time.Duration) (stop func()) {
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-done:
				return
			case <-t.C:
				s.mu.Lock()
				err := s.write(": ping\n\n")
				s.mu.Unlock()
				if err != nil {
					return
				}
			}
		}
	}()
	var once sync.Once
	return func() {
		once.Do(func() { close(done) })
		wg.Wait()
	}
}

func (s *SSEWriter) WriteStage(stage string) error {
	return s.WriteEvent(EventStage, map[string]string{"stage": stage})
}

func (s *SSEWriter) WriteError(message string) error {
	return s.WriteEvent(EventError, map[string]string{"error": message})
}

func (s *SSEWriter) WriteComplete(status string) error {
	return s.WriteEvent(EventComplete, map[string]string{"status": status})
}
