package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

var rule = strings.Repeat("-", 40)

// WriterStore dumps every object to w instead of storing it. Used for dry
// runs.
type WriterStore struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterStore creates a store that writes to w.
func NewWriterStore(w io.Writer) *WriterStore {
	return &WriterStore{w: w}
}

// Put writes a header with the key followed by the body.
func (s *WriterStore) Put(_ context.Context, key, _ string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := fmt.Fprintf(s.w, "%s\n%s\n%s\n", rule, key, rule); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	if _, err := s.w.Write(body); err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	if len(body) > 0 && body[len(body)-1] != '\n' {
		_, err := io.WriteString(s.w, "\n")
		return err
	}
	return nil
}
