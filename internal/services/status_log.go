package services

import (
	"fmt"
	"sync"
	"time"
)

// DefaultStatusLogSize is the number of entries the dock keeps.
const DefaultStatusLogSize = 50

// StatusEntry is one line of the dock's activity log
type StatusEntry struct {
	At      time.Time `json:"at"`
	Message string    `json:"message"`
}

// StatusLog is a bounded, newest-first activity log
type StatusLog struct {
	mu      sync.Mutex
	entries []StatusEntry
	limit   int
	now     func() time.Time
}

// NewStatusLog creates a log keeping at most limit entries.
func NewStatusLog(limit int) *StatusLog {
	if limit <= 0 {
		limit = DefaultStatusLogSize
	}
	return &StatusLog{limit: limit, now: time.Now}
}

// Appendf records a formatted message.
func (l *StatusLog) Appendf(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry := StatusEntry{At: l.now(), Message: fmt.Sprintf(format, args...)}
	l.entries = append([]StatusEntry{entry}, l.entries...)
	if len(l.entries) > l.limit {
		l.entries = l.entries[:l.limit]
	}
}

// Entries returns a copy of the log, newest first.
func (l *StatusLog) Entries() []StatusEntry {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]StatusEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
