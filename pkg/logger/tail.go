package logger

import (
	"sync"
	"time"
)

// TailEntry is one buffered warn/error line.
type TailEntry struct {
	Level   string
	Message string
	Fields  map[string]interface{}
	At      time.Time
}

// Tail is a fixed-size ring of recent log entries. The dashboard renders it
// as the error footer; nothing else reads it.
type Tail struct {
	mu      sync.Mutex
	entries []TailEntry
	next    int
	full    bool
}

func NewTail(n int) *Tail {
	if n <= 0 {
		n = 16
	}
	return &Tail{entries: make([]TailEntry, n)}
}

func (t *Tail) Add(level, msg string, fields []Field) {
	fm := make(map[string]interface{}, len(fields))
	for _, f := range fields {
		k, v := f.KeyValue()
		fm[k] = v
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[t.next] = TailEntry{Level: level, Message: msg, Fields: fm, At: time.Now()}
	t.next++
	if t.next == len(t.entries) {
		t.next = 0
		t.full = true
	}
}

// Entries returns the buffered entries oldest first.
func (t *Tail) Entries() []TailEntry {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.full {
		out := make([]TailEntry, t.next)
		copy(out, t.entries[:t.next])
		return out
	}
	out := make([]TailEntry, 0, len(t.entries))
	out = append(out, t.entries[t.next:]...)
	out = append(out, t.entries[:t.next]...)
	return out
}
