// Package results keeps the rows of the most recent query response.
package results

import (
	"sync"
	"time"
)

type Entry struct {
	SQL        string           `json:"sql"`
	Rows       []map[string]any `json:"rows"`
	RecordedAt time.Time        `json:"recorded_at"`
}

type Recorder struct {
	mu   sync.RWMutex
	last *Entry
	now  func() time.Time
}

func NewRecorder() *Recorder {
	return &Recorder{now: time.Now}
}

// Record replaces the previous entry. Nil rows are stored as an empty slice.
func (r *Recorder) Record(sql string, rows []map[string]any) {
	if rows == nil {
		rows = []map[string]any{}
	}
	entry := &Entry{SQL: sql, Rows: rows, RecordedAt: r.now().UTC()}

	r.mu.Lock()
	r.last = entry
	r.mu.Unlock()
}

func (r *Recorder) Last() (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.last == nil {
		return Entry{Rows: []map[string]any{}}, false
	}
	return *r.last, true
}
