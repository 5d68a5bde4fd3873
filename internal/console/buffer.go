// Package console keeps the most recent console calls so they can be
// attached to a feedback submission.
//
// Each level has its own fixed-capacity ring: a chatty debug channel never
// evicts the last errors. ReadAll merges every ring back into one
// chronological list.
package console

import (
	"net/url"
	"sort"
	"sync"
	"time"

	"github.com/bluefermion/feedback-capture/internal/config"
	"github.com/bluefermion/feedback-capture/internal/model"
)

// Reader is the read side used by the environment snapshot.
type Reader interface {
	ReadAll() []model.LogEntry
}

// ring is a fixed-capacity circular buffer. The owning Buffer holds the lock.
type ring struct {
	entries  []model.LogEntry
	capacity int
	head     int // index where the next write goes once full
}

func (r *ring) write(e model.LogEntry) {
	if r.capacity == 0 {
		return
	}
	if len(r.entries) < r.capacity {
		r.entries = append(r.entries, e)
		return
	}
	r.entries[r.head] = e
	r.head = (r.head + 1) % r.capacity
}

// appendTo copies the ring into dst, oldest first.
func (r *ring) appendTo(dst []model.LogEntry) []model.LogEntry {
	if len(r.entries) < r.capacity {
		return append(dst, r.entries...)
	}
	dst = append(dst, r.entries[r.head:]...)
	return append(dst, r.entries[:r.head]...)
}

// Buffer is an append-only, per-level console log buffer. It is safe for
// concurrent use.
type Buffer struct {
	mu    sync.RWMutex
	rings map[model.LogLevel]*ring

	addQueryParams bool
	now            func() time.Time
}

// NewBuffer sizes one ring per level from cfg. Levels missing from cfg use
// config.DefaultLogCacheLength; a length of zero disables the level.
func NewBuffer(cfg config.LogConfig) *Buffer {
	b := &Buffer{
		rings:          make(map[model.LogLevel]*ring, len(model.LogLevels)),
		addQueryParams: cfg.AddQueryParamsToLog,
		now:            time.Now,
	}
	for _, level := range model.LogLevels {
		capacity := config.DefaultLogCacheLength
		if n, ok := cfg.CacheLength[level]; ok && n >= 0 {
			capacity = n
		}
		b.rings[level] = &ring{capacity: capacity, entries: make([]model.LogEntry, 0, min(capacity, 16))}
	}
	return b
}

// Append records one console call. Unknown levels are recorded as plain logs.
func (b *Buffer) Append(level model.LogLevel, args ...any) {
	entry := model.LogEntry{Type: level, Arguments: args, Timestamp: b.now()}

	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.rings[level]
	if !ok {
		r = b.rings[model.LogLevelLog]
	}
	r.write(entry)
}

// LogURL records a navigation. The query string is dropped unless the
// buffer was configured to keep query parameters.
func (b *Buffer) LogURL(href string) {
	if !b.addQueryParams {
		if u, err := url.Parse(href); err == nil {
			u.RawQuery = ""
			u.ForceQuery = false
			href = u.String()
		}
	}
	b.Append(model.LogLevelURL, href)
}

// ReadAll returns every retained entry across levels in chronological order.
// Entries with the same timestamp keep their level order.
func (b *Buffer) ReadAll() []model.LogEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]model.LogEntry, 0)
	for _, level := range model.LogLevels {
		if r, ok := b.rings[level]; ok {
			out = r.appendTo(out)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// Len returns the number of retained entries for one level.
func (b *Buffer) Len(level model.LogLevel) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if r, ok := b.rings[level]; ok {
		return len(r.entries)
	}
	return 0
}
