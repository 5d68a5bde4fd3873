package console

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bluefermion/feedback-capture/internal/config"
	"github.com/bluefermion/feedback-capture/internal/model"
)

// steppedClock returns a clock that advances one millisecond per call.
func steppedClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Millisecond)
		return t
	}
}

func newTestBuffer(cfg config.LogConfig) *Buffer {
	b := NewBuffer(cfg)
	b.now = steppedClock()
	return b
}

func TestBufferEvictsOldestPerLevel(t *testing.T) {
	b := newTestBuffer(config.LogConfig{CacheLength: map[model.LogLevel]int{model.LogLevelLog: 3}})

	for i := 0; i < 5; i++ {
		b.Append(model.LogLevelLog, i)
	}
	b.Append(model.LogLevelError, "boom")

	assert.Equal(t, 3, b.Len(model.LogLevelLog))
	assert.Equal(t, 1, b.Len(model.LogLevelError))

	entries := b.ReadAll()
	require.Len(t, entries, 4)
	assert.Equal(t, []any{2}, entries[0].Arguments)
	assert.Equal(t, []any{3}, entries[1].Arguments)
	assert.Equal(t, []any{4}, entries[2].Arguments)
	assert.Equal(t, model.LogLevelError, entries[3].Type)
}

func TestBufferReadAllIsChronological(t *testing.T) {
	b := newTestBuffer(config.LogConfig{})

	b.Append(model.LogLevelError, "first")
	b.Append(model.LogLevelLog, "second")
	b.Append(model.LogLevelWarn, "third")

	entries := b.ReadAll()
	require.Len(t, entries, 3)
	for i, want := range []string{"first", "second", "third"} {
		assert.Equal(t, want, entries[i].Arguments[0])
	}
	for i := 1; i < len(entries); i++ {
		assert.False(t, entries[i].Timestamp.Before(entries[i-1].Timestamp))
	}
}

func TestBufferZeroCapacityDisablesLevel(t *testing.T) {
	b := newTestBuffer(config.LogConfig{CacheLength: map[model.LogLevel]int{model.LogLevelDebug: 0}})
	b.Append(model.LogLevelDebug, "ignored")
	assert.Equal(t, 0, b.Len(model.LogLevelDebug))
	assert.Empty(t, b.ReadAll())
}

func TestBufferDefaultCapacity(t *testing.T) {
	b := newTestBuffer(config.LogConfig{})
	for i := 0; i < config.DefaultLogCacheLength+10; i++ {
		b.Append(model.LogLevelInfo, i)
	}
	assert.Equal(t, config.DefaultLogCacheLength, b.Len(model.LogLevelInfo))
}

func TestBufferUnknownLevelGoesToLog(t *testing.T) {
	b := newTestBuffer(config.LogConfig{})
	b.Append(model.LogLevel("trace"), "x")
	assert.Equal(t, 1, b.Len(model.LogLevelLog))
}

func TestBufferReadAllEmptyIsNotNil(t *testing.T) {
	b := NewBuffer(config.LogConfig{})
	entries := b.ReadAll()
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestLogURL(t *testing.T) {
	tests := []struct {
		name      string
		keepQuery bool
		href      string
		want      string
	}{
		{"strips query", false, "https://example.test/a?token=secret#frag", "https://example.test/a#frag"},
		{"keeps query", true, "https://example.test/a?token=secret", "https://example.test/a?token=secret"},
		{"no query", false, "https://example.test/a", "https://example.test/a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBuffer(config.LogConfig{AddQueryParamsToLog: tt.keepQuery})
			b.LogURL(tt.href)
			entries := b.ReadAll()
			require.Len(t, entries, 1)
			assert.Equal(t, model.LogLevelURL, entries[0].Type)
			assert.Equal(t, []any{tt.want}, entries[0].Arguments)
		})
	}
}

func TestBufferConcurrentAppend(t *testing.T) {
	b := NewBuffer(config.LogConfig{})
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				b.Append(model.LogLevelLog, j)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, config.DefaultLogCacheLength, b.Len(model.LogLevelLog))
}
