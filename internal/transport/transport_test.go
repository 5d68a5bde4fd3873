package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	crdb "github.com/bluefermion/feedback-capture/internal/errors"
	"github.com/bluefermion/feedback-capture/internal/model"
)

func samplePayload() *model.FeedbackPayload {
	return &model.FeedbackPayload{
		Date:    time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		APIKey:  "key-1",
		Version: "1.2.3",
		Data:    []model.DataItem{{ID: "msg", Value: "hello"}},
	}
}

func TestHTTPPostFeedback(t *testing.T) {
	var got map[string]any
	var contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		contentType = r.Header.Get("Content-Type")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"rec-1","message":"Feedback received"}`))
	}))
	defer srv.Close()

	res, err := NewHTTP(srv.Client(), nil).PostFeedback(context.Background(), samplePayload(), srv.URL)
	require.NoError(t, err)

	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, "rec-1", res.ID)
	assert.Equal(t, "Feedback received", res.Message)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "key-1", got["apiKey"])
	assert.Equal(t, "1.2.3", got["version"])
	assert.NotContains(t, got, "navigator")
}

func TestHTTPEmptyAcknowledgement(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	res, err := NewHTTP(nil, nil).PostFeedback(context.Background(), samplePayload(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, &Result{StatusCode: http.StatusNoContent}, res)
}

func TestHTTPNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Unknown API key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	res, err := NewHTTP(srv.Client(), nil).PostFeedback(context.Background(), samplePayload(), srv.URL)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.True(t, crdb.Is(err, ErrTransport))
	assert.Contains(t, err.Error(), "401")
	assert.Contains(t, err.Error(), "Unknown API key")
}

func TestHTTPTruncatesLongErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(strings.Repeat("x", 2*maxResponseBody)))
	}))
	defer srv.Close()

	_, err := NewHTTP(srv.Client(), nil).PostFeedback(context.Background(), samplePayload(), srv.URL)
	require.Error(t, err)
	assert.Less(t, len(err.Error()), maxResponseBody+100)
}

func TestHTTPConnectionFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewHTTP(nil, nil).PostFeedback(context.Background(), samplePayload(), url)
	require.Error(t, err)
	assert.True(t, crdb.Is(err, ErrTransport))
}

func TestHTTPBadEndpoint(t *testing.T) {
	_, err := NewHTTP(nil, nil).PostFeedback(context.Background(), samplePayload(), "://nope")
	require.Error(t, err)
	assert.True(t, crdb.Is(err, ErrTransport))
}

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPostFeedback(t *testing.T) {
	w := &fakeWriter{}
	k := NewKafka(w, nil)

	res, err := k.PostFeedback(context.Background(), samplePayload(), " feedback.submitted ")
	require.NoError(t, err)
	assert.Equal(t, "queued", res.Message)

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "feedback.submitted", msg.Topic)
	assert.Equal(t, []byte("key-1"), msg.Key)
	assert.Equal(t, []kafka.Header{
		{Key: "content-type", Value: []byte("application/json")},
		{Key: "client-version", Value: []byte("1.2.3")},
	}, msg.Headers)

	var decoded model.FeedbackPayload
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, "key-1", decoded.APIKey)

	require.NoError(t, k.Close())
	assert.True(t, w.closed)
}

func TestKafkaErrors(t *testing.T) {
	_, err := NewKafka(&fakeWriter{}, nil).PostFeedback(context.Background(), samplePayload(), "  ")
	require.Error(t, err)
	assert.True(t, crdb.Is(err, ErrTransport))

	_, err = NewKafka(&fakeWriter{err: errors.New("leader not available")}, nil).
		PostFeedback(context.Background(), samplePayload(), "feedback")
	require.Error(t, err)
	assert.True(t, crdb.Is(err, ErrTransport))
	assert.Contains(t, err.Error(), "leader not available")
}

func TestNewKafkaWriter(t *testing.T) {
	w := NewKafkaWriter([]string{"localhost:9092"})
	assert.Empty(t, w.Topic)
	assert.Equal(t, 1, w.MaxAttempts)
	assert.Equal(t, kafka.RequireOne, w.RequiredAcks)
}

func TestFunc(t *testing.T) {
	var endpoint string
	f := Func(func(_ context.Context, _ *model.FeedbackPayload, e string) (*Result, error) {
		endpoint = e
		return &Result{ID: "x"}, nil
	})
	res, err := f.PostFeedback(context.Background(), samplePayload(), "somewhere")
	require.NoError(t, err)
	assert.Equal(t, "x", res.ID)
	assert.Equal(t, "somewhere", endpoint)
}
