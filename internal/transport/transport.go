// Package transport delivers a finished payload to the collection side.
//
// There is exactly one attempt per submission: no retry, no backoff. Callers
// that want a deadline put it on the context.
package transport

import (
	"context"

	"github.com/bluefermion/feedback-capture/internal/errors"
	"github.com/bluefermion/feedback-capture/internal/model"
)

// ErrTransport marks delivery failures.
var ErrTransport = errors.New("transport failed")

// Result is what the collection side acknowledged.
type Result struct {
	StatusCode int    `json:"statusCode,omitempty"`
	ID         string `json:"id,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Transport posts a payload to an endpoint. For HTTP the endpoint is a URL,
// for Kafka it is a topic.
type Transport interface {
	PostFeedback(ctx context.Context, payload *model.FeedbackPayload, endpoint string) (*Result, error)
}

// Func adapts a function to Transport.
type Func func(ctx context.Context, payload *model.FeedbackPayload, endpoint string) (*Result, error)

// PostFeedback calls f.
func (f Func) PostFeedback(ctx context.Context, payload *model.FeedbackPayload, endpoint string) (*Result, error) {
	return f(ctx, payload, endpoint)
}

func failed(err error, msg string) error {
	return errors.Mark(errors.Wrap(err, msg), ErrTransport)
}
