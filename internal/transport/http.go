package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/bluefermion/feedback-capture/internal/errors"
	"github.com/bluefermion/feedback-capture/internal/logger"
	"github.com/bluefermion/feedback-capture/internal/model"
)

// maxResponseBody bounds how much of an error body is quoted in errors.
const maxResponseBody = 4 << 10

// HTTP posts payloads as JSON.
type HTTP struct {
	client *http.Client
	logger *zap.SugaredLogger
}

// NewHTTP returns an HTTP transport. A nil client uses http.DefaultClient.
func NewHTTP(client *http.Client, l *zap.SugaredLogger) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{client: client, logger: logger.OrNop(l)}
}

// PostFeedback sends one POST request. Any non-2xx status is an error.
func (t *HTTP) PostFeedback(ctx context.Context, payload *model.FeedbackPayload, endpoint string) (*Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "encode payload")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, failed(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, failed(err, "post feedback")
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, failed(err, "read response")
	}

	t.logger.Debugw("Feedback posted",
		logger.FieldEndpoint, endpoint,
		logger.FieldStatus, resp.StatusCode,
		logger.FieldSize, len(body),
		logger.FieldDurationMS, time.Since(start).Milliseconds())

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		quoted := respBody
		if len(quoted) > maxResponseBody {
			quoted = quoted[:maxResponseBody]
		}
		return nil, errors.Mark(
			errors.Newf("collector responded HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(quoted)),
			ErrTransport)
	}

	result := &Result{StatusCode: resp.StatusCode}
	var ack model.FeedbackResponse
	if len(respBody) > 0 && json.Unmarshal(respBody, &ack) == nil {
		result.ID = ack.ID
		result.Message = ack.Message
	}
	return result, nil
}
