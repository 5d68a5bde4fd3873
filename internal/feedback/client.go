package feedback

import (
	"context"

	"go.uber.org/zap"

	"github.com/bluefermion/feedback-capture/internal/config"
	"github.com/bluefermion/feedback-capture/internal/logger"
	"github.com/bluefermion/feedback-capture/internal/model"
	"github.com/bluefermion/feedback-capture/internal/screenshot"
	"github.com/bluefermion/feedback-capture/internal/transport"
)

// Client is the public entry point of the capture client. It owns the
// validated configuration; every call builds a fresh Aggregator.
type Client struct {
	cfg       config.Config
	snapshots func() SnapshotCollector
	transport transport.Transport
	logger    *zap.SugaredLogger
}

// NewClient validates cfg and returns a client. snapshots is called once per
// consenting submission; it may be nil for clients that never attach
// environment data.
func NewClient(cfg config.Config, snapshots func() SnapshotCollector, t transport.Transport, l *zap.SugaredLogger) (*Client, error) {
	if err := config.Validate(&cfg); err != nil {
		return nil, err
	}
	return &Client{
		cfg:       cfg,
		snapshots: snapshots,
		transport: t,
		logger:    logger.OrNop(l).With(logger.FieldComponent, "feedback"),
	}, nil
}

// Config returns the client's configuration.
func (c *Client) Config() config.Config { return c.cfg }

func (c *Client) aggregator() *Aggregator {
	var snaps SnapshotCollector
	if c.snapshots != nil {
		snaps = c.snapshots()
	}
	return NewAggregator(c.cfg, snaps, c.transport, c.logger)
}

// SendFeedback sends data without a form. When agreement is true a checkbox
// field named "agreement" is added so the environment snapshot is attached.
func (c *Client) SendFeedback(ctx context.Context, data []model.DataItem, producer DataProducer, agreement bool, shot *screenshot.Config) (*transport.Result, error) {
	var fields []model.FormField
	if agreement {
		fields = append(fields, model.FormField{
			ID:    model.AgreementFieldID,
			Label: model.AgreementFieldID,
			Type:  model.FieldCheckbox,
			Value: true,
		})
	}
	return c.aggregator().Submit(ctx, Request{Fields: fields, Extra: data, Producer: producer, Screenshot: shot})
}

// SendFeedbackFromModal sends the fields collected by a feedback form.
func (c *Client) SendFeedbackFromModal(ctx context.Context, fields []model.FormField, data []model.DataItem, producer DataProducer, shot *screenshot.Config) (*transport.Result, error) {
	return c.aggregator().Submit(ctx, Request{Fields: fields, Extra: data, Producer: producer, Screenshot: shot})
}

// SendError reports an error message as a single textarea field.
func (c *Client) SendError(ctx context.Context, message string) (*transport.Result, error) {
	fields := []model.FormField{{
		ID:    "error",
		Label: "error",
		Type:  model.FieldTextarea,
		Value: message,
	}}
	return c.aggregator().Submit(ctx, Request{Fields: fields})
}
