// Package feedback turns one submission request into one payload.
//
// The Aggregator is the only part of the client with real coordination
// logic:
//
//  1. Consent gate: environment telemetry is collected only when the form
//     carries a truthy "agreement" field.
//  2. Snapshot: with consent, the environment probes run concurrently and
//     either all succeed or the submission fails.
//  3. Data assembly: form fields, then extra data, then produced data.
//  4. Delivery: the payload is handed to the transport exactly once.
//
// An Aggregator holds only static configuration; every Submit call builds its
// own state.
package feedback

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/bluefermion/feedback-capture/internal/config"
	"github.com/bluefermion/feedback-capture/internal/errors"
	"github.com/bluefermion/feedback-capture/internal/logger"
	"github.com/bluefermion/feedback-capture/internal/model"
	"github.com/bluefermion/feedback-capture/internal/screenshot"
	"github.com/bluefermion/feedback-capture/internal/snapshot"
	"github.com/bluefermion/feedback-capture/internal/transport"
)

// ErrSubmission marks failures that happened before the payload reached the
// transport: environment collection or data production.
var ErrSubmission = errors.New("feedback submission failed")

// SnapshotCollector is the environment telemetry source.
type SnapshotCollector interface {
	Collect(ctx context.Context, cfg *screenshot.Config) (*snapshot.Snapshot, error)
}

// Request is one submission.
type Request struct {
	Fields     []model.FormField
	Extra      []model.DataItem
	Producer   DataProducer
	Screenshot *screenshot.Config
}

// Aggregator assembles and sends payloads.
type Aggregator struct {
	cfg       config.Config
	snapshots SnapshotCollector
	transport transport.Transport
	logger    *zap.SugaredLogger
	now       func() time.Time
}

// NewAggregator wires an aggregator. snapshots may be nil when the caller
// never collects environment data; a consenting submission then fails.
func NewAggregator(cfg config.Config, snapshots SnapshotCollector, t transport.Transport, l *zap.SugaredLogger) *Aggregator {
	return &Aggregator{
		cfg:       cfg,
		snapshots: snapshots,
		transport: t,
		logger:    logger.OrNop(l),
		now:       time.Now,
	}
}

// Submit builds the payload for req and posts it to the configured endpoint.
//
// Errors from the snapshot or the producer are wrapped and marked with
// ErrSubmission. Errors from the transport are returned as they are.
func (a *Aggregator) Submit(ctx context.Context, req Request) (*transport.Result, error) {
	payload, err := a.Build(ctx, req)
	if err != nil {
		return nil, err
	}

	result, err := a.transport.PostFeedback(ctx, payload, a.cfg.APIURL)
	if err != nil {
		a.logger.Warnw("Feedback delivery failed", logger.FieldEndpoint, a.cfg.APIURL, logger.FieldError, err)
		return nil, err
	}
	a.logger.Infow("Feedback sent",
		logger.FieldEndpoint, a.cfg.APIURL,
		logger.FieldConsent, payload.Navigator != nil,
		logger.FieldCount, len(payload.Data))
	return result, nil
}

// Build assembles the payload without sending it.
func (a *Aggregator) Build(ctx context.Context, req Request) (*model.FeedbackPayload, error) {
	consent := HasConsent(req.Fields)

	var snap *snapshot.Snapshot
	if consent {
		if a.snapshots == nil {
			return nil, errors.Mark(errors.New("no environment collector configured"), ErrSubmission)
		}
		var err error
		snap, err = a.snapshots.Collect(ctx, req.Screenshot)
		if err != nil {
			return nil, errors.Mark(errors.Wrap(err, "collect environment"), ErrSubmission)
		}
	}

	produced, err := resolve(ctx, req.Producer)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "produce data"), ErrSubmission)
	}

	data := make([]model.DataItem, 0, len(req.Fields)+len(req.Extra)+len(produced))
	for _, field := range req.Fields {
		data = append(data, FieldToData(field))
	}
	data = append(data, req.Extra...)
	data = append(data, produced...)

	payload := &model.FeedbackPayload{
		Date:    a.now(),
		APIKey:  a.cfg.APIKey,
		Version: a.cfg.Version,
		Data:    data,
	}
	if snap != nil {
		payload.Canvas = snap.Canvas
		payload.URL = snap.URL
		payload.Cookies = snap.Cookies
		payload.Navigator = snap.Navigator
		payload.Display = snap.Display
		payload.Logs = snap.Logs
		payload.ServiceWorkers = snap.ServiceWorkers
	}
	return payload, nil
}

// HasConsent reports whether fields contain a truthy agreement field.
func HasConsent(fields []model.FormField) bool {
	for _, field := range fields {
		if field.ID == model.AgreementFieldID {
			return Truthy(field.Value)
		}
	}
	return false
}

// FieldToData maps a form field to its data item. Ratings without a maximum
// get model.DefaultRatingMax.
func FieldToData(field model.FormField) model.DataItem {
	item := model.DataItem{
		ID:    field.ID,
		Label: field.Label,
		Type:  field.Type,
		Value: field.Value,
		Max:   field.Max,
	}
	if item.Type == model.FieldRating && (item.Max == nil || *item.Max == 0) {
		max := model.DefaultRatingMax
		item.Max = &max
	}
	return item
}

// Truthy applies JavaScript truthiness to values decoded from the widget:
// nil, false, 0, NaN and "" are false, everything else is true.
func Truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case string:
		return x != ""
	case int:
		return x != 0
	case int32:
		return x != 0
	case int64:
		return x != 0
	case uint:
		return x != 0
	case uint64:
		return x != 0
	case float32:
		return x != 0 && !math.IsNaN(float64(x))
	case float64:
		return x != 0 && !math.IsNaN(x)
	default:
		return true
	}
}
