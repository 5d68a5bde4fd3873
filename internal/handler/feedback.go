// Package handler implements the HTTP API of the reference collector that
// receives payloads from the capture client.
package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bluefermion/feedback-capture/internal/errors"
	"github.com/bluefermion/feedback-capture/internal/logger"
	"github.com/bluefermion/feedback-capture/internal/model"
	"github.com/bluefermion/feedback-capture/internal/repository"
	"github.com/bluefermion/feedback-capture/internal/transport"
)

// MaxPayloadBytes bounds a submission body; screenshots dominate its size.
const MaxPayloadBytes = 20 << 20

// relayTimeout bounds one relay delivery running after the response.
const relayTimeout = 10 * time.Second

// Store is the persistence the handler needs.
type Store interface {
	Create(ctx context.Context, rec *model.Record) error
	GetByID(ctx context.Context, id string) (*model.Record, error)
	List(ctx context.Context, opts repository.ListOptions) ([]*model.Record, error)
	UpdateStatus(ctx context.Context, id, status string) (bool, error)
}

// BlobStore keeps screenshots outside the database.
type BlobStore interface {
	PutScreenshot(ctx context.Context, id string, created time.Time, image []byte) (string, error)
	Open(ctx context.Context, objectName string) (io.ReadCloser, string, error)
}

// Options configures a FeedbackHandler. Only Store is required.
type Options struct {
	Store Store
	// Blobs stores screenshots; without it they are kept inline as data URLs.
	Blobs BlobStore
	// Relay forwards every accepted payload, e.g. to Kafka, under RelayTopic.
	Relay      transport.Transport
	RelayTopic string
	// APIKeys restricts accepted keys; empty accepts any non-empty key.
	APIKeys []string
	Logger  *zap.SugaredLogger
}

// FeedbackHandler groups the feedback endpoints.
type FeedbackHandler struct {
	store      Store
	blobs      BlobStore
	relay      transport.Transport
	relayTopic string
	apiKeys    map[string]struct{}
	logger     *zap.SugaredLogger

	relays sync.WaitGroup
}

// NewFeedbackHandler builds the handler.
func NewFeedbackHandler(opts Options) *FeedbackHandler {
	h := &FeedbackHandler{
		store:      opts.Store,
		blobs:      opts.Blobs,
		relay:      opts.Relay,
		relayTopic: opts.RelayTopic,
		logger:     logger.OrNop(opts.Logger),
	}
	if len(opts.APIKeys) > 0 {
		h.apiKeys = make(map[string]struct{}, len(opts.APIKeys))
		for _, key := range opts.APIKeys {
			h.apiKeys[key] = struct{}{}
		}
	}
	return h
}

// Wait blocks until every pending relay delivery has finished.
func (h *FeedbackHandler) Wait() {
	h.relays.Wait()
}

func (h *FeedbackHandler) allowed(apiKey string) bool {
	if apiKey == "" {
		return false
	}
	if h.apiKeys == nil {
		return true
	}
	_, ok := h.apiKeys[apiKey]
	return ok
}

// HandleSubmit processes POST /api/feedback.
func (h *FeedbackHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	var payload model.FeedbackPayload
	body := http.MaxBytesReader(w, r.Body, MaxPayloadBytes)
	if err := json.NewDecoder(body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	if !h.allowed(payload.APIKey) {
		writeError(w, http.StatusUnauthorized, "Unknown API key", "")
		return
	}

	rec, err := model.NewRecord(&payload)
	if err != nil {
		h.internalError(w, r, err, "Failed to read feedback")
		return
	}
	if rec.URL == "" {
		rec.URL = r.Header.Get("Referer")
	}
	if rec.UserAgent == "" && rec.Consent {
		rec.UserAgent = r.UserAgent()
	}

	if len(payload.Canvas) > 0 {
		h.storeScreenshot(r.Context(), rec, payload.Canvas)
	}

	if err := h.store.Create(r.Context(), rec); err != nil {
		h.internalError(w, r, err, "Failed to save feedback")
		return
	}
	h.logger.Infow("Feedback stored",
		logger.FieldFeedbackID, rec.ID,
		logger.FieldAPIKey, rec.APIKey,
		logger.FieldConsent, rec.Consent)

	if h.relay != nil {
		h.forward(rec.ID, &payload)
	}

	writeJSON(w, http.StatusCreated, model.FeedbackResponse{
		ID:      rec.ID,
		Message: "Feedback submitted successfully",
	})
}

// storeScreenshot uploads the image, falling back to an inline data URL.
func (h *FeedbackHandler) storeScreenshot(ctx context.Context, rec *model.Record, image []byte) {
	if h.blobs != nil {
		key, err := h.blobs.PutScreenshot(ctx, rec.ID, rec.Date, image)
		if err == nil {
			rec.ScreenshotKey = key
			return
		}
		h.logger.Warnw("Screenshot upload failed, storing inline",
			logger.FieldFeedbackID, rec.ID, logger.FieldError, err)
	}
	rec.Screenshot = "data:" + http.DetectContentType(image) + ";base64," + base64.StdEncoding.EncodeToString(image)
}

// forward relays the payload after the response. The request context is
// gone by then, so the delivery gets its own.
func (h *FeedbackHandler) forward(id string, payload *model.FeedbackPayload) {
	h.relays.Add(1)
	go func() {
		defer h.relays.Done()
		ctx, cancel := context.WithTimeout(context.Background(), relayTimeout)
		defer cancel()
		if _, err := h.relay.PostFeedback(ctx, payload, h.relayTopic); err != nil {
			h.logger.Warnw("Feedback relay failed", logger.FieldFeedbackID, id, logger.FieldError, err)
			return
		}
		h.logger.Debugw("Feedback relayed", logger.FieldFeedbackID, id, logger.FieldEndpoint, h.relayTopic)
	}()
}

// HandleList processes GET /api/feedback.
func (h *FeedbackHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	opts := repository.ListOptions{
		APIKey: r.URL.Query().Get("apiKey"),
		Limit:  repository.DefaultListLimit,
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= 100 {
			opts.Limit = parsed
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed >= 0 {
			opts.Offset = parsed
		}
	}

	records, err := h.store.List(r.Context(), opts)
	if err != nil {
		h.internalError(w, r, err, "Failed to retrieve feedback")
		return
	}

	// The list view does not need screenshots or the raw environment.
	for _, rec := range records {
		rec.Screenshot = ""
		rec.Cookies = nil
		rec.Navigator = nil
		rec.Logs = nil
		rec.ServiceWorkers = nil
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *FeedbackHandler) lookup(w http.ResponseWriter, r *http.Request) *model.Record {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid feedback ID", "")
		return nil
	}
	rec, err := h.store.GetByID(r.Context(), id)
	if err != nil {
		h.internalError(w, r, err, "Failed to retrieve feedback")
		return nil
	}
	if rec == nil {
		writeError(w, http.StatusNotFound, "Feedback not found", "")
		return nil
	}
	return rec
}

// HandleGet processes GET /api/feedback/{id}.
func (h *FeedbackHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	if rec := h.lookup(w, r); rec != nil {
		writeJSON(w, http.StatusOK, rec)
	}
}

// HandleScreenshot processes GET /api/feedback/{id}/screenshot.
func (h *FeedbackHandler) HandleScreenshot(w http.ResponseWriter, r *http.Request) {
	rec := h.lookup(w, r)
	if rec == nil {
		return
	}

	switch {
	case rec.ScreenshotKey != "" && h.blobs != nil:
		obj, contentType, err := h.blobs.Open(r.Context(), rec.ScreenshotKey)
		if err != nil {
			h.internalError(w, r, err, "Failed to load screenshot")
			return
		}
		defer obj.Close()
		w.Header().Set("Content-Type", contentType)
		_, _ = io.Copy(w, obj)
	case strings.HasPrefix(rec.Screenshot, "data:"):
		meta, encoded, _ := strings.Cut(strings.TrimPrefix(rec.Screenshot, "data:"), ",")
		image, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			h.internalError(w, r, err, "Failed to decode screenshot")
			return
		}
		w.Header().Set("Content-Type", strings.TrimSuffix(meta, ";base64"))
		_, _ = w.Write(image)
	default:
		writeError(w, http.StatusNotFound, "No screenshot", "")
	}
}

type statusUpdate struct {
	Status string `json:"status"`
}

// HandleUpdateStatus processes PATCH /api/feedback/{id}.
func (h *FeedbackHandler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid feedback ID", "")
		return
	}

	var req statusUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	found, err := h.store.UpdateStatus(r.Context(), id, req.Status)
	if errors.Is(err, repository.ErrInvalidStatus) {
		writeError(w, http.StatusBadRequest, "Invalid status", req.Status)
		return
	}
	if err != nil {
		h.internalError(w, r, err, "Failed to update feedback")
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Feedback not found", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
