package handler

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/bluefermion/feedback-capture/internal/logger"
	"github.com/bluefermion/feedback-capture/internal/model"
)

// generateErrorID creates a short ID that ties a 500 response to its log
// line.
func generateErrorID() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("ERR-%d", time.Now().UnixNano()%1000000)
	}
	return "ERR-" + hex.EncodeToString(b)
}

// internalError logs err under a fresh error ID and answers 500 with that ID
// instead of the error text.
func (h *FeedbackHandler) internalError(w http.ResponseWriter, r *http.Request, err error, message string) {
	errorID := generateErrorID()
	h.logger.Errorw(message,
		"error_id", errorID,
		logger.FieldMethod, r.Method,
		logger.FieldPath, r.URL.Path,
		logger.FieldError, err)
	writeError(w, http.StatusInternalServerError, message, "Error ID: "+errorID)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, model.ErrorResponse{Error: message, Details: details})
}
