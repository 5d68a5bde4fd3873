package handler

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/bluefermion/feedback-capture/internal/logger"
)

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Logging logs method, path, status and duration of every request.
func Logging(l *zap.SugaredLogger) func(http.Handler) http.Handler {
	l = logger.OrNop(l)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(sw, r)
			l.Infow("HTTP request",
				logger.FieldMethod, r.Method,
				logger.FieldPath, r.URL.Path,
				logger.FieldStatus, sw.status,
				logger.FieldDurationMS, time.Since(start).Milliseconds())
		})
	}
}

// Recovery turns a panic into a logged 500 with an error ID.
func Recovery(l *zap.SugaredLogger) func(http.Handler) http.Handler {
	l = logger.OrNop(l)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				errorID := generateErrorID()
				l.Errorw("Handler panicked",
					"error_id", errorID,
					logger.FieldPath, r.URL.Path,
					"panic", rec,
					zap.Stack("stack"))
				writeError(w, http.StatusInternalServerError, "Internal Server Error", "Error ID: "+errorID)
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// CORS lets widgets on any origin post feedback.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
