// Package model defines the entities that travel from the capture client to
// the collection endpoint.
//
// The client side builds a FeedbackPayload per submission: user input as
// FormField values, normalised into DataItem entries, plus an optional
// environment snapshot (navigator, display, cookies, logs, service workers
// and a screenshot). The collector side stores each accepted payload as a
// Record.
//
// JSON tags follow the wire format the widget and the collector agree on.
package model

import (
	"encoding/json"
	"time"
)

// FieldType categorises a form field. It drives small normalisation rules,
// such as the default maximum of a rating.
type FieldType string

const (
	FieldText     FieldType = "text"
	FieldTextarea FieldType = "textarea"
	FieldCheckbox FieldType = "checkbox"
	FieldRating   FieldType = "rating"
	FieldEmail    FieldType = "email"
	FieldSelect   FieldType = "select"
)

// DefaultRatingMax is the scale used by rating fields that do not set one.
const DefaultRatingMax = 5

// AgreementFieldID is the id of the consent checkbox. Environment telemetry is
// only collected when a field with this id carries a truthy value.
const AgreementFieldID = "agreement"

// FormField is a single input collected by the UI. It is treated as immutable
// once handed to the aggregator.
type FormField struct {
	ID    string    `json:"id"`
	Label string    `json:"label"`
	Type  FieldType `json:"type"`
	Value any       `json:"value"`
	Max   *int      `json:"max,omitempty"`
}

// DataItem is the normalised shape of every piece of submitted data: form
// fields, static extra data and dynamically produced data alike.
type DataItem struct {
	ID    string    `json:"id"`
	Label string    `json:"label,omitempty"`
	Type  FieldType `json:"type,omitempty"`
	Value any       `json:"value"`
	Max   *int      `json:"max,omitempty"`
}

// ScreenInfo describes the physical display.
type ScreenInfo struct {
	Height     int     `json:"height"`
	Width      int     `json:"width"`
	PixelRatio float64 `json:"pixelRatio"` // Essential for Retina/High-DPI displays
}

// LogLevel names one console channel captured by the log buffer.
type LogLevel string

const (
	LogLevelLog     LogLevel = "log"
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarn    LogLevel = "warn"
	LogLevelError   LogLevel = "error"
	LogLevelNetwork LogLevel = "network"
	LogLevelClick   LogLevel = "click"
	LogLevelURL     LogLevel = "url"
)

// LogLevels lists every captured channel in display order.
var LogLevels = []LogLevel{
	LogLevelLog, LogLevelDebug, LogLevelInfo, LogLevelWarn,
	LogLevelError, LogLevelNetwork, LogLevelClick, LogLevelURL,
}

// LogEntry is one console call captured before submission.
type LogEntry struct {
	Type      LogLevel  `json:"type"`
	Arguments []any     `json:"arguments"`
	Timestamp time.Time `json:"timestamp"`
}

// FeedbackPayload is the single structure handed to the transport.
//
// The environment fields (Canvas through ServiceWorkers) are only set when
// the user granted consent; otherwise they are left at their zero value and
// omitted from the JSON entirely. Data is always present.
type FeedbackPayload struct {
	Date    time.Time `json:"date"`
	APIKey  string    `json:"apiKey"`
	Version string    `json:"version"`

	// Canvas is the rendered screenshot; encoding/json emits it as base64.
	Canvas         []byte              `json:"canvas,omitempty"`
	URL            string              `json:"url,omitempty"`
	Cookies        map[string]string   `json:"cookies,omitempty"`
	Navigator      *NavigatorSnapshot  `json:"navigator,omitempty"`
	Display        *ScreenInfo         `json:"display,omitempty"`
	Logs           []LogEntry          `json:"logs,omitempty"`
	ServiceWorkers []ServiceWorkerInfo `json:"serviceWorkers,omitempty"`

	Data []DataItem `json:"data"`
}

// HasEnvironment reports whether any consent-gated field is populated.
func (p FeedbackPayload) HasEnvironment() bool {
	return p.Canvas != nil || p.URL != "" || p.Cookies != nil || p.Navigator != nil ||
		p.Display != nil || p.Logs != nil || p.ServiceWorkers != nil
}

// MarshalJSON keeps "data" an array even when nothing was submitted. A
// payload carrying a navigator snapshot was collected with consent, so its
// environment fields are always emitted, with null for absent capabilities
// and an empty list for logs.
func (p FeedbackPayload) MarshalJSON() ([]byte, error) {
	data := p.Data
	if data == nil {
		data = []DataItem{}
	}

	if p.Navigator == nil {
		type plain FeedbackPayload
		q := plain(p)
		q.Data = data
		return json.Marshal(q)
	}

	logs := p.Logs
	if logs == nil {
		logs = []LogEntry{}
	}
	return json.Marshal(struct {
		Date           time.Time           `json:"date"`
		APIKey         string              `json:"apiKey"`
		Version        string              `json:"version"`
		Canvas         []byte              `json:"canvas"`
		URL            string              `json:"url"`
		Cookies        map[string]string   `json:"cookies"`
		Navigator      *NavigatorSnapshot  `json:"navigator"`
		Display        *ScreenInfo         `json:"display"`
		Logs           []LogEntry          `json:"logs"`
		ServiceWorkers []ServiceWorkerInfo `json:"serviceWorkers"`
		Data           []DataItem          `json:"data"`
	}{
		Date:           p.Date,
		APIKey:         p.APIKey,
		Version:        p.Version,
		Canvas:         p.Canvas,
		URL:            p.URL,
		Cookies:        p.Cookies,
		Navigator:      p.Navigator,
		Display:        p.Display,
		Logs:           logs,
		ServiceWorkers: p.ServiceWorkers,
		Data:           data,
	})
}

// FeedbackResponse defines the standard success response for the API.
type FeedbackResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// ErrorResponse defines the standard error structure.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
