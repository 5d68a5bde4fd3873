package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Record is what the collector keeps for every accepted payload.
//
// Display and navigator fields are flattened so the list view can show them
// without decoding JSON; the full structures are kept as raw JSON next to
// them.
type Record struct {
	ID      string    `json:"id"`
	APIKey  string    `json:"apiKey"`
	Version string    `json:"version"`
	Date    time.Time `json:"date"`

	// Consent is true when the payload carried an environment snapshot.
	Consent bool   `json:"consent"`
	URL     string `json:"url,omitempty"`

	// ---------------------------------------------------------------------
	// Display and platform
	// ---------------------------------------------------------------------
	ScreenWidth  int     `json:"screenWidth,omitempty"`
	ScreenHeight int     `json:"screenHeight,omitempty"`
	PixelRatio   float64 `json:"pixelRatio,omitempty"`
	UserAgent    string  `json:"userAgent,omitempty"`
	Platform     string  `json:"platform,omitempty"`
	Language     string  `json:"language,omitempty"`
	PrivateMode  bool    `json:"privateMode,omitempty"`

	// ---------------------------------------------------------------------
	// Artifacts
	// ---------------------------------------------------------------------
	// Screenshot is the base64 image when no object store is configured.
	Screenshot string `json:"screenshot,omitempty"`
	// ScreenshotKey is the object name in the screenshot bucket.
	ScreenshotKey string `json:"screenshotKey,omitempty"`

	Data           json.RawMessage `json:"data"`
	Cookies        json.RawMessage `json:"cookies,omitempty"`
	Navigator      json.RawMessage `json:"navigator,omitempty"`
	Logs           json.RawMessage `json:"logs,omitempty"`
	ServiceWorkers json.RawMessage `json:"serviceWorkers,omitempty"`

	Status    string    `json:"status"` // open, in_progress, resolved, closed
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewRecord flattens a payload into a Record with a fresh ID. The screenshot
// is left to the caller, which decides between inline and object storage.
func NewRecord(p *FeedbackPayload) (*Record, error) {
	r := &Record{
		ID:      uuid.NewString(),
		APIKey:  p.APIKey,
		Version: p.Version,
		Date:    p.Date,
		Consent: p.HasEnvironment(),
		URL:     p.URL,
		Status:  "open",
	}

	if p.Display != nil {
		r.ScreenWidth = p.Display.Width
		r.ScreenHeight = p.Display.Height
		r.PixelRatio = p.Display.PixelRatio
	}
	if p.Navigator != nil {
		r.UserAgent = p.Navigator.UserAgent
		r.Platform = p.Navigator.Platform
		r.Language = p.Navigator.Language
		r.PrivateMode = p.Navigator.PrivateMode
	}

	var err error
	data := p.Data
	if data == nil {
		data = []DataItem{}
	}
	if r.Data, err = json.Marshal(data); err != nil {
		return nil, err
	}
	if r.Consent {
		if r.Cookies, err = json.Marshal(p.Cookies); err != nil {
			return nil, err
		}
		if r.Navigator, err = json.Marshal(p.Navigator); err != nil {
			return nil, err
		}
		if r.Logs, err = json.Marshal(p.Logs); err != nil {
			return nil, err
		}
		if r.ServiceWorkers, err = json.Marshal(p.ServiceWorkers); err != nil {
			return nil, err
		}
	}
	return r, nil
}
