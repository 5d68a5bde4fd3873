package model

// PermissionName is a name understood by the Permissions API.
type PermissionName string

const (
	PermissionAccelerometer      PermissionName = "accelerometer"
	PermissionAmbientLightSensor PermissionName = "ambient-light-sensor"
	PermissionBackgroundSync     PermissionName = "background-sync"
	PermissionCamera             PermissionName = "camera"
	PermissionClipboardRead      PermissionName = "clipboard-read"
	PermissionClipboardWrite     PermissionName = "clipboard-write"
	PermissionGeolocation        PermissionName = "geolocation"
	PermissionGyroscope          PermissionName = "gyroscope"
	PermissionMagnetometer       PermissionName = "magnetometer"
	PermissionMicrophone         PermissionName = "microphone"
	PermissionMIDI               PermissionName = "midi"
	PermissionNotifications      PermissionName = "notifications"
	PermissionPaymentHandler     PermissionName = "payment-handler"
	PermissionPersistentStorage  PermissionName = "persistent-storage"
	PermissionPush               PermissionName = "push"
)

// KnownPermissions is the set queried by the permissions probe.
var KnownPermissions = []PermissionName{
	PermissionAccelerometer,
	PermissionAmbientLightSensor,
	PermissionBackgroundSync,
	PermissionCamera,
	PermissionClipboardRead,
	PermissionClipboardWrite,
	PermissionGeolocation,
	PermissionGyroscope,
	PermissionMagnetometer,
	PermissionMicrophone,
	PermissionMIDI,
	PermissionNotifications,
	PermissionPaymentHandler,
	PermissionPersistentStorage,
	PermissionPush,
}

// PermissionState is the resolved state of a permission query.
type PermissionState string

const (
	PermissionGranted PermissionState = "granted"
	PermissionDenied  PermissionState = "denied"
	// PermissionPrompt means the user has not decided yet.
	PermissionPrompt PermissionState = "prompt"
)

// Network mirrors navigator.connection.
type Network struct {
	Downlink      float64 `json:"downlink"`
	EffectiveType string  `json:"effectiveType"`
	Type          string  `json:"type"`
}

// StorageEstimate mirrors navigator.storage.estimate(). Both fields are nil
// when the Storage API is not available.
type StorageEstimate struct {
	Quota *float64 `json:"quota"`
	Usage *float64 `json:"usage"`
}

// NavigatorSnapshot aggregates everything read from the navigator.
type NavigatorSnapshot struct {
	CookieEnabled           bool                               `json:"cookieEnabled"`
	ServiceWorkersSupported bool                               `json:"serviceWorkersSupported"`
	UserAgent               string                             `json:"userAgent"`
	Platform                string                             `json:"platform"`
	Language                string                             `json:"language"`
	PrivateMode             bool                               `json:"privateMode"`
	Permissions             map[PermissionName]PermissionState `json:"permissions"`
	Network                 *Network                           `json:"network"`
	Storage                 StorageEstimate                    `json:"storage"`
	Plugins                 []string                           `json:"plugins"`
}

// ServiceWorkerState holds the lifecycle state of each worker slot of a
// registration; nil means the slot is empty.
type ServiceWorkerState struct {
	Waiting    *string `json:"waiting"`
	Installing *string `json:"installing"`
	Active     *string `json:"active"`
}

// ServiceWorkerInfo describes one active registration.
type ServiceWorkerInfo struct {
	Scope string             `json:"scope"`
	State ServiceWorkerState `json:"state"`
}
