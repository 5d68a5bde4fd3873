package blobstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestObjectPath(t *testing.T) {
	created := time.Date(2024, 3, 7, 23, 30, 0, 0, time.FixedZone("PST", -8*3600))
	assert.Equal(t, "screenshots/year=2024/month=03/day=08/abc.png", ObjectPath(BasePath, created, "abc.png"))
}

func TestExtension(t *testing.T) {
	tests := map[string]string{
		"image/png":                ".png",
		"image/jpeg":               ".jpg",
		"image/webp":               ".webp",
		"application/octet-stream": ".bin",
	}
	for contentType, want := range tests {
		assert.Equal(t, want, extension(contentType), contentType)
	}
}
