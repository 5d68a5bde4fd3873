package screenshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScale(t *testing.T) {
	tests := []struct {
		name string
		cfg  *Config
		want float64
	}{
		{"no config uses pixel ratio", nil, 2},
		{"no bounds uses pixel ratio", &Config{}, 2},
		{"width bound", &Config{MaxWidth: 960}, 0.5},
		{"height bound", &Config{MaxHeight: 270}, 0.25},
		{"both bounds take the smaller", &Config{MaxWidth: 960, MaxHeight: 270}, 0.25},
		{"bound above pixel ratio", &Config{MaxWidth: 3840 * 2}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Scale(tt.cfg, 1920, 1080, 2), 1e-9)
		})
	}
}

func TestResolveDefaults(t *testing.T) {
	opts := Resolve(nil, 800, 3000, 1920, 1080, 1)

	assert.Equal(t, DefaultBackground, opts.Background)
	assert.Equal(t, 800.0, opts.Width)
	assert.Equal(t, 3000.0, opts.Height)
	assert.Equal(t, 1.0, opts.Scale)
	assert.Equal(t, DefaultImageType, opts.ImageType)
	assert.Equal(t, DefaultCompression, opts.Compression)
	assert.Equal(t, DefaultImageTimeout, opts.ImageTimeout)
	assert.False(t, opts.Logging)
}

func TestResolveOverrides(t *testing.T) {
	opts := Resolve(&Config{ImageType: "image/jpeg", Compression: 0.8, MaxWidth: 960}, 800, 600, 1920, 1080, 2)

	assert.Equal(t, "image/jpeg", opts.ImageType)
	assert.Equal(t, 0.8, opts.Compression)
	assert.InDelta(t, 0.5, opts.Scale, 1e-9)
}

func TestSelectorOrBody(t *testing.T) {
	assert.Equal(t, "body", SelectorOrBody(nil))
	assert.Equal(t, "body", SelectorOrBody(&Config{}))
	assert.Equal(t, "#app", SelectorOrBody(&Config{Selector: "#app"}))
}
