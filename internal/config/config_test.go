package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, "m", cfg.Trace.PreviewSize)
	assert.Equal(t, 5, cfg.Trace.MaxResults)
	assert.True(t, cfg.Trace.CutBorders)
	assert.False(t, cfg.Trace.Mute)
	assert.Empty(t, cfg.Trace.APIKey)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[log]
level = "debug"

[matrix]
homeserver = "https://matrix.example.com"
user_id = "@tracebot:example.com"
access_token = "syt_secret"

[trace]
api_key = "trace-key"
preview_size = "l"
mute = true
cut_borders = false
max_results = 3
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "l", cfg.Trace.PreviewSize)
	assert.True(t, cfg.Trace.Mute)
	assert.False(t, cfg.Trace.CutBorders)
	assert.Equal(t, 3, cfg.Trace.MaxResults)
	assert.Equal(t, "trace-key", cfg.Trace.APIKey)
	assert.Equal(t, "@tracebot:example.com", cfg.Matrix.UserID)
}

func TestNormalizePreviewSize(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"s":      "s",
		"m":      "m",
		"l":      "l",
		"small":  "s",
		"medium": "m",
		"large":  "l",
		"L":      "l",
		"":       "m",
		"z":      "m",
	}
	for in, want := range cases {
		assert.Equal(t, want, normalizePreviewSize(in), "input %q", in)
	}
}

func TestNormalizeTraceClampsMaxResults(t *testing.T) {
	t.Parallel()

	cases := map[int]int{
		-5: 1,
		0:  1,
		1:  1,
		3:  3,
	}
	for in, want := range cases {
		got := normalizeTrace(TraceConfig{PreviewSize: "m", MaxResults: in})
		assert.Equal(t, want, got.MaxResults, "input %d", in)
	}
}

func TestValidateRequiresMatrixSection(t *testing.T) {
	t.Parallel()

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Error(t, Validate(cfg))

	cfg.Matrix = MatrixConfig{
		Homeserver:  "https://matrix.example.com",
		UserID:      "@tracebot:example.com",
		AccessToken: "syt_secret",
	}
	assert.NoError(t, Validate(cfg))
}
