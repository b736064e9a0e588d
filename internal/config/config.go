package config

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultConfigPath  = "config.toml"
	DefaultPreviewSize = "m"
	DefaultMaxResults  = 5
)

type Config struct {
	Log    LogConfig    `toml:"log"`
	Matrix MatrixConfig `toml:"matrix"`
	Trace  TraceConfig  `toml:"trace"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type MatrixConfig struct {
	Homeserver  string `toml:"homeserver" validate:"required,url"`
	UserID      string `toml:"user_id" validate:"required"`
	AccessToken string `toml:"access_token" validate:"required"`
}

// TraceConfig holds the search-side settings. It is loaded once at startup
// and treated as read-only afterwards; the search client copies what it
// needs into its own immutable state.
type TraceConfig struct {
	APIKey      string `toml:"api_key"`
	PreviewSize string `toml:"preview_size" validate:"oneof=s m l"`
	Mute        bool   `toml:"mute"`
	CutBorders  bool   `toml:"cut_borders"`
	MaxResults  int    `toml:"max_results" validate:"min=1"`
}

func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Trace: TraceConfig{
			PreviewSize: DefaultPreviewSize,
			CutBorders:  true,
			MaxResults:  DefaultMaxResults,
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	cfg.Trace = normalizeTrace(cfg.Trace)
	return cfg, nil
}

// Validate checks the fields a running bot cannot do without. Trace settings
// are normalized during Load and always pass; the Matrix section must be
// filled in by the operator.
func Validate(cfg Config) error {
	v := validator.New()
	return v.Struct(cfg)
}

func normalizeTrace(tc TraceConfig) TraceConfig {
	tc.PreviewSize = normalizePreviewSize(tc.PreviewSize)
	if tc.MaxResults < 1 {
		tc.MaxResults = 1
	}
	return tc
}

// normalizePreviewSize maps the configured selector onto the s|m|l values
// the preview endpoints accept, falling back to medium for anything else.
func normalizePreviewSize(size string) string {
	switch strings.ToLower(strings.TrimSpace(size)) {
	case "s", "small":
		return "s"
	case "m", "medium":
		return "m"
	case "l", "large":
		return "l"
	default:
		return DefaultPreviewSize
	}
}
