package config

import (
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Watch    Watch    `yaml:"watch"`
	Rename   Rename   `yaml:"rename"`
	Logger   Logger   `yaml:"logger"`
	Server   Server   `yaml:"server"`
	Telegram Telegram `yaml:"telegram"`
}

// Watch holds the watch targets and the extension filter.
type Watch struct {
	Paths      []string `yaml:"paths"`
	Recursive  bool     `yaml:"recursive"`
	Extensions []string `yaml:"extensions" validate:"required,min=1"`
}

// ExtensionSet returns the configured extensions as a lowercased lookup set.
func (w Watch) ExtensionSet() map[string]bool {
	set := make(map[string]bool, len(w.Extensions))
	for _, ext := range w.Extensions {
		set[strings.ToLower(ext)] = true
	}
	return set
}

// Rename holds the tunables of the rename pipeline.
type Rename struct {
	// GracePeriod is how long to wait after a creation event before the file
	// is hashed. Screen-capture tools create the handle before the image data
	// is flushed; hashing too early yields an unstable fragment.
	GracePeriod     Duration `yaml:"grace_period"`
	SettleInterval  Duration `yaml:"settle_interval"`
	SettleAttempts  int      `yaml:"settle_attempts" validate:"min=0"`
	TimestampSource string   `yaml:"timestamp_source" validate:"oneof=mtime exif"`
	VerifyContent   bool     `yaml:"verify_content"`
}

// Logger holds the configuration for the app logging
type Logger struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Server holds the configuration for the optional status server.
type Server struct {
	Enabled     bool   `yaml:"enabled"`
	PrintRoutes bool   `yaml:"show_routes"`
	Port        uint32 `yaml:"port"`
}

type Telegram struct {
	Enabled      bool     `yaml:"enabled"`
	Token        string   `yaml:"token"`
	ChatID       int64    `yaml:"chatId"`
	AllowedUsers []string `yaml:"allowedUsers"`
}

// Duration wraps time.Duration so values like "1s" parse from YAML.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}
