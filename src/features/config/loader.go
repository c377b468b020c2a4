package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML file from the given path and returns a new Manager.
// If the file doesn't exist, creates a default configuration.
func Load(path string) (*Manager, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		slog.Info("Config file not found, creating default configuration", "path", path)
		defaultCfg := createDefaultConfig()

		if err := saveDefaultConfig(path, defaultCfg); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}

		slog.Info("Default configuration created successfully", "path", path)
		return NewManager(defaultCfg), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	// Override with environment variables if set
	if token := os.Getenv("SNAPSHOTD_TELEGRAM_TOKEN"); token != "" {
		cfg.Telegram.Token = token
	}

	return NewManager(&cfg), nil
}

// applyDefaults fills zero values the YAML file omitted.
func applyDefaults(cfg *Config) {
	def := createDefaultConfig()
	if len(cfg.Watch.Extensions) == 0 {
		cfg.Watch.Extensions = def.Watch.Extensions
	}
	if cfg.Rename.GracePeriod == 0 {
		cfg.Rename.GracePeriod = def.Rename.GracePeriod
	}
	if cfg.Rename.SettleInterval == 0 {
		cfg.Rename.SettleInterval = def.Rename.SettleInterval
	}
	if cfg.Rename.SettleAttempts == 0 {
		cfg.Rename.SettleAttempts = def.Rename.SettleAttempts
	}
	if cfg.Rename.TimestampSource == "" {
		cfg.Rename.TimestampSource = def.Rename.TimestampSource
	}
	if cfg.Logger.Level == "" {
		cfg.Logger.Level = def.Logger.Level
	}
	if cfg.Logger.Format == "" {
		cfg.Logger.Format = def.Logger.Format
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = def.Server.Port
	}
}

// createDefaultConfig creates a new Config with sensible default values
func createDefaultConfig() *Config {
	return &Config{
		Watch: Watch{
			Paths:      []string{},
			Recursive:  false,
			Extensions: []string{".png", ".jpg", ".jpeg"},
		},
		Rename: Rename{
			GracePeriod:     Duration(time.Second),
			SettleInterval:  Duration(200 * time.Millisecond),
			SettleAttempts:  5,
			TimestampSource: "mtime",
			VerifyContent:   false,
		},
		Logger: Logger{
			Level:  "warn",
			Format: "text",
		},
		Server: Server{
			Enabled:     false,
			PrintRoutes: false,
			Port:        3737,
		},
		Telegram: Telegram{
			Enabled:      false,
			Token:        "", // Can be obtained with https://t.me/BotFather
			ChatID:       0,
			AllowedUsers: []string{},
		},
	}
}

// saveDefaultConfig writes the default configuration to the given path.
func saveDefaultConfig(path string, cfg *Config) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(2)
	return encoder.Encode(cfg)
}
