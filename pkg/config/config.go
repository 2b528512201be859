// Package config provides configuration file support for the garden tools.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/grantoftegaard/garden/pkg/model"
)

// DefaultFile is the config file looked up in the working directory.
const DefaultFile = "garden.yaml"

// Config represents the garden configuration.
type Config struct {
	DataDir         string         `yaml:"data_dir"`
	BackgroundImage string         `yaml:"background_image"`
	OutputImage     string         `yaml:"output_image"`
	AuditLog        string         `yaml:"audit_log"`
	ListenAddr      string         `yaml:"listen_addr"`
	Canvas          CanvasConfig   `yaml:"canvas"`
	Defaults        DefaultsConfig `yaml:"defaults"`
	Logging         LoggingConfig  `yaml:"logging"`
}

// CanvasConfig is the canonical drawing-surface size.
type CanvasConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// DefaultsConfig seeds the add-plant form.
type DefaultsConfig struct {
	FillColor   string `yaml:"fill_color"`
	Tool        string `yaml:"tool"`
	StrokeWidth int    `yaml:"stroke_width"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, text
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DataDir:         "data",
		BackgroundImage: filepath.Join("img", "background.png"),
		OutputImage:     filepath.Join("img", "current_layout.png"),
		AuditLog:        filepath.Join("data", ".audit", "audit.jsonl"),
		ListenAddr:      "127.0.0.1:8501",
		Canvas: CanvasConfig{
			Width:  1600,
			Height: 1000,
		},
		Defaults: DefaultsConfig{
			FillColor:   "#0E28D0",
			Tool:        "rect",
			StrokeWidth: 4,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from path. A missing file yields the defaults.
// Relative paths in the file are resolved against the file's directory.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg.resolve(filepath.Dir(path)), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg.resolve(filepath.Dir(path)), nil
}

// Save writes configuration to path.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// Validate checks values that would otherwise fail much later.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("config: data_dir must not be empty")
	}
	if c.OutputImage == "" {
		return fmt.Errorf("config: output_image must not be empty")
	}
	if c.Canvas.Width <= 0 || c.Canvas.Height <= 0 {
		return fmt.Errorf("config: canvas size must be positive, got %dx%d", c.Canvas.Width, c.Canvas.Height)
	}
	if !model.IsHexColor(c.Defaults.FillColor) {
		return fmt.Errorf("config: defaults.fill_color must be #RRGGBB, got %q", c.Defaults.FillColor)
	}
	if c.Defaults.StrokeWidth < 1 || c.Defaults.StrokeWidth > 15 {
		return fmt.Errorf("config: defaults.stroke_width must be within 1..15, got %d", c.Defaults.StrokeWidth)
	}
	return nil
}

func (c *Config) resolve(base string) *Config {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	c.DataDir = abs(c.DataDir)
	c.BackgroundImage = abs(c.BackgroundImage)
	c.OutputImage = abs(c.OutputImage)
	c.AuditLog = abs(c.AuditLog)
	return c
}
