package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all the configuration for the application
type Config struct {
	CAS      CASConfig      `yaml:"cas"`
	Database DatabaseConfig `yaml:"database"`
	Bot      BotConfig      `yaml:"bot"`
	Output   OutputConfig   `yaml:"output"`
	Display  DisplayConfig  `yaml:"display"`
	Logging  LoggingConfig  `yaml:"logging"`
	// Workers bounds how many exercises are solved at once.
	Workers int `yaml:"workers"`
}

type CASConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Timeout string `yaml:"timeout"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type BotConfig struct {
	Token string `yaml:"token"`
	Debug bool   `yaml:"debug"`
}

type OutputConfig struct {
	Dir          string `yaml:"dir"`
	TempDir      string `yaml:"temp_dir"`
	CompilePDF   bool   `yaml:"compile_pdf"`
	PdflatexPath string `yaml:"pdflatex_path"`
}

// DisplayConfig are the lowest-priority display defaults; an assignment's
// output_settings override them.
type DisplayConfig struct {
	Units             string `yaml:"units"`
	DecimalPrecision  int    `yaml:"decimal_precision"`
	ShowSteps         bool   `yaml:"show_steps"`
	ShowEquation      bool   `yaml:"show_equation"`
	ShowQuantityLabel bool   `yaml:"show_quantity_label"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		CAS: CASConfig{
			BaseURL: "http://localhost:8000",
			Timeout: "60s",
		},
		Database: DatabaseConfig{Path: "./data/integralsheet.db"},
		Output: OutputConfig{
			Dir:          "data/output",
			TempDir:      "data/temp",
			CompilePDF:   true,
			PdflatexPath: "pdflatex",
		},
		Display: DisplayConfig{
			Units:            "u",
			DecimalPrecision: 4,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
		Workers: 4,
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults; environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if token := os.Getenv("BOT_TOKEN"); token != "" {
		c.Bot.Token = token
	}
	if url := os.Getenv("CAS_URL"); url != "" {
		c.CAS.BaseURL = url
	}
	if key := os.Getenv("CAS_API_KEY"); key != "" {
		c.CAS.APIKey = key
	}
	if path := os.Getenv("DB_PATH"); path != "" {
		c.Database.Path = path
	}
	if os.Getenv("DEBUG") == "true" {
		c.Bot.Debug = true
		c.Logging.Level = "debug"
	}
}

// GetCASTimeout returns the CAS request timeout as a duration.
func (c *Config) GetCASTimeout() time.Duration {
	d, err := time.ParseDuration(c.CAS.Timeout)
	if err != nil || d <= 0 {
		return 60 * time.Second
	}
	return d
}

// Validate checks what every command needs.
func (c *Config) Validate() error {
	if c.CAS.BaseURL == "" {
		return errors.New("cas.base_url is required (or set CAS_URL)")
	}
	if c.Display.DecimalPrecision < 0 {
		return fmt.Errorf("display.decimal_precision must not be negative, got %d", c.Display.DecimalPrecision)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}

// ValidateBot additionally requires a bot token.
func (c *Config) ValidateBot() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Bot.Token == "" {
		return errors.New("BOT_TOKEN environment variable is required")
	}
	return nil
}
