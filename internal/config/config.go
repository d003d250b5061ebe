// Package config loads and validates the application configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Site    SiteConfig    `yaml:"site"`
	Content ContentConfig `yaml:"content"`
	Output  OutputConfig  `yaml:"output"`
	Server  ServerConfig  `yaml:"server"`
	Timer   TimerConfig   `yaml:"timer"`
	Sources []Source      `yaml:"sources,omitempty"`
	Events  EventsConfig  `yaml:"events"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// SiteConfig describes the generated viewer site.
type SiteConfig struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	BaseURL     string `yaml:"base_url,omitempty"`
}

// ContentConfig locates the recipe content on disk.
type ContentConfig struct {
	// Dir holds one subdirectory per recipe, each with a recipe.yaml and a
	// process.json timeline document.
	Dir string `yaml:"dir"`
}

// OutputConfig controls where the static site is written.
type OutputConfig struct {
	Directory string `yaml:"directory"`
	Clean     bool   `yaml:"clean"` // Clean output directory before build
}

// ServerConfig configures serve mode.
type ServerConfig struct {
	Addr string `yaml:"addr"`
	// WatchContent rebuilds the site when the content directory changes.
	WatchContent bool `yaml:"watch_content"`
}

// TimerConfig configures timer state persistence and the tick cadence.
type TimerConfig struct {
	// StatePath is the JSON file all recipes' timer states are stored in.
	StatePath string `yaml:"state_path"`
	// HistoryPath is the SQLite file timer transition history is appended
	// to. Empty disables history.
	HistoryPath string `yaml:"history_path,omitempty"`
	// TickInterval is how often sessions recompute display state, as a
	// Go duration string ("1s").
	TickInterval string `yaml:"tick_interval"`
	// RetentionDays bounds how long transition history is kept.
	RetentionDays int `yaml:"retention_days"`
}

// Source is a git remote holding a recipe collection.
type Source struct {
	Name   string `yaml:"name"`
	URL    string `yaml:"url"`
	Branch string `yaml:"branch,omitempty"`
	// Path is the subdirectory inside the repository holding recipes;
	// defaults to the repository root.
	Path string `yaml:"path,omitempty"`
}

// EventsConfig configures the optional NATS publisher for timer transitions.
type EventsConfig struct {
	Enabled bool   `yaml:"enabled"`
	NATSURL string `yaml:"nats_url,omitempty"`
	Subject string `yaml:"subject,omitempty"`
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Load loads configuration from the specified file, expanding environment
// variables in the YAML content and applying defaults.
func Load(configPath string) (*Config, error) {
	// Load .env if present; a missing file is fine.
	_ = godotenv.Load()

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns a configuration with all defaults applied and no file read.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Site.Title == "" {
		c.Site.Title = "Chickadee Recipes"
	}
	if c.Content.Dir == "" {
		c.Content.Dir = "./recipes"
	}
	if c.Output.Directory == "" {
		c.Output.Directory = "./site"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Timer.StatePath == "" {
		c.Timer.StatePath = "./data/timers.json"
	}
	if c.Timer.TickInterval == "" {
		c.Timer.TickInterval = "1s"
	}
	if c.Timer.RetentionDays <= 0 {
		c.Timer.RetentionDays = 90
	}
	if c.Events.Subject == "" {
		c.Events.Subject = "chickadee.timer"
	}
	for i := range c.Sources {
		if c.Sources[i].Branch == "" {
			c.Sources[i].Branch = "main"
		}
	}
}

// TickDuration returns the parsed tick interval. Call validate first; an
// unparseable value falls back to one second.
func (c *Config) TickDuration() time.Duration {
	d, err := time.ParseDuration(c.Timer.TickInterval)
	if err != nil || d <= 0 {
		return time.Second
	}
	return d
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.Timer.TickInterval); err != nil {
		return fmt.Errorf("timer.tick_interval: %w", err)
	}
	if c.Events.Enabled && c.Events.NATSURL == "" {
		return fmt.Errorf("events.nats_url is required when events.enabled is true")
	}
	for _, src := range c.Sources {
		if src.Name == "" || src.URL == "" {
			return fmt.Errorf("sources entries require both name and url")
		}
	}
	return nil
}

const exampleConfig = `# chickadee configuration
site:
  title: "My Recipes"
  description: "Family cooking recipes with timers"

content:
  dir: ./recipes

output:
  directory: ./site
  clean: true

server:
  addr: ":8080"
  watch_content: true

timer:
  state_path: ./data/timers.json
  history_path: ./data/history.db
  tick_interval: 1s

# Optional: pull recipe collections from git remotes.
# sources:
#   - name: family-recipes
#     url: https://example.com/recipes.git
#     branch: main

events:
  enabled: false
  # nats_url: nats://localhost:4222
  # subject: chickadee.timer

metrics:
  enabled: true
`

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
