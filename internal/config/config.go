// Package config loads the archetypes tool configuration from YAML files
// layered over built-in defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/morrowland-code/morrowland77777/internal/corpus"
	"github.com/morrowland-code/morrowland77777/internal/logger"
	"github.com/morrowland-code/morrowland77777/internal/override"
)

type CorpusConfig struct {
	// Document is the extracted corpus text, one paragraph per line.
	Document        string `yaml:"document"`
	Lookahead       int    `yaml:"lookahead"`
	PlaceholderName string `yaml:"placeholder_name"`
	PlaceholderText string `yaml:"placeholder_text"`
}

type OverridesConfig struct {
	// Paths are consulted in order; entries may be doublestar globs.
	Paths   []string `yaml:"paths"`
	Exclude []string `yaml:"exclude"`
	Policy  string   `yaml:"policy"`
}

type StoreConfig struct {
	Path string `yaml:"path"`
	// Keep bounds the builds retained after an export. Zero keeps all.
	Keep int `yaml:"keep"`
}

type DaemonConfig struct {
	BaseDir    string `yaml:"base_dir"`
	SocketPath string `yaml:"socket_path"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type MetricsConfig struct {
	// Textfile, when set, receives the compile metrics in the Prometheus
	// text format after every batch run.
	Textfile string `yaml:"textfile"`
}

type Config struct {
	Corpus    CorpusConfig    `yaml:"corpus"`
	Overrides OverridesConfig `yaml:"overrides"`
	Store     StoreConfig     `yaml:"store"`
	Daemon    DaemonConfig    `yaml:"daemon"`
	Log       LogConfig       `yaml:"log"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".archetypes")

	return &Config{
		Corpus: CorpusConfig{
			Document:        "morrowland-243.txt",
			Lookahead:       corpus.DefaultLookahead,
			PlaceholderName: corpus.DefaultPlaceholderName,
			PlaceholderText: corpus.DefaultPlaceholderText,
		},
		Overrides: OverridesConfig{
			Paths:  []string{"archetypes_full.json", "archetypes.json"},
			Policy: string(override.PolicyFirstUsable),
		},
		Store: StoreConfig{
			Path: filepath.Join(dataDir, "corpus.db"),
		},
		Daemon: DaemonConfig{
			BaseDir:    dataDir,
			SocketPath: filepath.Join(dataDir, "daemon.sock"),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

func (c *Config) Validate() error {
	if c.Corpus.Lookahead < 1 {
		return fmt.Errorf("corpus.lookahead must be at least 1, got %d", c.Corpus.Lookahead)
	}
	if c.Store.Keep < 0 {
		return fmt.Errorf("store.keep must not be negative, got %d", c.Store.Keep)
	}
	if _, err := override.ParsePolicy(c.Overrides.Policy); err != nil {
		return fmt.Errorf("overrides.policy: %w", err)
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// CompilerOptions translates the corpus section into compiler options.
func (c *Config) CompilerOptions() corpus.Options {
	policy, _ := override.ParsePolicy(c.Overrides.Policy)
	return corpus.Options{
		Lookahead: c.Corpus.Lookahead,
		Policy:    policy,
		Placeholders: corpus.Placeholders{
			Name: c.Corpus.PlaceholderName,
			Text: c.Corpus.PlaceholderText,
		},
	}
}

// LoadFromFile reads a YAML file without applying defaults, so the result
// can be merged over another layer.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Merge overlays the non-zero fields of other.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Corpus.Document != "" {
		c.Corpus.Document = other.Corpus.Document
	}
	if other.Corpus.Lookahead != 0 {
		c.Corpus.Lookahead = other.Corpus.Lookahead
	}
	if other.Corpus.PlaceholderName != "" {
		c.Corpus.PlaceholderName = other.Corpus.PlaceholderName
	}
	if other.Corpus.PlaceholderText != "" {
		c.Corpus.PlaceholderText = other.Corpus.PlaceholderText
	}

	if len(other.Overrides.Paths) > 0 {
		c.Overrides.Paths = other.Overrides.Paths
	}
	if len(other.Overrides.Exclude) > 0 {
		c.Overrides.Exclude = other.Overrides.Exclude
	}
	if other.Overrides.Policy != "" {
		c.Overrides.Policy = other.Overrides.Policy
	}

	if other.Store.Path != "" {
		c.Store.Path = other.Store.Path
	}
	if other.Store.Keep != 0 {
		c.Store.Keep = other.Store.Keep
	}

	if other.Daemon.BaseDir != "" {
		c.Daemon.BaseDir = other.Daemon.BaseDir
	}
	if other.Daemon.SocketPath != "" {
		c.Daemon.SocketPath = other.Daemon.SocketPath
	}

	if other.Log.Level != "" {
		c.Log.Level = other.Log.Level
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}

	if other.Metrics.Textfile != "" {
		c.Metrics.Textfile = other.Metrics.Textfile
	}
}

func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.Daemon.BaseDir, 0700); err != nil {
		return err
	}
	return os.MkdirAll(filepath.Dir(c.Store.Path), 0700)
}
