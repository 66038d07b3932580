package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

const (
	ProjectConfigFile = "archetypes.yaml"
	UserConfigDir     = ".config/archetypes"
	UserConfigFile    = "config.yaml"
)

// Loader resolves configuration with layered precedence:
// defaults, user config, project config, then an explicit file.
type Loader struct {
	logger  *slog.Logger
	workDir string
	homeDir string
}

func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	wd, _ := os.Getwd()
	home, _ := os.UserHomeDir()
	return &Loader{logger: logger, workDir: wd, homeDir: home}
}

// WithDirs pins the directories searched for user and project files.
func (l *Loader) WithDirs(workDir, homeDir string) *Loader {
	l.workDir = workDir
	l.homeDir = homeDir
	return l
}

// Load applies every layer found. explicit may be empty; when set, failing
// to read it is an error rather than a skipped layer.
func (l *Loader) Load(explicit string) (*Config, error) {
	cfg := DefaultConfig()

	if userPath := l.userConfigPath(); userPath != "" {
		if userCfg, err := LoadFromFile(userPath); err == nil {
			l.logger.Debug("Loaded user config", slog.String("path", userPath))
			cfg.Merge(userCfg)
		} else if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Warn("Failed to load user config", slog.String("path", userPath), slog.String("error", err.Error()))
		}
	}

	if projectPath := l.findProjectConfig(); projectPath != "" {
		if projectCfg, err := LoadFromFile(projectPath); err == nil {
			l.logger.Debug("Loaded project config", slog.String("path", projectPath))
			cfg.Merge(projectCfg)
		} else {
			l.logger.Warn("Failed to load project config", slog.String("path", projectPath), slog.String("error", err.Error()))
		}
	}

	if explicit != "" {
		explicitCfg, err := LoadFromFile(explicit)
		if err != nil {
			return nil, err
		}
		cfg.Merge(explicitCfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *Loader) userConfigPath() string {
	if l.homeDir == "" {
		return ""
	}
	return filepath.Join(l.homeDir, UserConfigDir, UserConfigFile)
}

// findProjectConfig walks from the working directory up to the root.
func (l *Loader) findProjectConfig() string {
	if l.workDir == "" {
		return ""
	}

	dir := l.workDir
	for {
		path := filepath.Join(dir, ProjectConfigFile)
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}
