// Package config loads shotmcp configuration from defaults, YAML files and
// SHOTMCP_* environment variables.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	shoterrors "github.com/Aman-CERP/shotmcp/internal/errors"
	"github.com/Aman-CERP/shotmcp/internal/logging"
)

// ProjectFileName is the per-project configuration file.
const ProjectFileName = ".shotmcp.yaml"

// Console stream names accepted by LoggingConfig.Console.
const (
	ConsoleStdout = "stdout"
	ConsoleStderr = "stderr"
	ConsoleNone   = "none"
)

// Config represents the complete shotmcp configuration.
type Config struct {
	Version int           `yaml:"version" json:"version"`
	Paths   PathsConfig   `yaml:"paths" json:"paths"`
	Logging LoggingConfig `yaml:"logging" json:"logging"`
	Server  ServerConfig  `yaml:"server" json:"server"`

	// Root is the application root that relative paths resolve against.
	Root string `yaml:"-" json:"root"`
}

// PathsConfig configures where artifacts live.
type PathsConfig struct {
	// Screenshots is the screenshot directory, absolute or relative to Root.
	Screenshots string `yaml:"screenshots" json:"screenshots"`
}

// LoggingConfig configures the action log.
type LoggingConfig struct {
	Level     string `yaml:"level" json:"level"`
	MaxSizeMB int    `yaml:"max_size_mb" json:"max_size_mb"`
	MaxFiles  int    `yaml:"max_files" json:"max_files"`
	// Console is one of stdout, stderr or none.
	Console string `yaml:"console" json:"console"`
}

// ServerConfig configures the MCP server.
type ServerConfig struct {
	Name      string `yaml:"name" json:"name"`
	Transport string `yaml:"transport" json:"transport"`
}

// NewConfig returns a configuration with defaults for root.
func NewConfig(root string) *Config {
	return &Config{
		Version: 1,
		Paths: PathsConfig{
			Screenshots: "screenshots",
		},
		Logging: LoggingConfig{
			Level:     "info",
			MaxSizeMB: int(logging.DefaultMaxBytes / (1024 * 1024)),
			MaxFiles:  logging.DefaultMaxFiles,
			Console:   ConsoleStdout,
		},
		Server: ServerConfig{
			Name:      "shotmcp",
			Transport: "stdio",
		},
		Root: root,
	}
}

// GetUserConfigPath returns the user configuration file:
//   - $XDG_CONFIG_HOME/shotmcp/config.yaml (if XDG_CONFIG_HOME is set)
//   - ~/.config/shotmcp/config.yaml (default)
func GetUserConfigPath() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "shotmcp", "config.yaml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".config", "shotmcp", "config.yaml")
	}
	return filepath.Join(home, ".config", "shotmcp", "config.yaml")
}

// Load loads configuration for the application root dir.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. User config (~/.config/shotmcp/config.yaml)
//  3. Project config (.shotmcp.yaml in dir)
//  4. Environment variables (SHOTMCP_*)
func Load(dir string) (*Config, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, shoterrors.ConfigError("failed to resolve application root", err).
			WithDetail("root", dir)
	}
	cfg := NewConfig(root)

	if userPath := GetUserConfigPath(); fileExists(userPath) {
		if err := cfg.loadYAML(userPath); err != nil {
			return nil, err
		}
	}

	if err := cfg.loadFromFile(root); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFromFile loads .shotmcp.yaml, falling back to .shotmcp.yml.
func (c *Config) loadFromFile(dir string) error {
	yamlPath := filepath.Join(dir, ProjectFileName)
	if fileExists(yamlPath) {
		return c.loadYAML(yamlPath)
	}

	ymlPath := filepath.Join(dir, ".shotmcp.yml")
	if fileExists(ymlPath) {
		return c.loadYAML(ymlPath)
	}

	return nil
}

func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return shoterrors.New(shoterrors.ErrCodeConfigNotFound, "failed to read config file", err).
			WithDetail("path", path)
	}

	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return shoterrors.ConfigError("failed to parse config file", err).
			WithDetail("path", path).
			WithSuggestion("Check the YAML syntax of " + path)
	}

	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}
	if other.Paths.Screenshots != "" {
		c.Paths.Screenshots = other.Paths.Screenshots
	}
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.MaxSizeMB != 0 {
		c.Logging.MaxSizeMB = other.Logging.MaxSizeMB
	}
	if other.Logging.MaxFiles != 0 {
		c.Logging.MaxFiles = other.Logging.MaxFiles
	}
	if other.Logging.Console != "" {
		c.Logging.Console = other.Logging.Console
	}
	if other.Server.Name != "" {
		c.Server.Name = other.Server.Name
	}
	if other.Server.Transport != "" {
		c.Server.Transport = other.Server.Transport
	}
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("SHOTMCP_SCREENSHOTS_DIR"); v != "" {
		c.Paths.Screenshots = v
	}
	if v := os.Getenv("SHOTMCP_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("SHOTMCP_LOG_CONSOLE"); v != "" {
		c.Logging.Console = strings.ToLower(v)
	}
	if v := os.Getenv("SHOTMCP_LOG_MAX_SIZE_MB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Logging.MaxSizeMB = n
		}
	}
	if v := os.Getenv("SHOTMCP_TRANSPORT"); v != "" {
		c.Server.Transport = v
	}
}

// Validate checks the final configuration.
func (c *Config) Validate() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return shoterrors.New(shoterrors.ErrCodeInvalidLevel,
			fmt.Sprintf("logging.level must be debug, info, warning, error or critical, got %q", c.Logging.Level), nil)
	}
	if c.Logging.MaxSizeMB < 0 {
		return shoterrors.ConfigError(
			fmt.Sprintf("logging.max_size_mb must be non-negative, got %d", c.Logging.MaxSizeMB), nil)
	}
	if c.Logging.MaxFiles < 0 {
		return shoterrors.ConfigError(
			fmt.Sprintf("logging.max_files must be non-negative, got %d", c.Logging.MaxFiles), nil)
	}
	switch c.Logging.Console {
	case ConsoleStdout, ConsoleStderr, ConsoleNone:
	default:
		return shoterrors.ConfigError(
			fmt.Sprintf("logging.console must be 'stdout', 'stderr' or 'none', got %q", c.Logging.Console), nil)
	}
	if !strings.EqualFold(c.Server.Transport, "stdio") {
		return shoterrors.ConfigError(
			fmt.Sprintf("server.transport must be 'stdio', got %q", c.Server.Transport), nil)
	}
	if c.Paths.Screenshots == "" {
		return shoterrors.ConfigError("paths.screenshots must not be empty", nil)
	}
	return nil
}

// ScreenshotsDir returns the absolute screenshot directory.
func (c *Config) ScreenshotsDir() string {
	if filepath.IsAbs(c.Paths.Screenshots) {
		return c.Paths.Screenshots
	}
	return filepath.Join(c.Root, c.Paths.Screenshots)
}

// LogConfig returns the registry configuration derived from c. The console
// stream is resolved by the caller since it depends on the running mode.
func (c *Config) LogConfig() logging.Config {
	cfg := logging.DefaultConfig(c.Root)
	cfg.MaxBytes = int64(c.Logging.MaxSizeMB) * 1024 * 1024
	cfg.MaxFiles = c.Logging.MaxFiles
	switch c.Logging.Console {
	case ConsoleStderr:
		cfg.Console = os.Stderr
	case ConsoleNone:
		cfg.Console = io.Discard
	}
	return cfg
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return shoterrors.InternalError("failed to marshal config", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return shoterrors.New(shoterrors.ErrCodeFilePermission, "failed to write config file", err).
			WithDetail("path", path)
	}
	return nil
}

// FindProjectRoot walks up from startDir looking for .git or a
// .shotmcp.yaml/.yml file. It returns the absolute startDir when neither is
// found.
func FindProjectRoot(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absDir
	for {
		if dirExists(filepath.Join(currentDir, ".git")) ||
			fileExists(filepath.Join(currentDir, ProjectFileName)) ||
			fileExists(filepath.Join(currentDir, ".shotmcp.yml")) {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return absDir, nil
		}
		currentDir = parentDir
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.IsDir()
}
