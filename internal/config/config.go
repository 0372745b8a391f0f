package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const (
	ConfigFileName = "config.yml"
	AppDirName     = "video-fetcher"

	// envPrefix is the prefix for environment overrides,
	// e.g. VIDEOFETCHER_USER_AGENT, VIDEOFETCHER_TIMEOUT_SECONDS.
	envPrefix = "videofetcher"
)

// DefaultUserAgent is sent on every page fetch unless overridden.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// ConfigDir returns the standard config directory for video-fetcher.
// Windows: %APPDATA%\video-fetcher\
// macOS/Linux: ~/.config/video-fetcher/
func ConfigDir() (string, error) {
	if runtime.GOOS == "windows" {
		appData := os.Getenv("APPDATA")
		if appData != "" {
			return filepath.Join(appData, AppDirName), nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppDirName), nil
}

// ConfigPath returns the path to the config file.
// e.g., ~/.config/video-fetcher/config.yml
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

type Config struct {
	// UserAgent sent on page fetches and downloads
	UserAgent string `yaml:"user_agent,omitempty" envconfig:"USER_AGENT"`

	// TimeoutSeconds is the page-fetch timeout (default: 10)
	TimeoutSeconds int `yaml:"timeout_seconds,omitempty" envconfig:"TIMEOUT_SECONDS"`

	// OutputDir is where downloaded videos are stored
	OutputDir string `yaml:"output_dir,omitempty" envconfig:"OUTPUT_DIR"`

	// Precedence is the detector merge order, highest confidence first.
	// Valid names: extraction_library, tag_scan, pattern_scan.
	Precedence []string `yaml:"precedence,omitempty" envconfig:"PRECEDENCE"`

	// Server configuration for `video-fetcher serve`
	Server ServerConfig `yaml:"server,omitempty"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	// Port is the HTTP listen port (default: 8080)
	Port int `yaml:"port,omitempty" envconfig:"SERVER_PORT"`

	// MaxConcurrent is the max number of concurrent downloads (default: 4)
	MaxConcurrent int `yaml:"max_concurrent,omitempty" envconfig:"SERVER_MAX_CONCURRENT"`

	// APIKey for authentication (optional, if set all requests must include X-API-Key header)
	APIKey string `yaml:"api_key,omitempty" envconfig:"SERVER_API_KEY"`
}

// Timeout returns the page-fetch timeout as a duration.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DefaultDownloadDir returns the default download directory.
// Windows/macOS: ~/Downloads/video-fetcher
// Linux: ~/downloads/video-fetcher
func DefaultDownloadDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./downloads"
	}

	switch runtime.GOOS {
	case "darwin", "windows":
		return filepath.Join(home, "Downloads", "video-fetcher")
	default:
		return filepath.Join(home, "downloads", "video-fetcher")
	}
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		UserAgent:      DefaultUserAgent,
		TimeoutSeconds: 10,
		OutputDir:      DefaultDownloadDir(),
		Server: ServerConfig{
			Port:          8080,
			MaxConcurrent: 4,
		},
	}
}

// Exists checks if config file exists
func Exists() bool {
	path, err := ConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Load reads the config from ~/.config/video-fetcher/config.yml and applies
// VIDEOFETCHER_* environment overrides on top.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

// applyEnv layers VIDEOFETCHER_* environment variables over cfg.
func applyEnv(cfg *Config) error {
	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return fmt.Errorf("failed to read environment overrides: %w", err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = 10
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultDownloadDir()
	}
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.MaxConcurrent <= 0 {
		cfg.Server.MaxConcurrent = 4
	}
}

// Save writes the config to ~/.config/video-fetcher/config.yml
func Save(cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	configPath, err := ConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}

	// Ensure config directory exists
	configDir := filepath.Dir(configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Add a header comment
	header := "# video-fetcher configuration file\n# Run 'video-fetcher init' to regenerate with defaults\n\n"
	content := header + string(data)

	return os.WriteFile(configPath, []byte(content), 0644)
}

// Init creates a new config.yml with default values
func Init() error {
	if Exists() {
		path, _ := ConfigPath()
		return fmt.Errorf("%s already exists", path)
	}
	return Save(DefaultConfig())
}

// LoadOrDefault loads config if it exists, otherwise returns defaults.
// Environment overrides apply in both cases.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		cfg = DefaultConfig()
		if err := applyEnv(cfg); err == nil {
			applyDefaults(cfg)
		}
	}
	return cfg
}
