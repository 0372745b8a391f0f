package config

import (
	"os"
	"testing"
	"time"
)

// envBackup stores environment variable values for restoration
type envBackup map[string]string

// backupAndClearEnvVars backs up and clears the specified environment variables
func backupAndClearEnvVars(keys []string) envBackup {
	backup := make(envBackup)
	for _, key := range keys {
		backup[key] = os.Getenv(key)
		os.Unsetenv(key)
	}
	return backup
}

// restore restores the backed up environment variables
func (b envBackup) restore() {
	for key, value := range b {
		if value == "" {
			os.Unsetenv(key)
		} else {
			os.Setenv(key, value)
		}
	}
}

var fetcherEnvVars = []string{
	"VIDEOFETCHER_USER_AGENT",
	"VIDEOFETCHER_TIMEOUT_SECONDS",
	"VIDEOFETCHER_OUTPUT_DIR",
	"VIDEOFETCHER_SERVER_PORT",
	"VIDEOFETCHER_SERVER_MAX_CONCURRENT",
	"VIDEOFETCHER_SERVER_API_KEY",
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.UserAgent == "" {
		t.Error("expected default user agent to be set")
	}
	if cfg.TimeoutSeconds != 10 {
		t.Errorf("expected default timeout of 10s, got %d", cfg.TimeoutSeconds)
	}
	if cfg.OutputDir == "" {
		t.Error("expected default output dir to be set")
	}
}

func TestTimeout(t *testing.T) {
	tests := []struct {
		name     string
		seconds  int
		expected time.Duration
	}{
		{name: "configured value", seconds: 30, expected: 30 * time.Second},
		{name: "zero falls back to default", seconds: 0, expected: 10 * time.Second},
		{name: "negative falls back to default", seconds: -5, expected: 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{TimeoutSeconds: tt.seconds}
			if got := cfg.Timeout(); got != tt.expected {
				t.Errorf("Timeout() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	backup := backupAndClearEnvVars(fetcherEnvVars)
	defer backup.restore()

	os.Setenv("VIDEOFETCHER_USER_AGENT", "test-agent/1.0")
	os.Setenv("VIDEOFETCHER_TIMEOUT_SECONDS", "25")
	os.Setenv("VIDEOFETCHER_SERVER_PORT", "9090")
	os.Setenv("VIDEOFETCHER_SERVER_API_KEY", "secret")

	cfg := DefaultConfig()
	if err := applyEnv(cfg); err != nil {
		t.Fatalf("applyEnv: %v", err)
	}

	if cfg.UserAgent != "test-agent/1.0" {
		t.Errorf("expected user agent override, got %q", cfg.UserAgent)
	}
	if cfg.TimeoutSeconds != 25 {
		t.Errorf("expected timeout override 25, got %d", cfg.TimeoutSeconds)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("expected server port override 9090, got %d", cfg.Server.Port)
	}
	if cfg.Server.APIKey != "secret" {
		t.Errorf("expected api key override, got %q", cfg.Server.APIKey)
	}
}

func TestApplyDefaultsFillsBlanks(t *testing.T) {
	cfg := &Config{}
	applyDefaults(cfg)

	if cfg.UserAgent != DefaultUserAgent {
		t.Errorf("expected default user agent, got %q", cfg.UserAgent)
	}
	if cfg.TimeoutSeconds != 10 {
		t.Errorf("expected default timeout, got %d", cfg.TimeoutSeconds)
	}
	if cfg.OutputDir == "" {
		t.Error("expected output dir to be filled")
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default server port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Server.MaxConcurrent != 4 {
		t.Errorf("expected default max concurrent 4, got %d", cfg.Server.MaxConcurrent)
	}
}
