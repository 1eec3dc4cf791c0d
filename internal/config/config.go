// Package config handles DevAssist configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./devassist.yaml, ~/.config/devassist/devassist.yaml,
// /etc/devassist/devassist.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"devassist.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "devassist", "devassist.yaml"))
	}

	paths = append(paths, "/etc/devassist/devassist.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must exist.
// Otherwise, searches DefaultSearchPaths and returns the first that exists.
// Returns an empty path (and no error) when nothing was found; the caller
// should fall back to Default().
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", nil
}

// Config holds all DevAssist configuration.
type Config struct {
	Listen    ListenConfig    `yaml:"listen"`
	Ollama    OllamaConfig    `yaml:"ollama"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	ShellExec ShellExecConfig `yaml:"shell_exec"`
	LogLevel  string          `yaml:"log_level"`
}

// ListenConfig defines the HTTP front-end settings.
type ListenConfig struct {
	Address string `yaml:"address"` // Bind address (default: "" = all interfaces)
	Port    int    `yaml:"port"`
}

// OllamaConfig defines the inference backend connection.
type OllamaConfig struct {
	// URL is the base URL of the Ollama server.
	URL string `yaml:"url"`
	// Model is the model name requested for generation and chat.
	Model string `yaml:"model"`
	// TimeoutSec bounds a single completion request (default 30).
	TimeoutSec int `yaml:"timeout_sec"`
	// ProbeTimeoutSec bounds the availability check (default 5).
	ProbeTimeoutSec int `yaml:"probe_timeout_sec"`
}

// Timeout returns the completion timeout as a duration.
func (o OllamaConfig) Timeout() time.Duration {
	if o.TimeoutSec <= 0 {
		return 30 * time.Second
	}
	return time.Duration(o.TimeoutSec) * time.Second
}

// ProbeTimeout returns the availability probe timeout as a duration.
func (o OllamaConfig) ProbeTimeout() time.Duration {
	if o.ProbeTimeoutSec <= 0 {
		return 5 * time.Second
	}
	return time.Duration(o.ProbeTimeoutSec) * time.Second
}

// WorkspaceConfig defines the directory all file operations are confined to.
type WorkspaceConfig struct {
	// Path is the root directory for file operations and created projects.
	// Created at startup if it does not exist.
	Path string `yaml:"path"`
}

// ShellExecConfig defines command execution capabilities.
type ShellExecConfig struct {
	// Enabled allows the run_command action. Disabled by default for safety.
	Enabled bool `yaml:"enabled"`
	// DeniedPatterns are command substrings to block (e.g., "rm -rf /").
	DeniedPatterns []string `yaml:"denied_patterns"`
	// AllowedPrefixes limits commands to those starting with these prefixes.
	// Empty means all commands are allowed (subject to denied patterns).
	AllowedPrefixes []string `yaml:"allowed_prefixes"`
	// DefaultTimeoutSec is the default command timeout in seconds (default 30).
	DefaultTimeoutSec int `yaml:"default_timeout_sec"`
}

// Load reads configuration from a YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables
	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Default returns a default configuration matching a stock local Ollama
// install and a ./workspace directory.
func Default() *Config {
	return &Config{
		Listen: ListenConfig{Port: 8000},
		Ollama: OllamaConfig{
			URL:   "http://localhost:11434",
			Model: "llama3.2",
		},
		Workspace: WorkspaceConfig{Path: "workspace"},
		ShellExec: ShellExecConfig{
			DeniedPatterns: []string{
				"rm -rf /",
				"rm -rf /*",
				"mkfs",
				"dd if=",
				"> /dev/sd",
				"chmod -R 777 /",
				":(){ :|:& };:", // Fork bomb
			},
		},
	}
}
