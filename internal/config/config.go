// Package config loads promptOS configuration from ~/.promptos/config.json.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// UserConfig holds promptOS configuration. This is the single source of truth
// for provider selection and ambient settings; per-user profile fields
// (writing style, language, model choice) live in the profile store.
type UserConfig struct {
	// Provider selection (gemini, grok). Empty = auto-detect from keys.
	Provider string `json:"provider,omitempty"`

	// API keys per provider
	GeminiAPIKey     string `json:"gemini_api_key,omitempty"`
	OpenRouterAPIKey string `json:"openrouter_api_key,omitempty"` // Grok via OpenRouter
	XAIAPIKey        string `json:"xai_api_key,omitempty"`        // Grok direct (fallback)

	// Optional model override (e.g. gemini-2.5-flash, grok-4-0709)
	Model string `json:"model,omitempty"`

	// Logging configuration
	Logging LoggingConfig `json:"logging,omitempty"`
}

// LoggingConfig configures the category file logger.
type LoggingConfig struct {
	Level      string          `json:"level,omitempty"`      // debug, info, warn, error
	DebugMode  bool            `json:"debug_mode,omitempty"` // Master toggle - false = no logging
	Categories map[string]bool `json:"categories,omitempty"` // Per-category toggles
}

// DataDir returns the promptOS data directory (~/.promptos).
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".promptos"
	}
	return filepath.Join(home, ".promptos")
}

// DefaultUserConfigPath returns the default path to ~/.promptos/config.json.
func DefaultUserConfigPath() string {
	return filepath.Join(DataDir(), "config.json")
}

// LoadUserConfig reads the config file at path. A missing file is not an
// error; env-var detection still applies on top of an empty config.
func LoadUserConfig(path string) (*UserConfig, error) {
	cfg := &UserConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides fills empty keys from environment variables.
func (c *UserConfig) applyEnvOverrides() {
	if c.GeminiAPIKey == "" {
		c.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	}
	if c.OpenRouterAPIKey == "" {
		c.OpenRouterAPIKey = os.Getenv("OPENROUTER_API_KEY")
	}
	if c.XAIAPIKey == "" {
		c.XAIAPIKey = os.Getenv("XAI_API_KEY")
	}
}

// GetActiveProvider returns the configured provider and its API key.
// Priority: explicit provider setting, then Gemini, then Grok.
func (c *UserConfig) GetActiveProvider() (string, string) {
	switch c.Provider {
	case "gemini":
		return "gemini", c.GeminiAPIKey
	case "grok":
		return "grok", c.grokKey()
	}
	if c.GeminiAPIKey != "" {
		return "gemini", c.GeminiAPIKey
	}
	if key := c.grokKey(); key != "" {
		return "grok", key
	}
	return "", ""
}

func (c *UserConfig) grokKey() string {
	if c.OpenRouterAPIKey != "" {
		return c.OpenRouterAPIKey
	}
	return c.XAIAPIKey
}

// Save writes the config back to path, creating the directory if needed.
func (c *UserConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
