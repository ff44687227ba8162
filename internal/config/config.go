// Package config loads and saves Nihara's user configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Config holds user preferences and the API credential.
type Config struct {
	APIKey         string `json:"api_key"`
	Theme          string `json:"theme"` // "light" or "dark"
	ChatModel      string `json:"chat_model,omitempty"`
	ImageModel     string `json:"image_model,omitempty"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Theme: "dark",
	}
}

// Dir returns the directory where config and state are stored. A
// project-local .nihara directory wins over the home-level one when it
// already exists.
func Dir() (string, error) {
	if cwd, err := os.Getwd(); err == nil {
		localDir := filepath.Join(cwd, ".nihara")
		if stat, err := os.Stat(localDir); err == nil && stat.IsDir() {
			return localDir, nil
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".nihara"), nil
}

// File returns the full path to the config file.
func File() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the configuration from disk. A missing or malformed file
// yields defaults; the GEMINI_API_KEY and API_KEY environment variables
// override the stored credential.
func Load() (Config, error) {
	path, err := File()
	if err != nil {
		return applyEnv(DefaultConfig()), err
	}
	return LoadFile(path), nil
}

// LoadFile reads the configuration from an explicit path, with the same
// defaulting and env-override behavior as Load.
func LoadFile(path string) Config {
	return applyEnv(loadFile(path))
}

func loadFile(path string) Config {
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultConfig()
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig()
	}
	if cfg.Theme == "" {
		cfg.Theme = DefaultConfig().Theme
	}
	return cfg
}

func applyEnv(cfg Config) Config {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		cfg.APIKey = key
	} else if key := os.Getenv("API_KEY"); key != "" {
		cfg.APIKey = key
	}
	return cfg
}

// Save writes the configuration to disk, creating the config directory
// if needed.
func Save(cfg Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	path, err := File()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
