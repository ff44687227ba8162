package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFileMissingYieldsDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")

	cfg := LoadFile(filepath.Join(t.TempDir(), "config.json"))
	if cfg.Theme != "dark" {
		t.Fatalf("expected default theme, got %q", cfg.Theme)
	}
	if cfg.APIKey != "" {
		t.Fatalf("expected no api key, got %q", cfg.APIKey)
	}
}

func TestLoadFileMalformedYieldsDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{broken"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg := LoadFile(path)
	if cfg.Theme != "dark" || cfg.APIKey != "" {
		t.Fatalf("expected defaults for malformed file, got %+v", cfg)
	}
}

func TestLoadFileReadsValues(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "")

	path := filepath.Join(t.TempDir(), "config.json")
	content := `{"api_key":"file-key","theme":"light","chat_model":"gemini-2.5-pro"}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg := LoadFile(path)
	if cfg.APIKey != "file-key" {
		t.Fatalf("expected file api key, got %q", cfg.APIKey)
	}
	if cfg.Theme != "light" {
		t.Fatalf("expected light theme, got %q", cfg.Theme)
	}
	if cfg.ChatModel != "gemini-2.5-pro" {
		t.Fatalf("expected chat model override, got %q", cfg.ChatModel)
	}
}

func TestEnvOverridesFileKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"api_key":"file-key"}`), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	t.Setenv("GEMINI_API_KEY", "env-key")
	t.Setenv("API_KEY", "legacy-key")
	if cfg := LoadFile(path); cfg.APIKey != "env-key" {
		t.Fatalf("expected GEMINI_API_KEY to win, got %q", cfg.APIKey)
	}

	t.Setenv("GEMINI_API_KEY", "")
	if cfg := LoadFile(path); cfg.APIKey != "legacy-key" {
		t.Fatalf("expected API_KEY fallback, got %q", cfg.APIKey)
	}
}
