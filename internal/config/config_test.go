package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfigYAMLParses(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	if err != nil {
		t.Fatalf("embedded default.yaml does not parse: %v", err)
	}
	if cfg.Reddit.BaseURL == "" {
		t.Error("default base URL empty")
	}
	if cfg.Scrape.PostLimit <= 0 {
		t.Error("default post limit not positive")
	}
}

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := parse([]byte("scrape:\n  post_limit: 5\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Scrape.PostLimit != 5 {
		t.Errorf("override lost: %d", cfg.Scrape.PostLimit)
	}
	// Untouched sections keep defaults.
	if cfg.Analysis.Strategy != "lexical" {
		t.Errorf("default strategy %q", cfg.Analysis.Strategy)
	}
	if cfg.Storage.JobStore != "sqlite" {
		t.Errorf("default job store %q", cfg.Storage.JobStore)
	}
}

func TestResolveConfigPathExplicitMissing(t *testing.T) {
	if _, err := ResolveConfigPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config")
	}
}

func TestLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "reddit:\n  user_agent: test-agent\nserver:\n  port: 9999\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Reddit.UserAgent != "test-agent" {
		t.Errorf("user agent %q", cfg.Reddit.UserAgent)
	}
	if cfg.Server.Port != 9999 {
		t.Errorf("port %d", cfg.Server.Port)
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")

	// Missing file yields empty settings.
	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("load missing: %v", err)
	}
	if s.OpenAIAPIKey != "" {
		t.Errorf("expected empty key, got %q", s.OpenAIAPIKey)
	}

	s.OpenAIAPIKey = "sk-test-123"
	if err := SaveSettings(path, s); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.OpenAIAPIKey != "sk-test-123" {
		t.Errorf("key lost in round trip: %q", got.OpenAIAPIKey)
	}

	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0o600 {
		t.Errorf("settings file mode %v, want 0600", info.Mode().Perm())
	}
}

func TestGetDataDir(t *testing.T) {
	cfg := Default()
	if cfg.GetDataDir() == "" {
		t.Error("data dir empty")
	}

	cfg.Output.DataDir = "/custom/data"
	if cfg.GetDataDir() != "/custom/data" {
		t.Errorf("explicit data dir ignored: %s", cfg.GetDataDir())
	}
}
