package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Reddit   Reddit   `yaml:"reddit"`
	Scrape   Scrape   `yaml:"scrape"`
	Analysis Analysis `yaml:"analysis"`
	Storage  Storage  `yaml:"storage"`
	Output   Output   `yaml:"output"`
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
}

type Reddit struct {
	BaseURL        string `yaml:"base_url"`
	UserAgent      string `yaml:"user_agent"`
	RequestDelayMS int    `yaml:"request_delay_ms"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	RSSFallback    bool   `yaml:"rss_fallback"`
}

type Scrape struct {
	PostLimit        int    `yaml:"post_limit"`
	CommentLimit     int    `yaml:"comment_limit"`
	Sort             string `yaml:"sort"`
	TimeFilter       string `yaml:"time_filter"`
	FetchLinkContent bool   `yaml:"fetch_link_content"`
}

type Analysis struct {
	Strategy    string `yaml:"strategy"` // "lexical" or "llm"
	Provider    string `yaml:"provider"` // "ollama" or "openai"
	Model       string `yaml:"model"`
	OllamaURL   string `yaml:"ollama_url"`
	OpenAIModel string `yaml:"openai_model"`
	APIKeyEnv   string `yaml:"api_key_env"`
	MaxTokens   int    `yaml:"max_tokens"`
}

type Storage struct {
	JobStore string `yaml:"job_store"` // "sqlite" or "memory"
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for painscope.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "painscope")
}

// DataDir returns the XDG data directory for painscope.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "painscope")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/painscope/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'painscope init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config with all defaults applied.
func Default() *Config {
	return &Config{
		Reddit: Reddit{
			BaseURL:        "https://www.reddit.com",
			UserAgent:      "painscope/1.0 (market research tool)",
			RequestDelayMS: 1100,
			TimeoutSeconds: 30,
			RSSFallback:    true,
		},
		Scrape: Scrape{
			PostLimit:    50,
			CommentLimit: 20,
			Sort:         "top",
			TimeFilter:   "year",
		},
		Analysis: Analysis{
			Strategy:    "lexical",
			Provider:    "ollama",
			Model:       "qwen2.5:7b",
			OllamaURL:   "http://localhost:11434",
			OpenAIModel: "gpt-4o-mini",
			APIKeyEnv:   "OPENAI_API_KEY",
			MaxTokens:   2048,
		},
		Storage: Storage{JobStore: "sqlite"},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "INFO"},
	}
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
