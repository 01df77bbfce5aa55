// Package config provides application configuration.
//
// Precedence: environment variables > YAML file (CONFIG_PATH) > defaults.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// defaultPairingCode ships for local experiments only; Load warns when it
// is still in use.
const defaultPairingCode = "clawdbot2024"

// GatewayConfig holds the Clawdbot AI gateway connection settings.
type GatewayConfig struct {
	URL          string `yaml:"url"`
	Token        string `yaml:"token"`
	Model        string `yaml:"model"`
	SystemPrompt string `yaml:"system_prompt"`
	TimeoutSec   int    `yaml:"timeout_seconds"`
}

// Config holds all application configuration.
type Config struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`

	PairingCode      string `yaml:"pairing_code"`
	AdminKakaoID     string `yaml:"admin_kakao_id"`
	AllowedUsersFile string `yaml:"allowed_users_file"`

	Gateway GatewayConfig `yaml:"gateway"`

	CallbackTimeoutSec int `yaml:"callback_timeout_seconds"`

	LogLevel string `yaml:"log_level"`
}

// Load reads configuration from an optional YAML file pointed to by
// CONFIG_PATH, then applies environment variable overrides.
func Load() (*Config, error) {
	cfg := &Config{
		Host:             "0.0.0.0",
		Port:             "3000",
		PairingCode:      defaultPairingCode,
		AllowedUsersFile: "./data/allowed-users.json",
		Gateway: GatewayConfig{
			URL:          "http://localhost:18789",
			SystemPrompt: "당신은 카카오톡을 통해 대화하는 AI 어시스턴트입니다. 한국어로 친근하게 대화해주세요.",
			TimeoutSec:   120,
		},
		CallbackTimeoutSec: 30,
		LogLevel:           "info",
	}

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
		slog.Info("Loaded config file", "path", path)
	}

	cfg.Host = getEnv("HOST", cfg.Host)
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.PairingCode = getEnv("PAIRING_CODE", cfg.PairingCode)
	cfg.AdminKakaoID = getEnv("ADMIN_KAKAO_ID", cfg.AdminKakaoID)
	cfg.AllowedUsersFile = getEnv("ALLOWED_USERS_FILE", cfg.AllowedUsersFile)
	cfg.Gateway.URL = getEnv("CLAWDBOT_GATEWAY_URL", cfg.Gateway.URL)
	cfg.Gateway.Token = getEnv("CLAWDBOT_GATEWAY_TOKEN", cfg.Gateway.Token)
	cfg.Gateway.Model = getEnv("CLAWDBOT_MODEL", cfg.Gateway.Model)
	cfg.Gateway.SystemPrompt = getEnv("CLAWDBOT_SYSTEM_PROMPT", cfg.Gateway.SystemPrompt)
	cfg.Gateway.TimeoutSec = getEnvInt("GATEWAY_TIMEOUT_SECONDS", cfg.Gateway.TimeoutSec)
	cfg.CallbackTimeoutSec = getEnvInt("CALLBACK_TIMEOUT_SECONDS", cfg.CallbackTimeoutSec)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	for _, warning := range cfg.Warnings() {
		slog.Warn(warning)
	}

	return cfg, nil
}

// Validate checks that required configuration fields are usable.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("port must not be empty")
	}
	if c.Gateway.URL == "" {
		return fmt.Errorf("gateway URL must not be empty")
	}
	if c.Gateway.TimeoutSec <= 0 {
		return fmt.Errorf("gateway timeout must be positive")
	}
	if c.CallbackTimeoutSec <= 0 {
		return fmt.Errorf("callback timeout must be positive")
	}
	return nil
}

// Warnings returns non-fatal configuration smells.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.PairingCode == defaultPairingCode {
		warnings = append(warnings, "Using default pairing code, set PAIRING_CODE")
	}
	return warnings
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

// GatewayTimeout returns the gateway request timeout as a duration.
func (c *Config) GatewayTimeout() time.Duration {
	return time.Duration(c.Gateway.TimeoutSec) * time.Second
}

// CallbackTimeout returns the callback delivery timeout as a duration.
func (c *Config) CallbackTimeout() time.Duration {
	return time.Duration(c.CallbackTimeoutSec) * time.Second
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
