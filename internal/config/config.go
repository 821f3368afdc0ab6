// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	SlackToken   string
	BotName      string
	Trigger      string // keyword that marks a chat message as a command
	Port         string
	DBPath       string
	CodewarsURL  string
	HTTPTimeout  time.Duration
	PollInterval time.Duration
	PollBudget   int // maximum poll attempts before grading is reported as timed out
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		SlackToken:   getEnv("SLACK_TOKEN", ""),
		BotName:      getEnv("BOT_NAME", "norris-bot"),
		Trigger:      strings.ToLower(getEnv("TRIGGER_KEYWORD", "codewars")),
		Port:         getEnv("PORT", "8080"),
		DBPath:       getEnv("DB_PATH", "./data/codewarsbot.db"),
		CodewarsURL:  getEnv("CODEWARS_API_URL", "https://www.codewars.com/api/v1"),
		HTTPTimeout:  getEnvDuration("HTTP_TIMEOUT", 30*time.Second),
		PollInterval: getEnvDuration("POLL_INTERVAL", time.Second),
		PollBudget:   getEnvInt("POLL_MAX_ATTEMPTS", 300),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.SlackToken == "" {
		return fmt.Errorf("SLACK_TOKEN cannot be empty")
	}
	if c.Trigger == "" {
		return fmt.Errorf("TRIGGER_KEYWORD cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.CodewarsURL == "" {
		return fmt.Errorf("CODEWARS_API_URL cannot be empty")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be > 0")
	}
	if c.PollBudget <= 0 {
		return fmt.Errorf("POLL_MAX_ATTEMPTS must be > 0")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
