// Package config handles application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the application configuration.
type Config struct {
	DatabasePath     string
	LogLevel         string
	TelegramBotToken string
	TelegramChatID   int64
	TickSeconds      int
}

// Load reads configuration from environment variables. The Telegram
// token is optional; when it is unset, notification actions are
// logged instead of delivered.
func Load() (*Config, error) {
	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/reader.db"
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	token := os.Getenv("TELEGRAM_BOT_TOKEN")

	var chatID int64
	if raw := os.Getenv("TELEGRAM_CHAT_ID"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid TELEGRAM_CHAT_ID %q: %w", raw, err)
		}
		chatID = v
	}
	if token != "" && chatID == 0 {
		return nil, fmt.Errorf("TELEGRAM_CHAT_ID is required when TELEGRAM_BOT_TOKEN is set")
	}

	tick := 60
	if raw := os.Getenv("TICK_SECONDS"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			return nil, fmt.Errorf("invalid TICK_SECONDS %q", raw)
		}
		tick = v
	}

	return &Config{
		DatabasePath:     dbPath,
		LogLevel:         logLevel,
		TelegramBotToken: token,
		TelegramChatID:   chatID,
		TickSeconds:      tick,
	}, nil
}

// NotificationsEnabled reports whether a Telegram delivery backend is
// configured.
func (c *Config) NotificationsEnabled() bool {
	return c.TelegramBotToken != ""
}
