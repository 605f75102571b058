package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the chat client and the reference server.
type Config struct {
	// Client side.
	ChatHost     string
	ChatSecure   bool
	WSDriver     string
	IdentityFile string

	// Reference server.
	ServerAddr   string
	DefaultRooms []string

	LogFormat string
	LogLevel  string
}

// New loads configuration from an optional .env file and the environment.
func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg := &Config{
		ChatHost:     getEnv("CHAT_HOST", "localhost:8080"),
		WSDriver:     getEnv("CHAT_WS_DRIVER", "coder"),
		IdentityFile: getEnv("CHAT_IDENTITY_FILE", defaultIdentityFile()),
		ServerAddr:   getEnv("SERVER_ADDR", ":8080"),
		DefaultRooms: splitList(getEnv("SERVER_DEFAULT_ROOMS", "general")),
		LogFormat:    getEnv("LOG_FORMAT", "text"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
	}

	secure, err := strconv.ParseBool(getEnv("CHAT_SECURE", "false"))
	if err != nil {
		return nil, fmt.Errorf("invalid CHAT_SECURE: %w", err)
	}
	cfg.ChatSecure = secure

	if cfg.ChatHost == "" {
		return nil, fmt.Errorf("CHAT_HOST must not be empty")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func defaultIdentityFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gobychat-identity.json"
	}
	return filepath.Join(home, ".gobychat", "identity.json")
}
