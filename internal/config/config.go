package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Realtime    RealtimeConfig
	API         APIConfig
	Credentials CredentialsConfig
	Chat        ChatConfig
	Log         LogConfig
}

type RealtimeConfig struct {
	MessagingURL         string
	NotificationURL      string
	HandshakeTimeout     time.Duration
	MaxReconnectAttempts int
	ReconnectDelay       time.Duration
	MaxReconnectDelay    time.Duration
}

type APIConfig struct {
	BaseURL        string
	RequestTimeout time.Duration
}

type CredentialsConfig struct {
	Source        string // "file" or "redis"
	FilePath      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

type ChatConfig struct {
	TypingTTL         time.Duration
	NotificationLimit int
}

type LogConfig struct {
	Level string
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found or error loading .env file: %v", err)
	}

	return &Config{
		Realtime: RealtimeConfig{
			MessagingURL:         getEnvOrDefault("MESSAGING_WS_URL", "ws://localhost:8080/ws/messages"),
			NotificationURL:      getEnvOrDefault("NOTIFICATION_WS_URL", "ws://localhost:8080/ws/notifications"),
			HandshakeTimeout:     getDurationOrDefault("HANDSHAKE_TIMEOUT", "20s"),
			MaxReconnectAttempts: getIntOrDefault("MAX_RECONNECT_ATTEMPTS", 10),
			ReconnectDelay:       getDurationOrDefault("RECONNECT_DELAY", "1s"),
			MaxReconnectDelay:    getDurationOrDefault("MAX_RECONNECT_DELAY", "5s"),
		},
		API: APIConfig{
			BaseURL:        getEnvOrDefault("API_BASE_URL", "http://localhost:8080/api"),
			RequestTimeout: getDurationOrDefault("API_REQUEST_TIMEOUT", "10s"),
		},
		Credentials: CredentialsConfig{
			Source:        getEnvOrDefault("CREDENTIALS_SOURCE", "file"),
			FilePath:      getEnvOrDefault("CREDENTIALS_FILE", "credentials.json"),
			RedisAddr:     getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			RedisPassword: getEnvOrDefault("REDIS_PASSWORD", ""),
			RedisDB:       getIntOrDefault("REDIS_DB", 0),
		},
		Chat: ChatConfig{
			TypingTTL:         getDurationOrDefault("TYPING_TTL", "3s"),
			NotificationLimit: getIntOrDefault("NOTIFICATION_LIMIT", 50),
		},
		Log: LogConfig{
			Level: getEnvOrDefault("LOG_LEVEL", "info"),
		},
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key, defaultValue string) time.Duration {
	value := getEnvOrDefault(key, defaultValue)
	duration, err := time.ParseDuration(value)
	if err != nil {
		log.Fatalf("Invalid duration for %s: %v", key, err)
	}
	return duration
}

func getIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Fatalf("Invalid integer for %s: %v", key, err)
	}
	return intValue
}
