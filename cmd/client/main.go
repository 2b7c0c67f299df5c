package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"collab-realtime/internal/client"
	"collab-realtime/internal/config"
	"collab-realtime/internal/credentials"
	"collab-realtime/internal/models"
	"collab-realtime/pkg/logger"

	"github.com/redis/go-redis/v9"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.GlobalLogger = logger.New(logger.ParseLevel(cfg.Log.Level))

	// Pick the credential source
	creds, err := buildCredentialStore(cfg)
	if err != nil {
		logger.Fatal("Failed to set up credential store: %v", err)
	}

	// Start the realtime session
	session := client.NewSession(cfg, creds, &consoleSink{})
	if err := session.Start(context.Background()); err != nil {
		logger.Fatal("Failed to start session: %v", err)
	}
	defer session.Teardown()

	logger.Info("Realtime client running")
	logger.Info("   messaging:     %s", cfg.Realtime.MessagingURL)
	logger.Info("   notifications: %s", cfg.Realtime.NotificationURL)

	// Wait for interrupt signal to shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Client shutting down...")
}

func buildCredentialStore(cfg *config.Config) (credentials.Store, error) {
	switch cfg.Credentials.Source {
	case "redis":
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Credentials.RedisAddr,
			Password: cfg.Credentials.RedisPassword,
			DB:       cfg.Credentials.RedisDB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		logger.Info("Using redis credential store at %s", cfg.Credentials.RedisAddr)
		return credentials.NewRedisStore(rdb, "collab"), nil
	case "file":
		return credentials.NewFileStore(cfg.Credentials.FilePath), nil
	default:
		return nil, fmt.Errorf("unknown credentials source %q", cfg.Credentials.Source)
	}
}

// consoleSink renders alerts on the terminal: \a for the notification
// tones, stderr lines for toasts.
type consoleSink struct{}

func (consoleSink) MessageReceived(senderID string, msg models.Message) {
	fmt.Fprintf(os.Stderr, "\a[message] %s: %s\n", senderID, msg.Content)
}

func (consoleSink) NotificationReceived(n models.Notification) {
	fmt.Fprintf(os.Stderr, "\a\a[%s] %s: %s\n", n.Type, n.Title, n.Message)
}

func (consoleSink) ServerError(message string) {
	fmt.Fprintf(os.Stderr, "[error] %s\n", message)
}

func (consoleSink) SessionExpired() {
	fmt.Fprintln(os.Stderr, "[session] Your session has expired. Please sign in again.")
}

func (consoleSink) ConnectFailed() {
	fmt.Fprintln(os.Stderr, "[session] Failed to connect. Please try again later.")
}

func (consoleSink) ConnectionLost() {
	fmt.Fprintln(os.Stderr, "[session] Unable to reach the server. Please restart the client.")
}
