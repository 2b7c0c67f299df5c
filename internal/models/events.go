package models

import "encoding/json"

type EventType string

const (
	// Messaging endpoint
	EventAuthenticated EventType = "authenticated"
	EventNewMessage    EventType = "new_message"
	EventMessageSent   EventType = "message_sent"
	EventUserStatus    EventType = "user_status"
	EventUserTyping    EventType = "user_typing"
	EventError         EventType = "error"

	// Notification endpoint
	EventConnectionSuccess EventType = "connection_success"
	EventConnectionError   EventType = "connection_error"
	EventNewNotification   EventType = "new_notification"
	EventNotificationRead  EventType = "notification_marked_read"

	// Injected locally when the transport drops, so downstream
	// consumers see the gap in stream order.
	EventDisconnect EventType = "disconnect"
)

type Event struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

type AuthResult struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Reason value the server sends when the access token is past its expiry.
const AuthReasonTokenExpired = "token_expired"

type UserStatus struct {
	UserID string `json:"user_id"`
	Status string `json:"status"` // "online" or "offline"
}

const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

type UserTyping struct {
	UserID   string `json:"user_id"`
	IsTyping bool   `json:"is_typing"`
}

type ServerError struct {
	Message string `json:"message"`
}

type NotificationRead struct {
	NotificationID string `json:"notification_id"`
}
