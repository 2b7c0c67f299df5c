package models

import (
	"encoding/json"
	"fmt"
)

type CommandType string

const (
	// Messaging endpoint
	CommandAuthenticate CommandType = "authenticate"
	CommandSendMessage  CommandType = "send_message"
	CommandMarkRead     CommandType = "mark_read"
	CommandTyping       CommandType = "typing"

	// Notification endpoint
	CommandJoinNotificationRoom CommandType = "join_notification_room"
	CommandMarkNotificationRead CommandType = "mark_notification_read"
)

type Command struct {
	Type CommandType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

func NewCommand(t CommandType, payload interface{}) (*Command, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", t, err)
	}
	return &Command{Type: t, Data: data}, nil
}

type AuthenticatePayload struct {
	Token string `json:"token"`
}

type SendMessagePayload struct {
	ReceiverID string `json:"receiver_id"`
	Content    string `json:"content"`
	BookingID  string `json:"booking_id,omitempty"`
}

type MarkReadPayload struct {
	MessageIDs []string `json:"message_ids"`
}

type TypingPayload struct {
	ReceiverID string `json:"receiver_id"`
	IsTyping   bool   `json:"is_typing"`
}

type JoinNotificationRoomPayload struct {
	UserID string `json:"user_id"`
}

type MarkNotificationReadPayload struct {
	NotificationID string `json:"notification_id"`
	UserID         string `json:"user_id"`
}
