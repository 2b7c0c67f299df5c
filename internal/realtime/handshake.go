package realtime

import (
	"context"
	"encoding/json"
	"fmt"

	"collab-realtime/internal/credentials"
	"collab-realtime/internal/models"
)

// Handshake drives the endpoint-specific open sequence once the
// transport is up. Open sends the opening command; Complete inspects
// inbound events until the server confirms or rejects. A non-nil error
// from Complete is a rejection, which is terminal for the connection.
type Handshake interface {
	Open(ctx context.Context, send func(*models.Command) error) error
	Complete(ev *models.Event) (done bool, err error)
}

// AuthHandshake authenticates the messaging connection with the access
// token current at handshake time.
type AuthHandshake struct {
	Creds credentials.Store
}

func (h *AuthHandshake) Open(ctx context.Context, send func(*models.Command) error) error {
	creds, err := h.Creds.Load(ctx)
	if err != nil {
		return err
	}
	if credentials.TokenExpired(creds.AccessToken) {
		return ErrSessionExpired
	}

	cmd, err := models.NewCommand(models.CommandAuthenticate, models.AuthenticatePayload{Token: creds.AccessToken})
	if err != nil {
		return err
	}
	return send(cmd)
}

func (h *AuthHandshake) Complete(ev *models.Event) (bool, error) {
	if ev.Type != models.EventAuthenticated {
		return false, nil
	}

	var result models.AuthResult
	if err := json.Unmarshal(ev.Data, &result); err != nil {
		return true, fmt.Errorf("malformed auth result: %w", err)
	}
	if result.Success {
		return true, nil
	}
	if result.Reason == models.AuthReasonTokenExpired {
		return true, ErrSessionExpired
	}
	return true, fmt.Errorf("authentication rejected: %s", result.Error)
}

// RoomHandshake joins the per-user room on the notification connection.
type RoomHandshake struct {
	Creds credentials.Store
}

func (h *RoomHandshake) Open(ctx context.Context, send func(*models.Command) error) error {
	creds, err := h.Creds.Load(ctx)
	if err != nil {
		return err
	}
	if credentials.TokenExpired(creds.AccessToken) {
		return ErrSessionExpired
	}

	cmd, err := models.NewCommand(models.CommandJoinNotificationRoom, models.JoinNotificationRoomPayload{UserID: creds.UserID})
	if err != nil {
		return err
	}
	return send(cmd)
}

func (h *RoomHandshake) Complete(ev *models.Event) (bool, error) {
	switch ev.Type {
	case models.EventConnectionSuccess:
		return true, nil
	case models.EventConnectionError:
		var serverErr models.ServerError
		if err := json.Unmarshal(ev.Data, &serverErr); err != nil || serverErr.Message == "" {
			return true, fmt.Errorf("notification room join rejected")
		}
		return true, fmt.Errorf("notification room join rejected: %s", serverErr.Message)
	default:
		return false, nil
	}
}
