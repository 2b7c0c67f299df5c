package alerts

import "collab-realtime/internal/models"

// Sink receives the user-visible side effects of the realtime core:
// notification tones, toasts, and terminal connection failures. The
// embedding UI supplies an implementation; the core never renders
// anything itself.
type Sink interface {
	// MessageReceived fires for an incoming message from another user:
	// notification tone plus a transient toast naming the sender.
	MessageReceived(senderID string, msg models.Message)

	// NotificationReceived fires for a live-pushed notification:
	// two-tone sound plus a toast with a type-appropriate icon.
	NotificationReceived(n models.Notification)

	// ServerError fires for an application error pushed by the server.
	// The connection stays up.
	ServerError(message string)

	// SessionExpired fires when authentication fails because the token
	// expired. The user must sign in again.
	SessionExpired()

	// ConnectFailed fires when authentication fails for any other
	// reason.
	ConnectFailed()

	// ConnectionLost fires exactly once when the reconnect budget is
	// exhausted. Recovery requires a session restart.
	ConnectionLost()
}

// NopSink discards every alert.
type NopSink struct{}

func (NopSink) MessageReceived(string, models.Message)   {}
func (NopSink) NotificationReceived(models.Notification) {}
func (NopSink) ServerError(string)                       {}
func (NopSink) SessionExpired()                          {}
func (NopSink) ConnectFailed()                           {}
func (NopSink) ConnectionLost()                          {}
