package realtime

import (
	"encoding/json"
	"sync"

	"collab-realtime/internal/alerts"
	"collab-realtime/internal/models"
	"collab-realtime/internal/notifications"
	"collab-realtime/internal/presence"
	"collab-realtime/internal/store"
	"collab-realtime/pkg/logger"
)

const defaultErrorMessage = "Something went wrong"

// Router is the single dispatch point for inbound events. Both
// connections feed one inbox; a single consumer goroutine drains it and
// applies mutations one at a time in arrival order, so the three stores
// stay consistent under interleaved events without further locking
// discipline in the handlers.
type Router struct {
	conversations *store.Conversations
	presence      *presence.Tracker
	feed          *notifications.Feed
	sink          alerts.Sink

	inbox    chan models.Event
	done     chan struct{}
	doneOnce sync.Once
}

func NewRouter(conversations *store.Conversations, tracker *presence.Tracker, feed *notifications.Feed, sink alerts.Sink) *Router {
	return &Router{
		conversations: conversations,
		presence:      tracker,
		feed:          feed,
		sink:          sink,
		inbox:         make(chan models.Event, 256),
		done:          make(chan struct{}),
	}
}

// Forward drains one connection's event stream into the inbox. Run it
// on its own goroutine, one per connection; it returns when the stream
// closes or the router stops.
func (r *Router) Forward(events <-chan models.Event) {
	for ev := range events {
		select {
		case r.inbox <- ev:
		case <-r.done:
			return
		}
	}
}

// Run dispatches until Stop is called.
func (r *Router) Run() {
	for {
		select {
		case ev := <-r.inbox:
			r.dispatch(ev)
		case <-r.done:
			return
		}
	}
}

func (r *Router) Stop() {
	r.doneOnce.Do(func() { close(r.done) })
}

func (r *Router) dispatch(ev models.Event) {
	switch ev.Type {
	case models.EventNewMessage:
		var msg models.Message
		if !r.decode(ev, &msg) {
			return
		}
		// Incoming messages are keyed by the sender: that peer's
		// conversation gained a message.
		r.conversations.Append(msg.SenderID, msg)
		r.sink.MessageReceived(msg.SenderID, msg)

	case models.EventMessageSent:
		var msg models.Message
		if !r.decode(ev, &msg) {
			return
		}
		// Echo of our own send, keyed by the receiver.
		r.conversations.Append(msg.ReceiverID, msg)

	case models.EventUserStatus:
		var status models.UserStatus
		if !r.decode(ev, &status) {
			return
		}
		if status.Status == models.StatusOnline {
			r.presence.SetOnline(status.UserID)
		} else {
			r.presence.SetOffline(status.UserID)
		}

	case models.EventUserTyping:
		var typing models.UserTyping
		if !r.decode(ev, &typing) {
			return
		}
		r.presence.SetTyping(typing.UserID, typing.IsTyping)

	case models.EventNewNotification:
		var n models.Notification
		if !r.decode(ev, &n) {
			return
		}
		r.feed.Push(n)
		r.sink.NotificationReceived(n)

	case models.EventNotificationRead:
		var read models.NotificationRead
		if !r.decode(ev, &read) {
			return
		}
		r.feed.MarkRead(read.NotificationID)

	case models.EventError:
		var serverErr models.ServerError
		message := defaultErrorMessage
		if r.decode(ev, &serverErr) && serverErr.Message != "" {
			message = serverErr.Message
		}
		r.sink.ServerError(message)

	case models.EventDisconnect:
		// No presence updates arrive while disconnected, so the whole
		// view is stale; reconnect repopulates it.
		r.presence.Reset()

	default:
		logger.Debug("Ignoring unhandled event type %q", ev.Type)
	}
}

func (r *Router) decode(ev models.Event, v interface{}) bool {
	if err := json.Unmarshal(ev.Data, v); err != nil {
		logger.Error("Dropping %s event with bad payload: %v", ev.Type, err)
		return false
	}
	return true
}
