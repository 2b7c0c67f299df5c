package client

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"collab-realtime/internal/alerts"
	"collab-realtime/internal/config"
	"collab-realtime/internal/credentials"
	"collab-realtime/internal/models"
	"collab-realtime/internal/notifications"
	"collab-realtime/internal/presence"
	"collab-realtime/internal/realtime"
	"collab-realtime/internal/store"
	"collab-realtime/pkg/logger"
)

// ErrNotStarted is returned for commands issued before Start has
// established a session.
var ErrNotStarted = errors.New("session not started")

// Session owns the realtime core for one signed-in user: both
// connections, the event router, the three stores, and the notification
// REST client. The embedding application constructs one Session per
// login and tears it down on logout; stores are cleared on teardown so
// a later session never sees the previous user's data.
type Session struct {
	cfg   *config.Config
	creds credentials.Store
	sink  alerts.Sink

	conversations *store.Conversations
	presence      *presence.Tracker
	feed          *notifications.Feed
	api           *notifications.APIClient

	router    *realtime.Router
	msgConn   *realtime.Conn
	notifConn *realtime.Conn

	mu      sync.Mutex
	started bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	teardownOnce sync.Once
}

func NewSession(cfg *config.Config, creds credentials.Store, sink alerts.Sink) *Session {
	if sink == nil {
		sink = alerts.NopSink{}
	}

	conversations := store.NewConversations()
	tracker := presence.NewTracker(cfg.Chat.TypingTTL)
	feed := notifications.NewFeed(cfg.Chat.NotificationLimit)

	return &Session{
		cfg:           cfg,
		creds:         creds,
		sink:          sink,
		conversations: conversations,
		presence:      tracker,
		feed:          feed,
		api:           notifications.NewAPIClient(cfg.API.BaseURL, creds, cfg.API.RequestTimeout, cfg.Chat.NotificationLimit),
		router:        realtime.NewRouter(conversations, tracker, feed, sink),
	}
}

// Start connects both realtime endpoints and hydrates the notification
// feed. When no credentials are stored it is a no-op: the user is
// simply signed out, which is not an error.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("session already started")
	}

	if _, err := s.creds.Load(ctx); err != nil {
		if errors.Is(err, credentials.ErrNoSession) {
			logger.Info("No stored session; realtime client idle")
			return nil
		}
		return fmt.Errorf("failed to load credentials: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	rt := s.cfg.Realtime
	s.msgConn = realtime.NewConn(realtime.Options{
		Name:              "messaging",
		URL:               rt.MessagingURL,
		Handshake:         &realtime.AuthHandshake{Creds: s.creds},
		HandshakeTimeout:  rt.HandshakeTimeout,
		MaxAttempts:       rt.MaxReconnectAttempts,
		ReconnectDelay:    rt.ReconnectDelay,
		MaxReconnectDelay: rt.MaxReconnectDelay,
		OnAuthFailure:     s.handleAuthFailure,
		OnGaveUp:          s.sink.ConnectionLost,
	})
	s.notifConn = realtime.NewConn(realtime.Options{
		Name:              "notifications",
		URL:               rt.NotificationURL,
		Handshake:         &realtime.RoomHandshake{Creds: s.creds},
		HandshakeTimeout:  rt.HandshakeTimeout,
		MaxAttempts:       rt.MaxReconnectAttempts,
		ReconnectDelay:    rt.ReconnectDelay,
		MaxReconnectDelay: rt.MaxReconnectDelay,
		// Live pushes missed while disconnected are not replayed, so
		// square the feed with server truth after every (re)join.
		OnAuthenticated: func() { go s.refreshNotifications(runCtx) },
		OnAuthFailure:   s.handleAuthFailure,
		OnGaveUp:        s.sink.ConnectionLost,
	})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.router.Run()
	}()
	for _, conn := range []*realtime.Conn{s.msgConn, s.notifConn} {
		conn := conn
		s.wg.Add(2)
		go func() {
			defer s.wg.Done()
			conn.Run(runCtx)
		}()
		go func() {
			defer s.wg.Done()
			s.router.Forward(conn.Events())
		}()
	}

	s.started = true
	return nil
}

func (s *Session) handleAuthFailure(err error) {
	switch {
	case errors.Is(err, realtime.ErrSessionExpired):
		s.sink.SessionExpired()
	case errors.Is(err, credentials.ErrNoSession):
		// Signed out between dial and handshake; nothing to show.
	default:
		s.sink.ConnectFailed()
	}
}

func (s *Session) refreshNotifications(ctx context.Context) {
	page, err := s.api.Fetch(ctx)
	if err != nil {
		logger.Error("Failed to fetch notifications: %v", err)
		return
	}
	s.feed.ApplyFetch(*page)
	logger.Debug("Notification feed hydrated: %d items, %d unread", len(page.Notifications), page.UnreadCount)
}

func (s *Session) messagingConn() (*realtime.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.msgConn == nil {
		return nil, ErrNotStarted
	}
	return s.msgConn, nil
}

func (s *Session) notificationConn() (*realtime.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.notifConn == nil {
		return nil, ErrNotStarted
	}
	return s.notifConn, nil
}

// SendMessage sends a chat message to a peer, optionally tied to a
// booking. The echo appended to the conversation store arrives as a
// message_sent event.
func (s *Session) SendMessage(receiverID, content, bookingID string) error {
	conn, err := s.messagingConn()
	if err != nil {
		return err
	}
	cmd, err := models.NewCommand(models.CommandSendMessage, models.SendMessagePayload{
		ReceiverID: receiverID,
		Content:    content,
		BookingID:  bookingID,
	})
	if err != nil {
		return err
	}
	return conn.Send(cmd)
}

// MarkMessagesRead reports the given messages as read to the server.
func (s *Session) MarkMessagesRead(messageIDs []string) error {
	if len(messageIDs) == 0 {
		return nil
	}
	conn, err := s.messagingConn()
	if err != nil {
		return err
	}
	cmd, err := models.NewCommand(models.CommandMarkRead, models.MarkReadPayload{MessageIDs: messageIDs})
	if err != nil {
		return err
	}
	return conn.Send(cmd)
}

// SendTyping signals the peer that this user started or stopped typing.
func (s *Session) SendTyping(receiverID string, isTyping bool) error {
	conn, err := s.messagingConn()
	if err != nil {
		return err
	}
	cmd, err := models.NewCommand(models.CommandTyping, models.TypingPayload{
		ReceiverID: receiverID,
		IsTyping:   isTyping,
	})
	if err != nil {
		return err
	}
	return conn.Send(cmd)
}

// HydrateConversation replaces a peer's message sequence with history
// the UI fetched over REST. Issue it once when the conversation view
// opens, before live messages start appending for that peer.
func (s *Session) HydrateConversation(peerID string, msgs []models.Message) {
	s.conversations.Hydrate(peerID, msgs)
}

// MarkNotificationRead flips a notification optimistically, then
// persists over REST. A failed persist rolls the flip and the counter
// back, and the error is returned so the UI can tell the user.
func (s *Session) MarkNotificationRead(ctx context.Context, id string) error {
	if !s.feed.MarkRead(id) {
		return nil
	}

	// Best effort: tell the notification socket too, so other open
	// clients of this user converge without a refresh.
	if conn, err := s.notificationConn(); err == nil {
		if creds, err := s.creds.Load(ctx); err == nil {
			cmd, cmdErr := models.NewCommand(models.CommandMarkNotificationRead, models.MarkNotificationReadPayload{
				NotificationID: id,
				UserID:         creds.UserID,
			})
			if cmdErr == nil {
				if sendErr := conn.Send(cmd); sendErr != nil && !errors.Is(sendErr, realtime.ErrNotConnected) {
					logger.Debug("mark_notification_read push failed: %v", sendErr)
				}
			}
		}
	}

	if err := s.api.MarkRead(ctx, id); err != nil {
		s.feed.MarkUnread(id)
		return fmt.Errorf("failed to persist read flag: %w", err)
	}
	return nil
}

// MarkAllNotificationsRead flips every notification optimistically and
// persists over REST, rolling back on failure.
func (s *Session) MarkAllNotificationsRead(ctx context.Context) error {
	flipped, prevUnread := s.feed.MarkAllRead()
	if err := s.api.MarkAllRead(ctx); err != nil {
		s.feed.Restore(flipped, prevUnread)
		return fmt.Errorf("failed to persist read flags: %w", err)
	}
	return nil
}

// Conversation returns a copy of the messages exchanged with a peer.
func (s *Session) Conversation(peerID string) []models.Message {
	return s.conversations.Messages(peerID)
}

// OnlinePeers returns the peers currently known to be online.
func (s *Session) OnlinePeers() []string {
	return s.presence.Online()
}

// IsTyping reports whether a peer is currently typing.
func (s *Session) IsTyping(peerID string) bool {
	return s.presence.IsTyping(peerID)
}

// Notifications returns the feed newest first.
func (s *Session) Notifications() []models.Notification {
	return s.feed.Snapshot()
}

// UnreadNotifications returns the unread counter.
func (s *Session) UnreadNotifications() int {
	return s.feed.Unread()
}

// Teardown closes both connections, stops the router, and clears all
// stores. Idempotent; called on logout.
func (s *Session) Teardown() {
	s.teardownOnce.Do(func() {
		s.mu.Lock()
		started := s.started
		s.started = false
		cancel := s.cancel
		s.mu.Unlock()

		if started {
			if cancel != nil {
				cancel()
			}
			s.msgConn.Close()
			s.notifConn.Close()
		}
		s.router.Stop()
		s.wg.Wait()
		s.conversations.Clear()
		s.presence.Reset()
		s.feed.Clear()
	})
}
