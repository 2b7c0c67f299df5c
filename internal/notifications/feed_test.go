package notifications

import (
	"fmt"
	"testing"
	"time"

	"collab-realtime/internal/models"
)

func makeNotification(id string, read bool) models.Notification {
	return models.Notification{
		ID:        id,
		Type:      "message",
		Title:     "New message",
		Message:   "notification " + id,
		IsRead:    read,
		CreatedAt: time.Now(),
	}
}

func TestPushBoundsFeedNewestFirst(t *testing.T) {
	f := NewFeed(50)

	for i := 0; i < 60; i++ {
		f.Push(makeNotification(fmt.Sprintf("n%d", i), false))
	}

	items := f.Snapshot()
	if len(items) != 50 {
		t.Fatalf("expected feed capped at 50, got %d", len(items))
	}
	// Newest first: n59 down to n10.
	for i, item := range items {
		want := fmt.Sprintf("n%d", 59-i)
		if item.ID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, item.ID)
		}
	}
}

func TestApplyFetchTrustsServerCount(t *testing.T) {
	f := NewFeed(50)

	page := models.NotificationPage{
		Notifications: []models.Notification{
			makeNotification("n1", false),
			makeNotification("n2", true),
		},
		UnreadCount: 5,
	}
	f.ApplyFetch(page)

	// The count is the server's, not recomputed from the page.
	if got := f.Unread(); got != 5 {
		t.Errorf("expected unread 5 from server, got %d", got)
	}
	if got := len(f.Snapshot()); got != 2 {
		t.Errorf("expected 2 items, got %d", got)
	}
}

func TestUnreadAccounting(t *testing.T) {
	f := NewFeed(50)
	f.ApplyFetch(models.NotificationPage{
		Notifications: []models.Notification{makeNotification("n1", false)},
		UnreadCount:   5,
	})

	f.Push(makeNotification("n2", false))
	if got := f.Unread(); got != 6 {
		t.Errorf("after push: expected 6, got %d", got)
	}

	if !f.MarkRead("n2") {
		t.Error("expected MarkRead to flip an unread item")
	}
	if got := f.Unread(); got != 5 {
		t.Errorf("after mark read: expected 5, got %d", got)
	}

	// Redundant mark-read on an already-read item changes nothing.
	if f.MarkRead("n2") {
		t.Error("MarkRead on a read item should report no change")
	}
	if got := f.Unread(); got != 5 {
		t.Errorf("after redundant mark read: expected 5, got %d", got)
	}
}

func TestUnreadFlooredAtZero(t *testing.T) {
	f := NewFeed(50)
	f.ApplyFetch(models.NotificationPage{
		Notifications: []models.Notification{makeNotification("n1", false)},
		UnreadCount:   0,
	})

	// Server count said zero while the page holds an unread item; the
	// flip must not drive the counter negative.
	f.MarkRead("n1")
	if got := f.Unread(); got != 0 {
		t.Errorf("expected counter floored at 0, got %d", got)
	}
}

func TestMarkUnreadRollsBack(t *testing.T) {
	f := NewFeed(50)
	f.Push(makeNotification("n1", false))

	f.MarkRead("n1")
	f.MarkUnread("n1")

	if got := f.Unread(); got != 1 {
		t.Errorf("expected unread restored to 1, got %d", got)
	}
	if f.Snapshot()[0].IsRead {
		t.Error("expected item flipped back to unread")
	}
}

func TestMarkAllReadAndRestore(t *testing.T) {
	f := NewFeed(50)
	f.Push(makeNotification("n1", false))
	f.Push(makeNotification("n2", false))
	f.Push(makeNotification("n3", true)) // already read on arrival

	before := f.Unread()
	flipped, prevUnread := f.MarkAllRead()

	if f.Unread() != 0 {
		t.Errorf("expected 0 unread after mark-all, got %d", f.Unread())
	}
	if len(flipped) != 2 {
		t.Fatalf("expected 2 flipped ids, got %d", len(flipped))
	}
	if prevUnread != before {
		t.Errorf("expected recorded counter %d, got %d", before, prevUnread)
	}

	f.Restore(flipped, prevUnread)
	if f.Unread() != before {
		t.Errorf("expected unread restored to %d, got %d", before, f.Unread())
	}
	for _, item := range f.Snapshot() {
		if item.ID == "n1" || item.ID == "n2" {
			if item.IsRead {
				t.Errorf("%s should be unread after restore", item.ID)
			}
		}
	}
}

func TestClearEmptiesFeed(t *testing.T) {
	f := NewFeed(50)
	f.Push(makeNotification("n1", false))
	f.Clear()

	if len(f.Snapshot()) != 0 || f.Unread() != 0 {
		t.Error("expected empty feed after clear")
	}
}
