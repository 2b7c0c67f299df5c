package notifications

import (
	"sync"

	"collab-realtime/internal/models"
)

// Feed is a bounded, newest-first list of notifications with an unread
// counter. The initial bulk fetch populates both from server truth;
// live pushes prepend and bump the counter locally.
type Feed struct {
	mu     sync.Mutex
	limit  int
	items  []models.Notification
	unread int
}

func NewFeed(limit int) *Feed {
	return &Feed{limit: limit}
}

// ApplyFetch replaces the feed contents and unread counter with the
// server's page. The server-provided count is trusted as is; the client
// does not recompute it from the page.
func (f *Feed) ApplyFetch(page models.NotificationPage) {
	f.mu.Lock()
	defer f.mu.Unlock()

	items := page.Notifications
	if len(items) > f.limit {
		items = items[:f.limit]
	}
	f.items = make([]models.Notification, len(items))
	copy(f.items, items)
	f.unread = page.UnreadCount
	if f.unread < 0 {
		f.unread = 0
	}
}

// Push prepends a live notification, truncates to the limit, and bumps
// the unread counter. Unread entries that fall off the end are not
// subtracted back out; the next ApplyFetch squares the counter with
// server truth.
func (f *Feed) Push(n models.Notification) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.items = append([]models.Notification{n}, f.items...)
	if len(f.items) > f.limit {
		f.items = f.items[:f.limit]
	}
	f.unread++
}

// MarkRead flips the matching notification to read and decrements the
// unread counter, floored at zero. It reports whether the flip changed
// anything, so optimistic callers know what to roll back.
func (f *Feed) MarkRead(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.items {
		if f.items[i].ID == id {
			if f.items[i].IsRead {
				return false
			}
			f.items[i].IsRead = true
			if f.unread > 0 {
				f.unread--
			}
			return true
		}
	}
	return false
}

// MarkUnread reverts an optimistic MarkRead after a failed persist.
func (f *Feed) MarkUnread(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.items {
		if f.items[i].ID == id {
			if f.items[i].IsRead {
				f.items[i].IsRead = false
				f.unread++
			}
			return
		}
	}
}

// MarkAllRead flips every notification to read and zeroes the counter.
// It returns the IDs that were unread plus the prior counter value so a
// failed persist can be rolled back with Restore.
func (f *Feed) MarkAllRead() (flipped []string, prevUnread int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	prevUnread = f.unread
	for i := range f.items {
		if !f.items[i].IsRead {
			flipped = append(flipped, f.items[i].ID)
			f.items[i].IsRead = true
		}
	}
	f.unread = 0
	return flipped, prevUnread
}

// Restore reverts a failed MarkAllRead: the given IDs flip back to
// unread and the counter is restored.
func (f *Feed) Restore(ids []string, unread int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	idSet := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		idSet[id] = struct{}{}
	}
	for i := range f.items {
		if _, ok := idSet[f.items[i].ID]; ok {
			f.items[i].IsRead = false
		}
	}
	f.unread = unread
	if f.unread < 0 {
		f.unread = 0
	}
}

// Snapshot returns a copy of the feed, newest first.
func (f *Feed) Snapshot() []models.Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := make([]models.Notification, len(f.items))
	copy(cp, f.items)
	return cp
}

func (f *Feed) Unread() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unread
}

// Clear empties the feed on teardown.
func (f *Feed) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = nil
	f.unread = 0
}
