package notifysvc

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trezcool/bursar/core"
)

const defaultFeedSize = 50

// Notification is a notification kept by the Feed.
type Notification struct {
	ID      string    `json:"id"`
	Message string    `json:"message"`
	Color   string    `json:"color"`
	At      time.Time `json:"at"`
}

// Feed keeps the most recent notifications in memory for the front end to poll.
type Feed struct {
	mu    sync.Mutex
	items []Notification // ring buffer
	next  int
	full  bool
	now   func() time.Time
}

var _ core.Notifier = (*Feed)(nil)

func NewFeed(size int) *Feed {
	if size <= 0 {
		size = defaultFeedSize
	}
	return &Feed{items: make([]Notification, size), now: time.Now}
}

func (f *Feed) Notify(message, color string) {
	n := Notification{
		ID:      uuid.New().String(),
		Message: message,
		Color:   color,
		At:      f.now().UTC(),
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.items[f.next] = n
	f.next = (f.next + 1) % len(f.items)
	if f.next == 0 {
		f.full = true
	}
}

// Recent returns up to limit notifications, newest first. limit <= 0 returns all of them.
func (f *Feed) Recent(limit int) []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := f.next
	if f.full {
		count = len(f.items)
	}
	if limit > 0 && limit < count {
		count = limit
	}

	res := make([]Notification, 0, count)
	for i := 1; i <= count; i++ {
		idx := (f.next - i + len(f.items)) % len(f.items)
		res = append(res, f.items[idx])
	}
	return res
}
