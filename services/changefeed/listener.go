// Package changefeed delivers Postgres change notifications (LISTEN/NOTIFY) to subscribers.
package changefeed

import (
	"sync"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/storage/database"
)

// Channels notified by the tables' triggers.
const (
	StudentsChannel = "students_changes"
	FeesChannel     = "school_fees_changes"
)

var (
	ErrClosed = errors.New("change feed closed")

	pingInterval = 90 * time.Second
)

// listener is the subset of *pq.Listener used by the Feed.
type listener interface {
	Listen(channel string) error
	NotificationChannel() <-chan *pq.Notification
	Ping() error
	Close() error
}

var _ listener = (*pq.Listener)(nil)

type subscription struct {
	onStudents func()
	onFees     func()
}

// Feed fans out the notifications of a single database connection to its subscribers.
// A nil notification means the connection was re-established: events may have been
// missed, so every subscriber is told both collections changed.
type Feed struct {
	l      listener
	logger core.Logger

	mu     sync.Mutex
	subs   map[int]subscription
	nextID int
	closed bool

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New connects to the app database and listens to both change channels.
func New(conf *core.Config, logger core.Logger) (*Feed, error) {
	onEvent := func(ev pq.ListenerEventType, err error) {
		switch ev {
		case pq.ListenerEventConnected:
			logger.Info("change feed connected")
		case pq.ListenerEventDisconnected:
			logger.Warn("change feed disconnected", err)
		case pq.ListenerEventReconnected:
			logger.Info("change feed reconnected")
		case pq.ListenerEventConnectionAttemptFailed:
			logger.Error("change feed connection attempt failed", err)
		}
	}
	l := pq.NewListener(
		database.DSN(conf),
		conf.Database.MinReconnectInterval,
		conf.Database.MaxReconnectInterval,
		onEvent,
	)
	return newFeed(l, logger)
}

func newFeed(l listener, logger core.Logger) (*Feed, error) {
	for _, ch := range []string{StudentsChannel, FeesChannel} {
		if err := l.Listen(ch); err != nil {
			_ = l.Close()
			return nil, errors.Wrapf(err, "listening to %s", ch)
		}
	}

	f := &Feed{
		l:      l,
		logger: logger,
		subs:   make(map[int]subscription),
		done:   make(chan struct{}),
	}
	f.wg.Add(1)
	go f.run()
	return f, nil
}

// Subscribe registers callbacks for student and school fee changes.
// Callbacks run on the feed goroutine and must not block.
// The returned func unsubscribes; calling it again is a no-op.
func (f *Feed) Subscribe(onStudentsChange, onFeesChange func()) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return nil, ErrClosed
	}
	id := f.nextID
	f.nextID++
	f.subs[id] = subscription{onStudents: onStudentsChange, onFees: onFeesChange}

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}, nil
}

// Close stops the feed and closes the database connection.
func (f *Feed) Close() error {
	var err error
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.closed = true
		f.subs = make(map[int]subscription)
		f.mu.Unlock()

		close(f.done)
		f.wg.Wait()
		err = f.l.Close()
	})
	return err
}

func (f *Feed) run() {
	defer f.wg.Done()

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	notifications := f.l.NotificationChannel()
	for {
		select {
		case <-f.done:
			return
		case n, ok := <-notifications:
			if !ok {
				return
			}
			f.dispatch(n)
		case <-ticker.C:
			// detects dead connections the driver would otherwise not notice
			go func() {
				if err := f.l.Ping(); err != nil {
					f.logger.Warn("change feed ping", err)
				}
			}()
		}
	}
}

func (f *Feed) dispatch(n *pq.Notification) {
	f.mu.Lock()
	subs := make([]subscription, 0, len(f.subs))
	for _, s := range f.subs {
		subs = append(subs, s)
	}
	f.mu.Unlock()

	for _, s := range subs {
		switch {
		case n == nil:
			call(s.onStudents)
			call(s.onFees)
		case n.Channel == StudentsChannel:
			call(s.onStudents)
		case n.Channel == FeesChannel:
			call(s.onFees)
		default:
			f.logger.Warn("unexpected change notification", map[string]interface{}{"channel": n.Channel})
		}
	}
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}
