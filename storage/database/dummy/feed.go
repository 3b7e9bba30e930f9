package dummydb

import "sync"

// Feed fans change events of the in-memory tables out to subscribers.
type Feed struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]subscription
}

type subscription struct {
	onStudents func()
	onFees     func()
}

func newFeed() *Feed {
	return &Feed{subs: make(map[int]subscription)}
}

func (f *Feed) Subscribe(onStudentsChange, onFeesChange func()) (func(), error) {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.subs[id] = subscription{onStudents: onStudentsChange, onFees: onFeesChange}
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
		})
	}, nil
}

// Subscribers returns the number of live subscriptions.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}

func (f *Feed) publishStudents() {
	for _, s := range f.snapshot() {
		if s.onStudents != nil {
			s.onStudents()
		}
	}
}

func (f *Feed) publishFees() {
	for _, s := range f.snapshot() {
		if s.onFees != nil {
			s.onFees()
		}
	}
}

func (f *Feed) snapshot() []subscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	subs := make([]subscription, 0, len(f.subs))
	for _, s := range f.subs {
		subs = append(subs, s)
	}
	return subs
}
