// Package registry holds the in-process snapshot of students and school fees
// and keeps it convergent with the remote store.
//
// Writes go to the remote store only. The snapshot is refreshed by reloading a
// whole collection whenever the change feed reports a mutation, never by
// patching it locally.
package registry

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/fee"
	"github.com/trezcool/bursar/core/student"
)

var (
	// errors
	ErrNotInitialized     = errors.New("registry not initialized")
	ErrAlreadyInitialized = errors.New("registry already initialized")
	ErrClosed             = errors.New("registry closed")

	defaultReloadTimeout = 15 * time.Second

	msgLoadFailed = "Error loading data. Please refresh the page."
)

// Subscriber delivers change events of the remote store.
// The returned unsubscribe func must be safe to call more than once.
type Subscriber interface {
	Subscribe(onStudentsChange, onFeesChange func()) (unsubscribe func(), err error)
}

type Options struct {
	Students student.Repository
	Fees     fee.Repository
	Feed     Subscriber
	Logger   core.Logger
	Notifier core.Notifier       // optional
	Validate *validator.Validate // optional
	Metrics  Metrics             // optional

	// ReloadTimeout bounds reloads triggered by change events.
	ReloadTimeout time.Duration
}

type Registry struct {
	opts Options

	mu       sync.RWMutex
	state    State
	closed   bool
	inflight int
	seq      [numCollections]uint64 // last initiated fetch
	applied  [numCollections]uint64 // fetch the snapshot comes from
	students []student.Student      // ordered by StudentNumber
	fees     fee.Schedule

	lmu       sync.Mutex
	listeners map[int]func(Collection)
	nextLID   int

	kicks       [numCollections]chan struct{}
	done        chan struct{}
	wg          sync.WaitGroup
	startOnce   sync.Once
	closeOnce   sync.Once
	unsubscribe func()
}

func New(opts Options) *Registry {
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Metrics == nil {
		opts.Metrics = nopMetrics{}
	}
	if opts.Validate == nil {
		opts.Validate = validator.New()
		core.InitValidators(opts.Validate, core.NewTranslator())
	}
	if opts.ReloadTimeout <= 0 {
		opts.ReloadTimeout = defaultReloadTimeout
	}

	r := &Registry{
		opts:      opts,
		students:  []student.Student{},
		fees:      fee.Schedule{},
		listeners: make(map[int]func(Collection)),
		done:      make(chan struct{}),
	}
	for c := range r.kicks {
		r.kicks[c] = make(chan struct{}, 1)
	}
	return r
}

// Initialize subscribes to the change feed, then loads both collections and primes the
// snapshot. Subscribing first means no change committed during the load goes unnoticed.
// On failure the Registry enters the Error state, its snapshot is left untouched and the
// failure is notified once; Initialize may then be called again.
func (r *Registry) Initialize(ctx context.Context) error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return ErrClosed
	}
	switch r.state {
	case Uninitialized, Error:
		r.state = Loading
	default:
		r.mu.Unlock()
		return ErrAlreadyInitialized
	}
	r.startWorkers()
	r.mu.Unlock()

	unsubscribe, err := r.opts.Feed.Subscribe(
		func() { r.kick(Students) },
		func() { r.kick(Fees) },
	)
	if err != nil {
		return r.initFailed(errors.Wrap(err, "subscribing to changes"))
	}

	studentsSeq := r.begin(Students)
	feesSeq := r.begin(Fees)

	students, err := r.opts.Students.LoadStudents(ctx)
	if err != nil {
		err = errors.Wrap(err, "loading students")
	}
	var fees fee.Schedule
	if err == nil {
		if fees, err = r.opts.Fees.LoadFees(ctx); err != nil {
			err = errors.Wrap(err, "loading fees")
		}
	}
	if err != nil {
		r.end(Students, studentsSeq, nil)
		r.end(Fees, feesSeq, nil)
		unsubscribe()
		return r.initFailed(err)
	}

	// a reload kicked by a change during the load may already have landed
	r.end(Students, studentsSeq, func() { r.students = sortStudents(students) })
	r.end(Fees, feesSeq, func() { r.fees = fees.Copy() })

	r.mu.Lock()
	r.unsubscribe = unsubscribe
	r.state = Ready
	r.mu.Unlock()

	r.opts.Logger.Info("registry initialized", map[string]interface{}{
		"students": len(students),
		"fees":     len(fees),
	})
	r.fire(Students)
	r.fire(Fees)
	return nil
}

func (r *Registry) initFailed(err error) error {
	r.setState(Error)
	r.opts.Logger.Error("initializing registry", err)
	r.opts.Notifier.Notify(msgLoadFailed, core.ColorError)
	return core.NewInitializationError(err)
}

// Close releases the change feed subscriptions and stops the reload workers.
func (r *Registry) Close() {
	r.closeOnce.Do(func() {
		r.mu.Lock()
		r.closed = true
		unsubscribe := r.unsubscribe
		r.mu.Unlock()

		if unsubscribe != nil {
			unsubscribe()
		}
		close(r.done)
		r.wg.Wait()
	})
}

func (r *Registry) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *Registry) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

// Students returns a copy of the students snapshot, ordered by StudentNumber.
func (r *Registry) Students() []student.Student {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return copyStudents(r.students)
}

// Student looks up a student of the snapshot by StudentNumber.
func (r *Registry) Student(studentNumber string) (student.Student, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := sort.Search(len(r.students), func(i int) bool { return r.students[i].StudentNumber >= studentNumber })
	if i < len(r.students) && r.students[i].StudentNumber == studentNumber {
		return r.students[i].Copy(), true
	}
	return student.Student{}, false
}

// Fees returns a copy of the fees snapshot, keyed by fee.Key.
func (r *Registry) Fees() fee.Schedule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fees.Copy()
}

func (r *Registry) Fee(grade, term, year string) (fee.Fee, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fees.Lookup(grade, term, year)
}

// OnSnapshotChanged registers a listener called after each snapshot replacement.
// Listeners run on the goroutine that replaced the snapshot and must not block.
func (r *Registry) OnSnapshotChanged(listener func(Collection)) (remove func()) {
	r.lmu.Lock()
	id := r.nextLID
	r.nextLID++
	r.listeners[id] = listener
	r.lmu.Unlock()

	return func() {
		r.lmu.Lock()
		delete(r.listeners, id)
		r.lmu.Unlock()
	}
}

func (r *Registry) fire(c Collection) {
	r.lmu.Lock()
	listeners := make([]func(Collection), 0, len(r.listeners))
	for _, l := range r.listeners {
		listeners = append(listeners, l)
	}
	r.lmu.Unlock()

	for _, l := range listeners {
		l(c)
	}
}

func sortStudents(students []student.Student) []student.Student {
	sorted := copyStudents(students)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].StudentNumber < sorted[j].StudentNumber })
	return sorted
}

func copyStudents(students []student.Student) []student.Student {
	c := make([]student.Student, 0, len(students))
	for _, s := range students {
		c = append(c, s.Copy())
	}
	return c
}
