package registry

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/fee"
	"github.com/trezcool/bursar/core/student"
)

// Reload fetches collection c afresh and replaces its snapshot.
//
// Reloads may overlap: each one takes a sequence number when it starts and its
// result is dropped if a reload started later has already been applied. The
// snapshot thus always comes from the most recently initiated successful fetch.
// On failure the snapshot keeps its last-known-good value.
func (r *Registry) Reload(ctx context.Context, c Collection) error {
	if c < 0 || c >= numCollections {
		return errors.Errorf("unknown collection %d", c)
	}
	switch r.State() {
	case Uninitialized, Error:
		return ErrNotInitialized
	}

	seq := r.begin(c)
	start := time.Now()

	var (
		apply func()
		err   error
	)
	switch c {
	case Students:
		var students []student.Student
		if students, err = r.opts.Students.LoadStudents(ctx); err == nil {
			sorted := sortStudents(students)
			apply = func() { r.students = sorted }
		}
	case Fees:
		var fees fee.Schedule
		if fees, err = r.opts.Fees.LoadFees(ctx); err == nil {
			fees = fees.Copy()
			apply = func() { r.fees = fees }
		}
	}

	applied := r.end(c, seq, apply)
	r.opts.Metrics.ObserveReload(c.String(), time.Since(start), err)

	if err != nil {
		r.opts.Logger.Error("reloading "+c.String(), err)
		r.opts.Notifier.Notify(msgLoadFailed, core.ColorError)
		if core.IsPersistence(err) {
			return err
		}
		return core.NewPersistenceError("loading "+c.String(), err)
	}
	if !applied {
		r.opts.Metrics.IncStaleReload(c.String())
		r.opts.Logger.Debug("dropped stale "+c.String()+" reload", map[string]interface{}{"seq": seq})
		return nil
	}
	r.fire(c)
	return nil
}

// begin records the start of a fetch of c and returns its sequence number.
func (r *Registry) begin(c Collection) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq[c]++
	r.inflight++
	if r.state == Ready {
		r.state = Reloading
	}
	return r.seq[c]
}

// end records the completion of fetch `seq` of c and runs apply (under lock) if no
// later-initiated fetch of c has been applied yet. A nil apply marks a failed fetch.
// Nothing is applied once a failed Initialize left the Registry in the Error state.
func (r *Registry) end(c Collection, seq uint64, apply func()) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.inflight--
	if r.inflight == 0 && r.state == Reloading {
		r.state = Ready
	}
	if apply == nil || seq <= r.applied[c] || r.state == Error {
		return false
	}
	r.applied[c] = seq
	apply()
	return true
}

// kick schedules a reload of c. Kicks arriving while one is already pending
// are coalesced into it.
func (r *Registry) kick(c Collection) {
	r.opts.Metrics.IncChangeEvent(c.String())
	select {
	case r.kicks[c] <- struct{}{}:
	default:
	}
}

// startWorkers must be called with r.mu held.
func (r *Registry) startWorkers() {
	r.startOnce.Do(func() {
		for c := Collection(0); c < numCollections; c++ {
			r.wg.Add(1)
			go r.work(c)
		}
	})
}

func (r *Registry) work(c Collection) {
	defer r.wg.Done()
	for {
		select {
		case <-r.done:
			return
		case <-r.kicks[c]:
			ctx, cancel := context.WithTimeout(context.Background(), r.opts.ReloadTimeout)
			_ = r.Reload(ctx, c) // logged & notified
			cancel()
		}
	}
}
