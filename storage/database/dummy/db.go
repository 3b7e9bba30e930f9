// Package dummydb is an in-memory remote store, with its own change feed.
// Used in tests and for running the API without Postgres.
package dummydb

import (
	"sync"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/fee"
	"github.com/trezcool/bursar/core/student"
)

type (
	DB struct {
		student *studentTable
		fee     *feeTable
		feed    *Feed

		mu   sync.RWMutex
		fail error
	}

	studentTable struct {
		sync.RWMutex
		table map[string]student.Student
	}

	feeTable struct {
		sync.RWMutex
		table map[string]fee.Fee
	}
)

func Open() (*DB, error) {
	db := &DB{
		student: &studentTable{table: make(map[string]student.Student)},
		fee:     &feeTable{table: make(map[string]fee.Fee)},
		feed:    newFeed(),
	}
	return db, nil
}

// Feed returns the change feed of db.
func (db *DB) Feed() *Feed { return db.feed }

// Fail makes every following operation fail with err, until Fail(nil).
func (db *DB) Fail(err error) {
	db.mu.Lock()
	db.fail = err
	db.mu.Unlock()
}

func (db *DB) check(op string) error {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if db.fail != nil {
		return core.NewPersistenceError(op, db.fail)
	}
	return nil
}
