package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/bursar/core/student"
)

type studentRepository struct {
	db *DB
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(db *DB) student.Repository {
	return &studentRepository{db: db}
}

func (repo *studentRepository) SaveStudent(_ context.Context, s student.Student) error {
	if err := repo.db.check("saving student"); err != nil {
		return err
	}

	s = s.Copy()
	repo.db.student.Lock()
	if s.PaymentHistory == nil {
		s.PaymentHistory = []student.Payment{}
		if stored, ok := repo.db.student.table[s.StudentNumber]; ok {
			s.PaymentHistory = stored.PaymentHistory
		}
	}
	repo.db.student.table[s.StudentNumber] = s
	repo.db.student.Unlock()

	repo.db.feed.publishStudents()
	return nil
}

func (repo *studentRepository) LoadStudents(_ context.Context) ([]student.Student, error) {
	if err := repo.db.check("loading students"); err != nil {
		return nil, err
	}

	repo.db.student.RLock()
	defer repo.db.student.RUnlock()

	students := make([]student.Student, 0, len(repo.db.student.table))
	for _, s := range repo.db.student.table {
		students = append(students, s.Copy())
	}
	sort.Slice(students, func(i, j int) bool { return students[i].StudentNumber < students[j].StudentNumber })
	return students, nil
}

func (repo *studentRepository) DeleteStudent(_ context.Context, studentNumber string) error {
	if err := repo.db.check("deleting student"); err != nil {
		return err
	}

	repo.db.student.Lock()
	_, ok := repo.db.student.table[studentNumber]
	delete(repo.db.student.table, studentNumber)
	repo.db.student.Unlock()

	// like a DELETE trigger, only fire when a row went away
	if ok {
		repo.db.feed.publishStudents()
	}
	return nil
}

func (repo *studentRepository) AppendPayment(_ context.Context, studentNumber string, p student.Payment) error {
	if err := repo.db.check("recording payment"); err != nil {
		return err
	}

	repo.db.student.Lock()
	s, ok := repo.db.student.table[studentNumber]
	if !ok {
		repo.db.student.Unlock()
		return student.ErrNotFound
	}
	s = s.Copy()
	s.PaymentHistory = append(s.PaymentHistory, p)
	repo.db.student.table[studentNumber] = s
	repo.db.student.Unlock()

	repo.db.feed.publishStudents()
	return nil
}
