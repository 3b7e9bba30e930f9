package student

import (
	"context"
	"errors"
)

var (
	// errors
	ErrNotFound = errors.New("student not found")
)

// Repository maps Students to and from the remote store.
type Repository interface {
	// SaveStudent upserts by StudentNumber. A nil PaymentHistory keeps the stored history.
	SaveStudent(ctx context.Context, s Student) error
	// LoadStudents returns all students ordered by StudentNumber ascending.
	LoadStudents(ctx context.Context) ([]Student, error)
	// DeleteStudent is a no-op when no such student exists.
	DeleteStudent(ctx context.Context, studentNumber string) error
	// AppendPayment atomically appends p to the student's payment history.
	// It returns ErrNotFound when no such student exists.
	AppendPayment(ctx context.Context, studentNumber string, p Payment) error
}
