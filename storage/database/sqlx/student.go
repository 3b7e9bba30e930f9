package sqlxrepos

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/student"
)

const (
	upsertStudentQuery = `
		INSERT INTO students (student_number, full_name, grade, payment_history, additional_info)
		VALUES (:student_number, :full_name, :grade, :payment_history, :additional_info)
		ON CONFLICT (student_number) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			grade = EXCLUDED.grade,
			payment_history = EXCLUDED.payment_history,
			additional_info = EXCLUDED.additional_info`

	// same as upsertStudentQuery, but an existing payment history is left as stored
	upsertStudentKeepHistoryQuery = `
		INSERT INTO students (student_number, full_name, grade, payment_history, additional_info)
		VALUES (:student_number, :full_name, :grade, :payment_history, :additional_info)
		ON CONFLICT (student_number) DO UPDATE SET
			full_name = EXCLUDED.full_name,
			grade = EXCLUDED.grade,
			additional_info = EXCLUDED.additional_info`

	selectStudentsQuery = `
		SELECT student_number, full_name, grade, payment_history, additional_info
		FROM students
		ORDER BY student_number ASC`

	deleteStudentQuery = `DELETE FROM students WHERE student_number = $1`

	appendPaymentQuery = `
		UPDATE students
		SET payment_history = COALESCE(payment_history, '[]'::jsonb) || jsonb_build_array($2::jsonb)
		WHERE student_number = $1`
)

type studentRepository struct {
	exec core.DBExecutor
}

var _ student.Repository = (*studentRepository)(nil) // interface compliance check

func NewStudentRepository(exec core.DBExecutor) student.Repository {
	return &studentRepository{exec: exec}
}

func (repo studentRepository) SaveStudent(ctx context.Context, s student.Student) error {
	query := upsertStudentQuery
	if s.PaymentHistory == nil {
		query = upsertStudentKeepHistoryQuery // inserted as []
	}
	if _, err := repo.exec.NamedExecContext(ctx, query, toStudentRow(s)); err != nil {
		return core.NewPersistenceError("saving student", errors.WithStack(err))
	}
	return nil
}

func (repo studentRepository) LoadStudents(ctx context.Context) ([]student.Student, error) {
	var rows []studentRow
	if err := repo.exec.SelectContext(ctx, &rows, selectStudentsQuery); err != nil {
		return nil, core.NewPersistenceError("loading students", errors.WithStack(err))
	}

	students := make([]student.Student, 0, len(rows))
	for _, row := range rows {
		students = append(students, row.student())
	}
	return students, nil
}

func (repo studentRepository) DeleteStudent(ctx context.Context, studentNumber string) error {
	if _, err := repo.exec.ExecContext(ctx, deleteStudentQuery, studentNumber); err != nil {
		return core.NewPersistenceError("deleting student", errors.WithStack(err))
	}
	return nil
}

func (repo studentRepository) AppendPayment(ctx context.Context, studentNumber string, p student.Payment) error {
	data, err := json.Marshal(p)
	if err != nil {
		return errors.Wrap(err, "marshalling payment")
	}

	res, err := repo.exec.ExecContext(ctx, appendPaymentQuery, studentNumber, string(data))
	if err != nil {
		return core.NewPersistenceError("recording payment", errors.WithStack(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.NewPersistenceError("recording payment", errors.WithStack(err))
	}
	if n == 0 {
		return student.ErrNotFound
	}
	return nil
}
