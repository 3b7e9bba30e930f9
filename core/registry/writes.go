package registry

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/fee"
	"github.com/trezcool/bursar/core/student"
)

// Writes only reach the remote store: the snapshot catches up once the change
// feed reports them.

func (r *Registry) UpsertStudent(ctx context.Context, s student.Student) error {
	if err := s.Validate(r.opts.Validate); err != nil {
		return err
	}
	if err := r.opts.Students.SaveStudent(ctx, s); err != nil {
		return r.writeFailed("saving student", "Error saving student data. Please try again.", err)
	}
	r.opts.Notifier.Notify("Student data saved successfully!", core.ColorSuccess)
	return nil
}

// DeleteStudent is a no-op for unknown student numbers.
func (r *Registry) DeleteStudent(ctx context.Context, studentNumber string) error {
	studentNumber = core.CleanString(studentNumber)
	if studentNumber == "" {
		return core.NewValidationError(
			errors.New("student number is required"),
			core.FieldError{Field: "student_number", Error: "this field is required"},
		)
	}
	if err := r.opts.Students.DeleteStudent(ctx, studentNumber); err != nil {
		return r.writeFailed("deleting student", "Error deleting student. Please try again.", err)
	}
	r.opts.Notifier.Notify("Student deleted successfully!", core.ColorSuccess)
	return nil
}

// RecordPayment appends a payment to a student's history.
func (r *Registry) RecordPayment(ctx context.Context, studentNumber string, np student.NewPayment) (student.Payment, error) {
	if err := np.Validate(r.opts.Validate); err != nil {
		return student.Payment{}, err
	}
	payment := np.Payment()
	if err := r.opts.Students.AppendPayment(ctx, core.CleanString(studentNumber), payment); err != nil {
		if errors.Cause(err) == student.ErrNotFound {
			return student.Payment{}, err
		}
		return student.Payment{}, r.writeFailed("recording payment", "Error recording payment. Please try again.", err)
	}
	r.opts.Notifier.Notify("Payment recorded successfully!", core.ColorSuccess)
	return payment, nil
}

func (r *Registry) UpsertFee(ctx context.Context, f fee.Fee) error {
	if err := f.Validate(r.opts.Validate); err != nil {
		return err
	}
	if err := r.opts.Fees.SaveFee(ctx, f); err != nil {
		return r.writeFailed("saving school fee", "Error saving school fees. Please try again.", err)
	}
	r.opts.Notifier.Notify("School fees updated successfully!", core.ColorSuccess)
	return nil
}

// UpsertFees saves many fees at once. Fees are re-keyed by their own grade, term & year.
func (r *Registry) UpsertFees(ctx context.Context, fees []fee.Fee) error {
	for i := range fees {
		if err := fees[i].Validate(r.opts.Validate); err != nil {
			return err
		}
	}
	if err := r.opts.Fees.SaveFees(ctx, fee.FromList(fees...)); err != nil {
		return r.writeFailed("saving school fees", "Error saving school fees. Please try again.", err)
	}
	r.opts.Notifier.Notify("School fees updated successfully!", core.ColorSuccess)
	return nil
}

// writeFailed logs & notifies a failed write and returns it as a *core.PersistenceError.
func (r *Registry) writeFailed(op, msg string, err error) error {
	r.opts.Logger.Error(op, err)
	r.opts.Notifier.Notify(msg, core.ColorError)
	if core.IsPersistence(err) {
		return err
	}
	return core.NewPersistenceError(op, err)
}
