package student

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bursar/core"
)

type Student struct {
	StudentNumber string `json:"student_number" validate:"required,studentnum,max=32"`
	Name          string `json:"name" validate:"required,max=128"`
	Grade         string `json:"grade" validate:"required,feekey,max=16"`

	// A nil PaymentHistory leaves the stored one untouched on save ([] for new students).
	PaymentHistory []Payment   `json:"payment_history" validate:"dive"`
	Term           null.String `json:"term" validate:"omitempty,feekey,max=16"`
	Year           null.String `json:"year" validate:"omitempty,year"`
}

// Clean normalizes user input before validation.
func (s *Student) Clean() {
	s.StudentNumber = core.CleanString(s.StudentNumber)
	s.Name = core.CleanString(s.Name)
	s.Grade = core.CleanString(s.Grade)
	if s.Term.Valid {
		s.Term.String = core.CleanString(s.Term.String)
	}
	if s.Year.Valid {
		s.Year.String = core.CleanString(s.Year.String)
	}
}

func (s *Student) Validate(validate *validator.Validate) error {
	s.Clean()
	return validate.Struct(s)
}

// Copy returns a deep copy, so snapshot readers never share a payment history.
// A nil history stays nil.
func (s Student) Copy() Student {
	if s.PaymentHistory != nil {
		history := make([]Payment, len(s.PaymentHistory))
		copy(history, s.PaymentHistory)
		s.PaymentHistory = history
	}
	return s
}

// Matches does a case-insensitive substring match on Name and StudentNumber.
// `query` must already be lowered.
func (s Student) Matches(query string) bool {
	return strings.Contains(strings.ToLower(s.Name), query) ||
		strings.Contains(strings.ToLower(s.StudentNumber), query)
}

// PaidFor returns the sum of payments made for the given term & year.
func (s Student) PaidFor(term, year string) decimal.Decimal {
	total := decimal.Zero
	for _, p := range s.PaymentHistory {
		if p.Term == term && p.Year == year {
			total = total.Add(p.Amount)
		}
	}
	return total
}

type Payment struct {
	ID     string          `json:"id"`
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
	Term   string          `json:"term" validate:"required,feekey,max=16"`
	Year   string          `json:"year" validate:"required,year"`
	PaidAt time.Time       `json:"paid_at"` // UTC
	Note   string          `json:"note,omitempty" validate:"max=256"`
}

// NewPayment contains information needed to record a Payment.
type NewPayment struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
	Term   string          `json:"term" validate:"required,feekey,max=16"`
	Year   string          `json:"year" validate:"required,year"`
	Note   string          `json:"note" validate:"max=256"`
}

func (np *NewPayment) Validate(validate *validator.Validate) error {
	np.Term = core.CleanString(np.Term)
	np.Year = core.CleanString(np.Year)
	np.Note = core.CleanString(np.Note)
	return validate.Struct(np)
}

// Payment builds the Payment to append to a student's history.
func (np NewPayment) Payment() Payment {
	return Payment{
		ID:     uuid.New().String(),
		Amount: np.Amount,
		Term:   np.Term,
		Year:   np.Year,
		PaidAt: NowFunc().UTC(),
		Note:   np.Note,
	}
}

var NowFunc = time.Now // mockable
