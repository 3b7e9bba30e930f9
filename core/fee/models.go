package fee

import (
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/trezcool/bursar/core"
)

// Fee is the school fee charged to every student of Grade for a Term of a Year.
type Fee struct {
	Amount decimal.Decimal `json:"amount" validate:"gte=0"`
	Grade  string          `json:"grade" validate:"required,feekey,max=16"`
	Term   string          `json:"term" validate:"required,feekey,max=16"`
	Year   string          `json:"year" validate:"required,year"`
}

// Key returns the composite identifier of the fee: "{grade}_{term}_{year}".
// Grade & term never hold "_" (see the feekey validation tag), so keys do not collide.
func (f Fee) Key() string {
	return Key(f.Grade, f.Term, f.Year)
}

func (f *Fee) Validate(validate *validator.Validate) error {
	f.Grade = core.CleanString(f.Grade)
	f.Term = core.CleanString(f.Term)
	f.Year = core.CleanString(f.Year)
	return validate.Struct(f)
}

func Key(grade, term, year string) string {
	return grade + "_" + term + "_" + year
}

// Schedule maps fee keys to fees.
type Schedule map[string]Fee

// FromList builds a Schedule; later fees win over earlier ones with the same key.
func FromList(fees ...Fee) Schedule {
	sched := make(Schedule, len(fees))
	for _, f := range fees {
		sched[f.Key()] = f
	}
	return sched
}

func (s Schedule) Copy() Schedule {
	c := make(Schedule, len(s))
	for k, f := range s {
		c[k] = f
	}
	return c
}

func (s Schedule) Lookup(grade, term, year string) (Fee, bool) {
	f, ok := s[Key(grade, term, year)]
	return f, ok
}
