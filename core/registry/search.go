package registry

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/trezcool/bursar/core/student"
)

// Search does a case-insensitive substring match of query on the name and student
// number of the snapshot's students. An empty query matches all students.
func (r *Registry) Search(query string) []student.Student {
	query = strings.ToLower(strings.TrimSpace(query))

	r.mu.RLock()
	defer r.mu.RUnlock()

	if query == "" {
		return copyStudents(r.students)
	}
	found := make([]student.Student, 0)
	for _, s := range r.students {
		if s.Matches(query) {
			found = append(found, s.Copy())
		}
	}
	return found
}

type (
	GradeSummary struct {
		Grade       string          `json:"grade"`
		Students    int             `json:"students"`
		HasFee      bool            `json:"has_fee"`
		FeeAmount   decimal.Decimal `json:"fee_amount"`
		Expected    decimal.Decimal `json:"expected"`
		Collected   decimal.Decimal `json:"collected"`
		Outstanding decimal.Decimal `json:"outstanding"`
	}

	// Summary is the fees dashboard of a term.
	Summary struct {
		Term        string          `json:"term"`
		Year        string          `json:"year"`
		Students    int             `json:"students"`
		Expected    decimal.Decimal `json:"expected"`
		Collected   decimal.Decimal `json:"collected"`
		Outstanding decimal.Decimal `json:"outstanding"`
		Grades      []GradeSummary  `json:"grades"`
	}
)

// Summary aggregates, per grade, what the snapshot's students owe and paid for term & year.
// A student's outstanding balance never goes below zero.
func (r *Registry) Summary(term, year string) Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sum := Summary{
		Term:        term,
		Year:        year,
		Expected:    decimal.Zero,
		Collected:   decimal.Zero,
		Outstanding: decimal.Zero,
	}
	byGrade := make(map[string]*GradeSummary)

	for _, s := range r.students {
		gs, ok := byGrade[s.Grade]
		if !ok {
			gs = &GradeSummary{
				Grade:       s.Grade,
				FeeAmount:   decimal.Zero,
				Expected:    decimal.Zero,
				Collected:   decimal.Zero,
				Outstanding: decimal.Zero,
			}
			if f, ok := r.fees.Lookup(s.Grade, term, year); ok {
				gs.HasFee = true
				gs.FeeAmount = f.Amount
			}
			byGrade[s.Grade] = gs
		}

		paid := s.PaidFor(term, year)
		gs.Students++
		gs.Expected = gs.Expected.Add(gs.FeeAmount)
		gs.Collected = gs.Collected.Add(paid)
		if owed := gs.FeeAmount.Sub(paid); owed.IsPositive() {
			gs.Outstanding = gs.Outstanding.Add(owed)
		}
	}

	sum.Grades = make([]GradeSummary, 0, len(byGrade))
	for _, gs := range byGrade {
		sum.Grades = append(sum.Grades, *gs)
		sum.Students += gs.Students
		sum.Expected = sum.Expected.Add(gs.Expected)
		sum.Collected = sum.Collected.Add(gs.Collected)
		sum.Outstanding = sum.Outstanding.Add(gs.Outstanding)
	}
	sort.Slice(sum.Grades, func(i, j int) bool { return gradeLess(sum.Grades[i].Grade, sum.Grades[j].Grade) })
	return sum
}

// gradeLess orders numeric grades numerically ("2" < "10") and others lexically.
func gradeLess(a, b string) bool {
	ai, aErr := strconv.Atoi(a)
	bi, bErr := strconv.Atoi(b)
	switch {
	case aErr == nil && bErr == nil:
		return ai < bi
	case aErr == nil:
		return true
	case bErr == nil:
		return false
	}
	return a < b
}
