package sqlxrepos

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bursar/core/student"
)

// studentRow is a row of the "students" table.
type studentRow struct {
	StudentNumber  string         `db:"student_number"`
	FullName       string         `db:"full_name"`
	Grade          string         `db:"grade"`
	PaymentHistory paymentHistory `db:"payment_history"`
	AdditionalInfo additionalInfo `db:"additional_info"`
}

func toStudentRow(s student.Student) studentRow {
	return studentRow{
		StudentNumber:  s.StudentNumber,
		FullName:       s.Name,
		Grade:          s.Grade,
		PaymentHistory: paymentHistory(s.PaymentHistory),
		AdditionalInfo: additionalInfo{Term: s.Term, Year: s.Year},
	}
}

func (row studentRow) student() student.Student {
	history := []student.Payment(row.PaymentHistory)
	if history == nil {
		history = []student.Payment{}
	}
	return student.Student{
		StudentNumber:  row.StudentNumber,
		Name:           row.FullName,
		Grade:          row.Grade,
		PaymentHistory: history,
		Term:           row.AdditionalInfo.Term,
		Year:           row.AdditionalInfo.Year,
	}
}

// paymentHistory is stored as a JSONB array.
type paymentHistory []student.Payment

func (ph paymentHistory) Value() (driver.Value, error) {
	if ph == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]student.Payment(ph))
	if err != nil {
		return nil, errors.Wrap(err, "marshalling payment history")
	}
	return string(b), nil
}

func (ph *paymentHistory) Scan(src interface{}) error {
	return scanJSON(src, ph, "payment history")
}

// additionalInfo is stored as a JSONB object; missing keys scan as null.
type additionalInfo struct {
	Term null.String `json:"term"`
	Year null.String `json:"year"`
}

func (ai additionalInfo) Value() (driver.Value, error) {
	b, err := json.Marshal(ai)
	if err != nil {
		return nil, errors.Wrap(err, "marshalling additional info")
	}
	return string(b), nil
}

func (ai *additionalInfo) Scan(src interface{}) error {
	return scanJSON(src, ai, "additional info")
}

func scanJSON(src, dest interface{}, what string) error {
	var data []byte
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.Errorf("scanning %s: unsupported type %T", what, src)
	}
	if len(data) == 0 {
		return nil
	}
	return errors.Wrapf(json.Unmarshal(data, dest), "scanning %s", what)
}
