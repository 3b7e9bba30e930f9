package fee

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/bursar/core"
)

func TestFee_Key(t *testing.T) {
	f := Fee{Grade: "5", Term: "1", Year: "2024"}
	assert.Equal(t, "5_1_2024", f.Key())
	assert.Equal(t, f.Key(), Key("5", "1", "2024"))
}

func TestFee_Validate(t *testing.T) {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())

	tests := []struct {
		name    string
		fee     Fee
		wantErr bool
	}{
		{name: "valid", fee: Fee{Amount: decimal.NewFromInt(500), Grade: "5", Term: "1", Year: "2024"}},
		{name: "free", fee: Fee{Amount: decimal.Zero, Grade: "5", Term: "1", Year: "2024"}},
		{name: "negative", fee: Fee{Amount: decimal.NewFromInt(-1), Grade: "5", Term: "1", Year: "2024"}, wantErr: true},
		{name: "no grade", fee: Fee{Amount: decimal.NewFromInt(1), Term: "1", Year: "2024"}, wantErr: true},
		{name: "no term", fee: Fee{Amount: decimal.NewFromInt(1), Grade: "5", Year: "2024"}, wantErr: true},
		{name: "bad year", fee: Fee{Amount: decimal.NewFromInt(1), Grade: "5", Term: "1", Year: "twenty"}, wantErr: true},
		{name: "spaced grade", fee: Fee{Amount: decimal.NewFromInt(1), Grade: "Grade 5", Term: "Term-1", Year: "2024"}},
		{name: "underscored grade", fee: Fee{Amount: decimal.NewFromInt(1), Grade: "5_1", Term: "1", Year: "2024"}, wantErr: true},
		{name: "underscored term", fee: Fee{Amount: decimal.NewFromInt(1), Grade: "5", Term: "1_1", Year: "2024"}, wantErr: true},
		{name: "leading dash", fee: Fee{Amount: decimal.NewFromInt(1), Grade: "-5", Term: "1", Year: "2024"}, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.fee.Validate(validate)
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFee_KeysDoNotCollide(t *testing.T) {
	validate := validator.New()
	core.InitValidators(validate, core.NewTranslator())

	// both would be keyed "5_1_1_2024"
	a := Fee{Amount: decimal.NewFromInt(500), Grade: "5", Term: "1_1", Year: "2024"}
	b := Fee{Amount: decimal.NewFromInt(900), Grade: "5_1", Term: "1", Year: "2024"}
	assert.Equal(t, a.Key(), b.Key())
	assert.Error(t, a.Validate(validate))
	assert.Error(t, b.Validate(validate))
}

func TestSchedule(t *testing.T) {
	sched := FromList(
		Fee{Amount: decimal.NewFromInt(500), Grade: "5", Term: "1", Year: "2024"},
		Fee{Amount: decimal.NewFromInt(400), Grade: "4", Term: "1", Year: "2024"},
		Fee{Amount: decimal.NewFromInt(650), Grade: "5", Term: "1", Year: "2024"},
	)

	assert.Len(t, sched, 2)
	f, ok := sched.Lookup("5", "1", "2024")
	assert.True(t, ok)
	assert.Equal(t, "650", f.Amount.String())
	_, ok = sched.Lookup("5", "2", "2024")
	assert.False(t, ok)

	c := sched.Copy()
	delete(c, "4_1_2024")
	assert.Len(t, sched, 2)
}
