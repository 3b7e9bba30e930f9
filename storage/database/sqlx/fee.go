package sqlxrepos

import (
	"context"
	"sort"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/core/fee"
)

const (
	upsertFeeQuery = `
		INSERT INTO school_fees (id, amount, grade, term, year)
		VALUES (:id, :amount, :grade, :term, :year)
		ON CONFLICT (id) DO UPDATE SET
			amount = EXCLUDED.amount,
			grade = EXCLUDED.grade,
			term = EXCLUDED.term,
			year = EXCLUDED.year`

	// one statement for many rows; ids must be unique within a call
	upsertFeesQuery = `
		INSERT INTO school_fees (id, amount, grade, term, year)
		SELECT * FROM unnest($1::text[], $2::numeric[], $3::text[], $4::text[], $5::text[])
		ON CONFLICT (id) DO UPDATE SET
			amount = EXCLUDED.amount,
			grade = EXCLUDED.grade,
			term = EXCLUDED.term,
			year = EXCLUDED.year`

	selectFeesQuery = `SELECT id, amount, grade, term, year FROM school_fees`
)

// feeRow is a row of the "school_fees" table.
type feeRow struct {
	ID     string          `db:"id"`
	Amount decimal.Decimal `db:"amount"`
	Grade  string          `db:"grade"`
	Term   string          `db:"term"`
	Year   string          `db:"year"`
}

func toFeeRow(f fee.Fee) feeRow {
	return feeRow{ID: f.Key(), Amount: f.Amount, Grade: f.Grade, Term: f.Term, Year: f.Year}
}

func (row feeRow) fee() fee.Fee {
	return fee.Fee{Amount: row.Amount, Grade: row.Grade, Term: row.Term, Year: row.Year}
}

type feeRepository struct {
	exec core.DBExecutor
}

var _ fee.Repository = (*feeRepository)(nil) // interface compliance check

func NewFeeRepository(exec core.DBExecutor) fee.Repository {
	return &feeRepository{exec: exec}
}

func (repo feeRepository) SaveFee(ctx context.Context, f fee.Fee) error {
	if _, err := repo.exec.NamedExecContext(ctx, upsertFeeQuery, toFeeRow(f)); err != nil {
		return core.NewPersistenceError("saving school fee", errors.WithStack(err))
	}
	return nil
}

func (repo feeRepository) SaveFees(ctx context.Context, fees fee.Schedule) error {
	if len(fees) == 0 {
		return nil
	}

	// re-key by the fees themselves: a stale map key must not yield duplicate ids
	sched := make(fee.Schedule, len(fees))
	for _, f := range fees {
		sched[f.Key()] = f
	}
	keys := make([]string, 0, len(sched))
	for k := range sched {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	n := len(keys)
	ids, amounts := make([]string, 0, n), make([]string, 0, n)
	grades, terms, years := make([]string, 0, n), make([]string, 0, n), make([]string, 0, n)
	for _, k := range keys {
		f := sched[k]
		ids = append(ids, k)
		amounts = append(amounts, f.Amount.String())
		grades = append(grades, f.Grade)
		terms = append(terms, f.Term)
		years = append(years, f.Year)
	}

	_, err := repo.exec.ExecContext(ctx, upsertFeesQuery,
		pq.Array(ids), pq.Array(amounts), pq.Array(grades), pq.Array(terms), pq.Array(years))
	if err != nil {
		return core.NewPersistenceError("saving school fees", errors.WithStack(err))
	}
	return nil
}

func (repo feeRepository) LoadFees(ctx context.Context) (fee.Schedule, error) {
	var rows []feeRow
	if err := repo.exec.SelectContext(ctx, &rows, selectFeesQuery); err != nil {
		return nil, core.NewPersistenceError("loading school fees", errors.WithStack(err))
	}

	sched := make(fee.Schedule, len(rows))
	for _, row := range rows {
		f := row.fee()
		sched[f.Key()] = f
	}
	return sched, nil
}
