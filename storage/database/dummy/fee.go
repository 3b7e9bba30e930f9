package dummydb

import (
	"context"

	"github.com/trezcool/bursar/core/fee"
)

type feeRepository struct {
	db *DB
}

var _ fee.Repository = (*feeRepository)(nil) // interface compliance check

func NewFeeRepository(db *DB) fee.Repository {
	return &feeRepository{db: db}
}

func (repo *feeRepository) SaveFee(_ context.Context, f fee.Fee) error {
	if err := repo.db.check("saving school fee"); err != nil {
		return err
	}

	repo.db.fee.Lock()
	repo.db.fee.table[f.Key()] = f
	repo.db.fee.Unlock()

	repo.db.feed.publishFees()
	return nil
}

func (repo *feeRepository) SaveFees(_ context.Context, fees fee.Schedule) error {
	if err := repo.db.check("saving school fees"); err != nil {
		return err
	}
	if len(fees) == 0 {
		return nil
	}

	repo.db.fee.Lock()
	for _, f := range fees {
		repo.db.fee.table[f.Key()] = f
	}
	repo.db.fee.Unlock()

	repo.db.feed.publishFees()
	return nil
}

func (repo *feeRepository) LoadFees(_ context.Context) (fee.Schedule, error) {
	if err := repo.db.check("loading school fees"); err != nil {
		return nil, err
	}

	repo.db.fee.RLock()
	defer repo.db.fee.RUnlock()

	sched := make(fee.Schedule, len(repo.db.fee.table))
	for k, f := range repo.db.fee.table {
		sched[k] = f
	}
	return sched, nil
}
