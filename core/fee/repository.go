package fee

import "context"

// Repository maps Fees to and from the remote store.
type Repository interface {
	// SaveFee upserts by the fee's composite Key.
	SaveFee(ctx context.Context, f Fee) error
	// SaveFees upserts all fees in one round trip.
	SaveFees(ctx context.Context, fees Schedule) error
	LoadFees(ctx context.Context) (Schedule, error)
}
