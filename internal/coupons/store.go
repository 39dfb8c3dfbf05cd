package coupons

import (
	"context"
	"time"

	"github.com/JaimeStill/warden/pkg/pagination"
)

// Store persists coupon records. Implementations exist for DynamoDB and
// PostgreSQL.
type Store interface {
	// ScanByStatus returns every record in the given status. Implementations
	// must exhaust store-side pagination.
	ScanByStatus(ctx context.Context, status Status) ([]Coupon, error)

	List(
		ctx context.Context,
		page pagination.Request,
		filters Filters,
	) (*pagination.Result[Coupon], error)

	Find(ctx context.Context, id string) (*Coupon, error)

	// Expire transitions a valid record to expired, setting lastUpdated and
	// expiredOn to at. It returns ErrNotValid when the record is missing or
	// no longer valid.
	Expire(ctx context.Context, id string, at time.Time) error

	// Vote applies cmd's tally deltas and sets lastUpdated to at.
	Vote(ctx context.Context, cmd VoteCommand, at time.Time) (*Coupon, error)
}
