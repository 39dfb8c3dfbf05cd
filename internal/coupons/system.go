// Package coupons owns coupon records: listing, lookup, community votes, and
// the valid-to-expired transition used by the expiration run.
package coupons

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/warden/pkg/pagination"
)

// System defines the public contract for coupon domain operations.
type System interface {
	Handler() *Handler

	List(
		ctx context.Context,
		page pagination.Request,
		filters Filters,
	) (*pagination.Result[Coupon], error)

	Find(ctx context.Context, id string) (*Coupon, error)
	Vote(ctx context.Context, cmd VoteCommand) (*Coupon, error)

	// Valid returns every coupon currently in the valid status.
	Valid(ctx context.Context) ([]Coupon, error)

	// Expire marks a valid coupon expired at the given instant.
	Expire(ctx context.Context, id string, at time.Time) error
}

type system struct {
	store      Store
	logger     *slog.Logger
	pagination pagination.Config
	now        func() time.Time
}

// New creates a coupon System over the given store.
func New(store Store, logger *slog.Logger, pagination pagination.Config) System {
	return &system{
		store:      store,
		logger:     logger.With("system", "coupons"),
		pagination: pagination,
		now:        time.Now,
	}
}

func (s *system) Handler() *Handler {
	return NewHandler(s, s.logger, s.pagination)
}

func (s *system) List(
	ctx context.Context,
	page pagination.Request,
	filters Filters,
) (*pagination.Result[Coupon], error) {
	return s.store.List(ctx, s.pagination.Clamp(page), filters)
}

func (s *system) Find(ctx context.Context, id string) (*Coupon, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	return s.store.Find(ctx, id)
}

func (s *system) Vote(ctx context.Context, cmd VoteCommand) (*Coupon, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	c, err := s.store.Vote(ctx, cmd, s.now())
	if err != nil {
		return nil, err
	}

	s.logger.Info(
		"vote recorded",
		"id", c.ID,
		"vote", cmd.VoteType,
		"previous", cmd.PreviousVote,
		"up", c.Votes.Up,
		"down", c.Votes.Down,
	)
	return c, nil
}

func (s *system) Valid(ctx context.Context) ([]Coupon, error) {
	result, err := s.store.ScanByStatus(ctx, StatusValid)
	if err != nil {
		return nil, fmt.Errorf("scan valid coupons: %w", err)
	}
	return result, nil
}

func (s *system) Expire(ctx context.Context, id string, at time.Time) error {
	return s.store.Expire(ctx, id, at)
}
