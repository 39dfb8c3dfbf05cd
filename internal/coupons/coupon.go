package coupons

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a coupon record.
type Status string

const (
	StatusValid   Status = "valid"
	StatusExpired Status = "expired"
)

// Reward is a single in-game item granted by a code.
type Reward struct {
	Type   string `json:"type" dynamodbav:"type"`
	Amount int    `json:"amount" dynamodbav:"amount"`
}

// Votes holds community up/down vote tallies.
type Votes struct {
	Up   int `json:"up" dynamodbav:"up"`
	Down int `json:"down" dynamodbav:"down"`
}

// Coupon is a stored promotional code record.
type Coupon struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	Status      Status     `json:"status"`
	Rewards     []Reward   `json:"rewards"`
	Votes       Votes      `json:"votes"`
	SubmittedBy string     `json:"submittedBy,omitempty"`
	AddedOn     time.Time  `json:"addedOn"`
	LastUpdated time.Time  `json:"lastUpdated"`
	ExpiredOn   *time.Time `json:"expiredOn,omitempty"`
}

// VoteType is the direction of a vote.
type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

const maxIdentifierLength = 100

// VoteCommand records or withdraws a user's vote on a coupon.
// PreviousVote is the caller's last vote on this coupon, if any.
type VoteCommand struct {
	CouponID     string   `json:"couponId"`
	VoteType     VoteType `json:"voteType"`
	UserHash     string   `json:"userHash,omitempty"`
	PreviousVote VoteType `json:"previousVote,omitempty"`
}

// Validate checks identifiers and vote directions.
func (c VoteCommand) Validate() error {
	if err := ValidateID(c.CouponID); err != nil {
		return err
	}
	if !c.VoteType.valid() {
		return fmt.Errorf("%w: voteType must be \"up\" or \"down\"", ErrInvalidVote)
	}
	if c.PreviousVote != "" && !c.PreviousVote.valid() {
		return fmt.Errorf("%w: previousVote must be \"up\" or \"down\"", ErrInvalidVote)
	}
	if len(c.UserHash) > maxIdentifierLength {
		return fmt.Errorf("%w: userHash exceeds %d characters", ErrInvalidVote, maxIdentifierLength)
	}
	return nil
}

// Deltas returns the change to apply to the up and down tallies.
// A first vote adds one, repeating the previous vote withdraws it,
// and switching moves one vote across.
func (c VoteCommand) Deltas() (up, down int) {
	switch {
	case c.PreviousVote == "":
		return c.VoteType.delta(1)
	case c.PreviousVote == c.VoteType:
		return c.VoteType.delta(-1)
	default:
		u1, d1 := c.PreviousVote.delta(-1)
		u2, d2 := c.VoteType.delta(1)
		return u1 + u2, d1 + d2
	}
}

func (v VoteType) valid() bool {
	return v == VoteUp || v == VoteDown
}

func (v VoteType) delta(n int) (up, down int) {
	if v == VoteUp {
		return n, 0
	}
	return 0, n
}

// ValidateID rejects empty or oversized record identifiers.
func ValidateID(id string) error {
	if strings.TrimSpace(id) == "" || len(id) > maxIdentifierLength {
		return ErrInvalidID
	}
	return nil
}
