package coupons

import (
	"errors"
	"net/http"
)

// Domain errors for coupon operations.
var (
	ErrNotFound    = errors.New("coupon not found")
	ErrDuplicate   = errors.New("coupon already exists")
	ErrNotValid    = errors.New("coupon is no longer valid")
	ErrInvalidID   = errors.New("invalid coupon id")
	ErrInvalidVote = errors.New("invalid vote")
)

// MapHTTPStatus maps coupon domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, ErrNotValid) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidID) || errors.Is(err, ErrInvalidVote) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
