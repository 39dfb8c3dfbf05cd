package expirations

import (
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ExpiredReason is recorded for every coupon flagged expired by selector.
// A simple tag.class selector such as h1.pop_tit is named by its class.
func ExpiredReason(selector string) string {
	name := selector
	if tag, class, ok := strings.Cut(selector, "."); ok && class != "" &&
		!strings.ContainsAny(tag+class, " .#[]:>+~,*()") {
		name = class
	}
	if name == "" {
		name = "expired marker"
	}
	return "Code expired - found " + name + " element"
}

// FailureMessage is the error text of a failed run envelope.
const FailureMessage = "Failed to process coupon expiration"

// ExpiredCoupon identifies a coupon expired, or that would be expired, by a run.
type ExpiredCoupon struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// SkippedCoupon identifies a coupon whose processing failed or was not reached.
// Its stored state is unchanged.
type SkippedCoupon struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// Summary is the result of a completed run.
type Summary struct {
	Success           bool            `json:"success"`
	DryRun            bool            `json:"dryRun"`
	Message           string          `json:"message"`
	TotalProcessed    int             `json:"totalProcessed"`
	ExpiredCount      int             `json:"expiredCount"`
	ExpiredCoupons    []ExpiredCoupon `json:"expiredCoupons"`
	InconclusiveCount int             `json:"inconclusiveCount"`
	Skipped           []SkippedCoupon `json:"skipped,omitempty"`
	RunID             string          `json:"runId"`
	ReportKey         string          `json:"reportKey,omitempty"`
	StartedAt         time.Time       `json:"startedAt"`
	FinishedAt        time.Time       `json:"finishedAt"`
}

func (s *Summary) finish(at time.Time) {
	action := "expired"
	if s.DryRun {
		action = "would expire"
	}

	s.Success = true
	s.ExpiredCount = len(s.ExpiredCoupons)
	s.Message = fmt.Sprintf("Processed %d coupons, %s %d coupons", s.TotalProcessed, action, s.ExpiredCount)
	s.FinishedAt = at
}

// Failure is the body of a failed run envelope.
type Failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Details string `json:"details"`
}

// Envelope is the result returned to whatever invoked the run.
type Envelope struct {
	StatusCode int `json:"statusCode"`
	Body       any `json:"body"`
}

// OK reports whether the envelope carries a successful summary.
func (e Envelope) OK() bool {
	return e.StatusCode == http.StatusOK
}

// NewEnvelope wraps the outcome of Run. A non-nil err produces a 500
// envelope with no summary fields.
func NewEnvelope(summary *Summary, err error) Envelope {
	if err != nil || summary == nil {
		details := "no summary produced"
		if err != nil {
			details = err.Error()
		}
		return Envelope{
			StatusCode: http.StatusInternalServerError,
			Body: Failure{
				Success: false,
				Error:   FailureMessage,
				Details: details,
			},
		}
	}

	return Envelope{StatusCode: http.StatusOK, Body: summary}
}
