// Package expirations reconciles stored coupon status against the probe:
// every valid coupon is classified in turn and those found expired are
// transitioned, with per-coupon failures isolated from the run.
package expirations

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/JaimeStill/warden/internal/config"
	"github.com/JaimeStill/warden/internal/coupons"
	"github.com/JaimeStill/warden/internal/probe"
	"github.com/JaimeStill/warden/pkg/storage"
)

// Store is the subset of coupon operations a run needs.
type Store interface {
	Valid(ctx context.Context) ([]coupons.Coupon, error)
	Expire(ctx context.Context, id string, at time.Time) error
}

// Pacer spaces successive probes.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Publisher emits domain events.
type Publisher interface {
	Publish(ctx context.Context, key string, payload any) error
}

// CouponExpired is published after a coupon is transitioned to expired.
type CouponExpired struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	ExpiredOn time.Time `json:"expiredOn"`
	RunID     string    `json:"runId"`
}

// Deps are the collaborators of a run. Store and Classifier are required;
// the rest are optional and skipped when nil.
type Deps struct {
	Store      Store
	Classifier probe.Classifier
	Pacer      Pacer
	Lock       Lock
	Events     Publisher
	Archive    storage.System
	ListSize   int32
	Registerer prometheus.Registerer
	Namespace  string
}

// RunOptions adjusts a single run. A nil DryRun uses the configured mode.
type RunOptions struct {
	DryRun *bool
}

// System defines the expiration run contract.
type System interface {
	// Handler returns the HTTP handler. The run endpoint is wrapped by protect.
	Handler(protect ...func(http.Handler) http.Handler) *Handler

	Run(ctx context.Context, opts RunOptions) (*Summary, error)

	// Archive returns the report store, or nil when archiving is disabled.
	Archive() storage.System

	// ReportPrefix is the key prefix under which run reports are archived.
	ReportPrefix() string
}

type system struct {
	deps    Deps
	cfg     config.ExpirationConfig
	metrics *recorder
	logger  *slog.Logger
	now     func() time.Time
}

// New creates the expiration System.
func New(deps Deps, cfg config.ExpirationConfig, logger *slog.Logger) (System, error) {
	if deps.Store == nil {
		return nil, errors.New("expirations: store is required")
	}
	if deps.Classifier == nil {
		return nil, errors.New("expirations: classifier is required")
	}

	rec, err := newRecorder(deps.Namespace, deps.Registerer)
	if err != nil {
		return nil, err
	}

	return &system{
		deps:    deps,
		cfg:     cfg,
		metrics: rec,
		logger:  logger.With("system", "expirations"),
		now:     time.Now,
	}, nil
}

func (s *system) Handler(protect ...func(http.Handler) http.Handler) *Handler {
	return NewHandler(s, s.logger, s.listSize(), protect...)
}

func (s *system) listSize() int32 {
	if s.deps.ListSize > 0 {
		return s.deps.ListSize
	}
	return 50
}

func (s *system) Archive() storage.System {
	return s.deps.Archive
}

func (s *system) ReportPrefix() string {
	return s.cfg.ReportPrefix
}

// Run performs one reconciliation pass. It returns an error only when the
// run cannot start: the lock is held or the valid coupons cannot be read.
func (s *system) Run(ctx context.Context, opts RunOptions) (*Summary, error) {
	dryRun := s.cfg.DryRun
	if opts.DryRun != nil {
		dryRun = *opts.DryRun
	}

	started := s.now().UTC()
	summary := &Summary{
		DryRun:         dryRun,
		ExpiredCoupons: []ExpiredCoupon{},
		RunID:          uuid.NewString(),
		StartedAt:      started,
	}
	logger := s.logger.With("run_id", summary.RunID, "dry_run", dryRun)

	if timeout := s.cfg.RunTimeoutDuration(); timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	if s.deps.Lock != nil {
		release, err := s.deps.Lock.Acquire(ctx)
		if err != nil {
			s.metrics.failed(started, s.now())
			logger.Error("run lock unavailable", "error", err)
			return nil, fmt.Errorf("acquire run lock: %w", err)
		}
		defer s.release(ctx, release, logger)
	}

	valid, err := s.deps.Store.Valid(ctx)
	if err != nil {
		s.metrics.failed(started, s.now())
		logger.Error("run failed", "error", err)
		return nil, err
	}

	summary.TotalProcessed = len(valid)
	logger.Info("run started", "valid", len(valid))

	for i, c := range valid {
		if err := s.pace(ctx); err != nil {
			s.skipRemaining(ctx, summary, valid[i:], err, logger)
			break
		}

		result, err := s.process(ctx, c, summary.RunID, dryRun, logger)
		if err != nil {
			logger.Error("coupon skipped", "id", c.ID, "code", c.Code, "error", err)
			summary.Skipped = append(summary.Skipped, SkippedCoupon{ID: c.ID, Code: c.Code, Reason: err.Error()})
			continue
		}

		switch result.Verdict {
		case probe.Expired:
			summary.ExpiredCoupons = append(summary.ExpiredCoupons, ExpiredCoupon{
				ID:     c.ID,
				Code:   c.Code,
				Reason: ExpiredReason(result.Marker),
			})
		case probe.Unknown:
			summary.InconclusiveCount++
		}
	}

	summary.finish(s.now().UTC())
	s.metrics.succeeded(summary)

	if s.deps.Archive != nil {
		summary.ReportKey = ReportKey(s.cfg.ReportPrefix, summary.RunID, started)
		if err := archiveSummary(context.WithoutCancel(ctx), s.deps.Archive, summary.ReportKey, summary); err != nil {
			logger.Error("report archive failed", "error", err)
			summary.ReportKey = ""
		}
	}

	logger.Info(
		"run complete",
		"processed", summary.TotalProcessed,
		"expired", summary.ExpiredCount,
		"inconclusive", summary.InconclusiveCount,
		"skipped", len(summary.Skipped),
		"duration", summary.FinishedAt.Sub(started),
	)

	return summary, nil
}

// process classifies one coupon and, when expired and not a dry run, writes
// the transition. A returned error leaves the coupon unchanged.
func (s *system) process(
	ctx context.Context,
	c coupons.Coupon,
	runID string,
	dryRun bool,
	logger *slog.Logger,
) (result probe.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			result, err = probe.Result{Code: c.Code, Verdict: probe.Unknown}, fmt.Errorf("panic: %v", p)
		}
	}()

	result = s.deps.Classifier.Classify(ctx, c.Code)
	s.metrics.verdict(result.Verdict)

	if !result.Expired() {
		return result, nil
	}

	if dryRun {
		logger.Info("would expire coupon", "id", c.ID, "code", c.Code)
		return result, nil
	}

	at := s.now().UTC()
	if err := s.deps.Store.Expire(ctx, c.ID, at); err != nil {
		return probe.Result{Code: c.Code, Verdict: probe.Unknown}, fmt.Errorf("expire: %w", err)
	}
	logger.Info("coupon expired", "id", c.ID, "code", c.Code)

	if s.deps.Events != nil {
		event := CouponExpired{ID: c.ID, Code: c.Code, ExpiredOn: at, RunID: runID}
		if err := s.deps.Events.Publish(ctx, c.ID, event); err != nil {
			logger.Warn("expired event not published", "id", c.ID, "error", err)
		}
	}

	return result, nil
}

func (s *system) pace(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.deps.Pacer == nil {
		return nil
	}
	return s.deps.Pacer.Wait(ctx)
}

func (s *system) skipRemaining(
	ctx context.Context,
	summary *Summary,
	rest []coupons.Coupon,
	cause error,
	logger *slog.Logger,
) {
	reason := "run stopped: " + cause.Error()
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		reason = "run deadline exceeded"
	case errors.Is(ctx.Err(), context.Canceled):
		reason = "run cancelled"
	}

	logger.Warn("run stopped early", "remaining", len(rest), "error", cause)
	for _, c := range rest {
		summary.Skipped = append(summary.Skipped, SkippedCoupon{ID: c.ID, Code: c.Code, Reason: reason})
	}
}

func (s *system) release(ctx context.Context, release func(context.Context) error, logger *slog.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := release(ctx); err != nil {
		logger.Warn("run lock release failed", "error", err)
	}
}
