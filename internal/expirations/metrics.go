package expirations

import (
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JaimeStill/warden/internal/probe"
)

const subsystem = "expiration"

type recorder struct {
	runs        *prometheus.CounterVec
	duration    prometheus.Histogram
	verdicts    *prometheus.CounterVec
	expired     *prometheus.CounterVec
	skipped     prometheus.Counter
	lastSuccess prometheus.Gauge
}

func newRecorder(namespace string, reg prometheus.Registerer) (*recorder, error) {
	r := &recorder{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "runs_total",
			Help:      "Expiration runs by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "run_duration_seconds",
			Help:      "Wall time of completed expiration runs.",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		}),
		verdicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "probe_verdicts_total",
			Help:      "Probe results by verdict.",
		}, []string{"verdict"}),
		expired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "coupons_expired_total",
			Help:      "Coupons expired, or that would be expired in dry run.",
		}, []string{"dry_run"}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "coupons_skipped_total",
			Help:      "Coupons left unchanged because processing failed or was not reached.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful run.",
		}),
	}

	if reg == nil {
		return r, nil
	}

	var err error
	if r.runs, err = register(reg, r.runs); err != nil {
		return nil, err
	}
	if r.duration, err = register(reg, r.duration); err != nil {
		return nil, err
	}
	if r.verdicts, err = register(reg, r.verdicts); err != nil {
		return nil, err
	}
	if r.expired, err = register(reg, r.expired); err != nil {
		return nil, err
	}
	if r.skipped, err = register(reg, r.skipped); err != nil {
		return nil, err
	}
	if r.lastSuccess, err = register(reg, r.lastSuccess); err != nil {
		return nil, err
	}

	return r, nil
}

// register adds c to reg. When an equal collector is already registered,
// the existing one is returned so recordings reach the registry.
func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register expiration metrics: %w", err)
	}
	return c, nil
}

func (r *recorder) verdict(v probe.Verdict) {
	r.verdicts.WithLabelValues(v.String()).Inc()
}

func (r *recorder) succeeded(s *Summary) {
	r.runs.WithLabelValues("success").Inc()
	r.duration.Observe(s.FinishedAt.Sub(s.StartedAt).Seconds())
	r.expired.WithLabelValues(boolLabel(s.DryRun)).Add(float64(s.ExpiredCount))
	r.skipped.Add(float64(len(s.Skipped)))
	r.lastSuccess.Set(float64(s.FinishedAt.Unix()))
}

func (r *recorder) failed(started time.Time, now time.Time) {
	r.runs.WithLabelValues("failure").Inc()
	r.duration.Observe(now.Sub(started).Seconds())
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
