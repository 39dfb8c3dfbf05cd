// Package probe classifies promotional codes by fetching the third-party
// redemption check page and looking for the expired-code marker.
package probe

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/JaimeStill/warden/internal/config"
)

// Verdict is the outcome of a single probe.
type Verdict int

const (
	// Unknown means the page could not be fetched or parsed.
	Unknown Verdict = iota
	// Active means the page loaded and carried no expired marker.
	Active
	// Expired means the page carried at least one expired marker.
	Expired
)

func (v Verdict) String() string {
	switch v {
	case Active:
		return "active"
	case Expired:
		return "expired"
	default:
		return "unknown"
	}
}

// Result is the classification of one code. Marker is the matched
// selector when the verdict is Expired.
type Result struct {
	Code    string
	Verdict Verdict
	Status  int
	Marker  string
	Err     error
}

// Expired reports whether the code should transition to expired.
// Unknown is never treated as expired.
func (r Result) Expired() bool {
	return r.Verdict == Expired
}

// Classifier decides whether a code has expired.
type Classifier interface {
	Classify(ctx context.Context, code string) Result
}

// Option configures a Prober.
type Option func(*Prober)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Prober) { p.client = client }
}

// WithTracer sets the tracer used for per-probe spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Prober) { p.tracer = tracer }
}

// Prober is the HTTP Classifier.
type Prober struct {
	client      *http.Client
	tracer      trace.Tracer
	logger      *slog.Logger
	template    string
	userAgent   string
	selector    cascadia.Selector
	marker      string
	maxBodySize int64
}

// New creates a Prober from finalized probe configuration. The selector is
// compiled here so a malformed selector fails at startup.
func New(cfg *config.ProbeConfig, logger *slog.Logger, opts ...Option) (*Prober, error) {
	sel, err := cascadia.Compile(cfg.Selector)
	if err != nil {
		return nil, fmt.Errorf("compile selector %q: %w", cfg.Selector, err)
	}

	p := &Prober{
		client:      &http.Client{Timeout: cfg.TimeoutDuration()},
		tracer:      noop.NewTracerProvider().Tracer("probe"),
		logger:      logger.With("system", "probe"),
		template:    cfg.URLTemplate,
		userAgent:   cfg.UserAgent,
		selector:    sel,
		marker:      cfg.Selector,
		maxBodySize: cfg.MaxBodySizeBytes(),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// URL returns the probe URL for code.
func (p *Prober) URL(code string) string {
	return strings.ReplaceAll(p.template, config.CodePlaceholder, url.PathEscape(code))
}

// Classify fetches the probe page for code. It never returns an error; any
// failure yields an Unknown verdict with Err set.
func (p *Prober) Classify(ctx context.Context, code string) Result {
	target := p.URL(code)

	ctx, span := p.tracer.Start(
		ctx,
		"probe.classify",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("coupon.code", code),
			attribute.String("http.url", target),
		),
	)
	defer span.End()

	start := time.Now()
	result := p.classify(ctx, code, target)

	span.SetAttributes(
		attribute.String("probe.verdict", result.Verdict.String()),
		attribute.Int("http.status_code", result.Status),
	)

	switch result.Verdict {
	case Expired:
		p.logger.Info("expired code", "code", code, "duration", time.Since(start))
	case Active:
		p.logger.Debug("active code", "code", code, "duration", time.Since(start))
	default:
		span.RecordError(result.Err)
		span.SetStatus(codes.Error, result.Err.Error())
		p.logger.Warn("probe failed", "code", code, "error", result.Err)
	}

	return result
}

func (p *Prober) classify(ctx context.Context, code, target string) Result {
	result := Result{Code: code, Verdict: Unknown}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		result.Err = fmt.Errorf("build request: %w", err)
		return result
	}
	req.Header.Set("User-Agent", p.userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		result.Err = fmt.Errorf("fetch: %w", err)
		return result
	}
	defer resp.Body.Close()

	result.Status = resp.StatusCode
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		result.Err = fmt.Errorf("unexpected status %d", resp.StatusCode)
		return result
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, p.maxBodySize))
	if err != nil {
		result.Err = fmt.Errorf("parse html: %w", err)
		return result
	}

	if doc.FindMatcher(p.selector).Length() > 0 {
		result.Verdict = Expired
		result.Marker = p.marker
	} else {
		result.Verdict = Active
	}
	return result
}
