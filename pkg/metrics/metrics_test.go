package metrics_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/JaimeStill/warden/pkg/metrics"
)

func newSystem(t *testing.T, gateway string) metrics.System {
	t.Helper()
	cfg := &metrics.Config{PushGateway: gateway}
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}
	return metrics.New(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestHandlerExposesRegisteredCollectors(t *testing.T) {
	sys := newSystem(t, "")

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: sys.Namespace(),
		Name:      "test_total",
		Help:      "test counter",
	})
	sys.Registerer().MustRegister(counter)
	counter.Add(3)

	if got := testutil.ToFloat64(counter); got != 3 {
		t.Errorf("counter: got %v, want 3", got)
	}

	rec := httptest.NewRecorder()
	sys.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "warden_test_total 3") {
		t.Errorf("body missing counter sample:\n%s", rec.Body.String())
	}
}

func TestPushWithoutGatewayIsNoop(t *testing.T) {
	sys := newSystem(t, "")
	if err := sys.Push(context.Background(), "warden"); err != nil {
		t.Fatalf("Push() error = %v", err)
	}
}

func TestPushSendsToGateway(t *testing.T) {
	var path string
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	sys := newSystem(t, gateway.URL)
	if err := sys.Push(context.Background(), "warden-expire"); err != nil {
		t.Fatalf("Push() error = %v", err)
	}

	if path != "/metrics/job/warden-expire" {
		t.Errorf("path: got %s, want /metrics/job/warden-expire", path)
	}
}

func TestConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var cfg metrics.Config
		if err := cfg.Finalize(nil); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if cfg.Namespace != "warden" {
			t.Errorf("namespace: got %s, want warden", cfg.Namespace)
		}
		if cfg.Path != "/metrics" {
			t.Errorf("path: got %s, want /metrics", cfg.Path)
		}
	})

	t.Run("invalid gateway", func(t *testing.T) {
		cfg := metrics.Config{PushGateway: "not a url"}
		if err := cfg.Finalize(nil); err == nil {
			t.Fatal("expected error for invalid push_gateway")
		}
	})

	t.Run("env override", func(t *testing.T) {
		t.Setenv("TEST_METRICS_ENABLED", "true")
		t.Setenv("TEST_METRICS_GATEWAY", "http://pushgateway:9091")

		var cfg metrics.Config
		env := &metrics.Env{Enabled: "TEST_METRICS_ENABLED", PushGateway: "TEST_METRICS_GATEWAY"}
		if err := cfg.Finalize(env); err != nil {
			t.Fatalf("finalize failed: %v", err)
		}
		if !cfg.Enabled {
			t.Error("enabled: got false, want true")
		}
		if cfg.PushGateway != "http://pushgateway:9091" {
			t.Errorf("push_gateway: got %s", cfg.PushGateway)
		}
	})
}
