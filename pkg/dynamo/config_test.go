package dynamo_test

import (
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/warden/pkg/dynamo"
)

func TestFinalizeDefaults(t *testing.T) {
	var cfg dynamo.Config
	if err := cfg.Finalize(nil); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.Region != "us-east-2" {
		t.Errorf("region: got %s, want us-east-2", cfg.Region)
	}
	if cfg.TableName != "summoners-war-coupons" {
		t.Errorf("table_name: got %s, want summoners-war-coupons", cfg.TableName)
	}
	if cfg.Endpoint != "" {
		t.Errorf("endpoint: got %s, want empty", cfg.Endpoint)
	}
	if d := cfg.ConnTimeoutDuration(); d != 5*time.Second {
		t.Errorf("conn_timeout: got %v, want 5s", d)
	}
}

func TestFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_DYNAMO_REGION", "eu-west-1")
	t.Setenv("TEST_DYNAMO_ENDPOINT", "http://localhost:8000")
	t.Setenv("TEST_DYNAMO_TABLE", "coupons-staging")

	env := &dynamo.Env{
		Region:    "TEST_DYNAMO_REGION",
		Endpoint:  "TEST_DYNAMO_ENDPOINT",
		TableName: "TEST_DYNAMO_TABLE",
	}

	var cfg dynamo.Config
	if err := cfg.Finalize(env); err != nil {
		t.Fatalf("finalize failed: %v", err)
	}

	if cfg.Region != "eu-west-1" {
		t.Errorf("region: got %s, want eu-west-1", cfg.Region)
	}
	if cfg.Endpoint != "http://localhost:8000" {
		t.Errorf("endpoint: got %s", cfg.Endpoint)
	}
	if cfg.TableName != "coupons-staging" {
		t.Errorf("table_name: got %s, want coupons-staging", cfg.TableName)
	}
}

func TestFinalizeInvalidTimeout(t *testing.T) {
	cfg := dynamo.Config{ConnTimeout: "soon"}
	err := cfg.Finalize(nil)
	if err == nil || !strings.Contains(err.Error(), "invalid conn_timeout") {
		t.Fatalf("expected invalid conn_timeout error, got %v", err)
	}
}

func TestMerge(t *testing.T) {
	base := dynamo.Config{Region: "us-east-2", TableName: "base"}
	base.Merge(&dynamo.Config{TableName: "overlay"})

	if base.Region != "us-east-2" {
		t.Errorf("region should remain us-east-2, got %s", base.Region)
	}
	if base.TableName != "overlay" {
		t.Errorf("table_name: got %s, want overlay", base.TableName)
	}
}
