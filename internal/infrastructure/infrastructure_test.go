package infrastructure_test

import (
	"testing"

	"github.com/JaimeStill/warden/internal/config"
	"github.com/JaimeStill/warden/internal/infrastructure"
	"github.com/JaimeStill/warden/pkg/database"
	"github.com/JaimeStill/warden/pkg/dynamo"
	"github.com/JaimeStill/warden/pkg/metrics"
	"github.com/JaimeStill/warden/pkg/runlock"
	"github.com/JaimeStill/warden/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

func postgresConfig() *config.Config {
	return &config.Config{
		Store: config.StoreConfig{Backend: config.BackendPostgres},
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			Name:            "warden",
			Schema:          "public",
			User:            "warden",
			Password:        "warden",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: "15m",
			ConnTimeout:     "5s",
		},
		Metrics: metrics.Config{Namespace: "warden", Path: "/metrics"},
		Version: "0.1.0",
	}
}

func TestNewPostgresBackend(t *testing.T) {
	infra, err := infrastructure.New(postgresConfig(), "warden-test")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if infra.Lifecycle == nil || infra.Logger == nil || infra.Metrics == nil || infra.Tracing == nil {
		t.Fatal("core systems must always be set")
	}
	if infra.Database == nil {
		t.Error("Database is nil for postgres backend")
	}
	if infra.DynamoDB != nil {
		t.Error("DynamoDB should be nil for postgres backend")
	}
	if infra.Storage != nil || infra.Events != nil || infra.Lock != nil {
		t.Error("unconfigured optional systems should be nil")
	}
}

func TestNewDynamoBackend(t *testing.T) {
	cfg := postgresConfig()
	cfg.Store.Backend = config.BackendDynamoDB
	cfg.DynamoDB = dynamo.Config{
		Region:      "us-east-2",
		Endpoint:    "http://localhost:8000",
		TableName:   "summoners-war-coupons",
		ConnTimeout: "5s",
	}

	infra, err := infrastructure.New(cfg, "warden-test")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if infra.DynamoDB == nil {
		t.Fatal("DynamoDB is nil for dynamodb backend")
	}
	if infra.DynamoDB.Table() != "summoners-war-coupons" {
		t.Errorf("table: got %q", infra.DynamoDB.Table())
	}
	if infra.Database != nil {
		t.Error("Database should be nil for dynamodb backend")
	}
}

func TestNewOptionalSystems(t *testing.T) {
	cfg := postgresConfig()
	cfg.Storage = storage.Config{
		ContainerName:    "reports",
		ConnectionString: azuriteConnString,
		MaxListSize:      50,
	}
	cfg.Lock = runlock.Config{
		Addr: "localhost:6379",
		Key:  "warden:expirations:lock",
		TTL:  "35m",
	}

	infra, err := infrastructure.New(cfg, "warden-test")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if infra.Storage == nil {
		t.Error("Storage should be set when a connection string is configured")
	}
	if infra.Lock == nil {
		t.Error("Lock should be set when an address is configured")
	}
	if infra.Events != nil {
		t.Error("Events should be nil without brokers")
	}
}
