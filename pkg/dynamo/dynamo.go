// Package dynamo provides a DynamoDB client bound to a single table,
// with lifecycle coordination that verifies the table on startup.
package dynamo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/JaimeStill/warden/pkg/lifecycle"
)

// ErrTableNotFound indicates the configured table does not exist in the region.
var ErrTableNotFound = errors.New("dynamodb table not found")

// System manages the DynamoDB client and lifecycle coordination.
type System interface {
	// Client returns the shared DynamoDB client.
	Client() *dynamodb.Client
	// Table returns the configured table name.
	Table() string
	// Start registers a startup hook that verifies the table is reachable.
	Start(lc *lifecycle.Coordinator) error
}

type system struct {
	client      *dynamodb.Client
	table       string
	logger      *slog.Logger
	connTimeout time.Duration
}

// New creates a DynamoDB system from the given configuration.
// Credentials resolve through the default AWS chain (environment, shared
// config, container or instance role). A non-empty Endpoint targets a
// local DynamoDB instead of the regional service.
func New(cfg *Config, logger *slog.Logger) (System, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(
		context.Background(),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(o *dynamodb.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &system{
		client:      client,
		table:       cfg.TableName,
		logger:      logger.With("system", "dynamodb", "table", cfg.TableName),
		connTimeout: cfg.ConnTimeoutDuration(),
	}, nil
}

func (s *system) Client() *dynamodb.Client {
	return s.client
}

func (s *system) Table() string {
	return s.table
}

func (s *system) Start(lc *lifecycle.Coordinator) error {
	s.logger.Info("starting dynamodb client")

	lc.OnStartup(func(ctx context.Context) error {
		describeCtx, cancel := context.WithTimeout(ctx, s.connTimeout)
		defer cancel()

		out, err := s.client.DescribeTable(describeCtx, &dynamodb.DescribeTableInput{
			TableName: aws.String(s.table),
		})
		if err != nil {
			var notFound *types.ResourceNotFoundException
			if errors.As(err, &notFound) {
				return fmt.Errorf("%w: %s", ErrTableNotFound, s.table)
			}
			s.logger.Error("describe table failed", "error", err)
			return fmt.Errorf("describe table %s: %w", s.table, err)
		}

		s.logger.Info("dynamodb table ready", "status", out.Table.TableStatus)
		return nil
	})

	return nil
}
