// Command lambda serves coupon expiration runs as an AWS Lambda function.
// The trigger payload is ignored. Setup happens on the first invocation, so
// configuration and startup errors are returned as 500 responses.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-lambda-go/lambdacontext"

	"github.com/JaimeStill/warden/internal/config"
	"github.com/JaimeStill/warden/internal/expirations"
	"github.com/JaimeStill/warden/internal/runner"
)

// Response mirrors the API Gateway proxy shape: body is a JSON string.
type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

type runFunc func(context.Context) expirations.Envelope

func main() {
	session := runner.NewSession("warden-lambda", config.Load)

	lambda.StartWithOptions(
		newHandler(session.Run),
		lambda.WithEnableSIGTERM(func() {
			if err := session.Shutdown(); err != nil {
				log.Println("shutdown failed:", err)
			}
		}),
	)
}

func newHandler(run runFunc) func(context.Context, json.RawMessage) (Response, error) {
	return func(ctx context.Context, _ json.RawMessage) (Response, error) {
		if lc, ok := lambdacontext.FromContext(ctx); ok {
			log.Println("invocation", lc.AwsRequestID)
		}

		env := run(ctx)

		body, err := json.Marshal(env.Body)
		if err != nil {
			return Response{}, fmt.Errorf("encode body: %w", err)
		}

		return Response{StatusCode: env.StatusCode, Body: string(body)}, nil
	}
}
