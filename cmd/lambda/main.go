// Lambda entry point for scheduled runs (EventBridge cron). The handler
// mirrors the CLI: one run per invocation, summary in the response body.
package main

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-lambda-go/lambda"

	"engnews/internal/app"
	"engnews/internal/config"
	"engnews/internal/logger"
)

type Response struct {
	StatusCode int    `json:"statusCode"`
	Body       string `json:"body"`
}

// Handler never panics: configuration problems come back as a 500 so the
// schedule keeps firing and the next deploy can fix the environment.
func Handler(ctx context.Context, _ json.RawMessage) (Response, error) {
	logger.Init()
	cfg := config.Load()

	result, err := app.Run(ctx, cfg)
	if err != nil {
		logger.Error("run failed", "error", err)
		return Response{StatusCode: 500, Body: err.Error()}, nil
	}

	body, err := json.Marshal(result)
	if err != nil {
		return Response{StatusCode: 500, Body: err.Error()}, nil
	}

	return Response{StatusCode: 200, Body: string(body)}, nil
}

func main() {
	lambda.Start(Handler)
}
