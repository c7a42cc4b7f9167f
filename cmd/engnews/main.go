// Command engnews runs one publishing cycle from the terminal or cron and
// prints the run summary as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"engnews/internal/app"
	"engnews/internal/config"
	"engnews/internal/logger"
)

func main() {
	// Local convenience only; in production the environment is already set.
	_ = godotenv.Load()

	logger.Init()
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := app.Run(ctx, cfg)
	if err != nil {
		logger.Error("run failed", "error", err)
		fmt.Fprintf(os.Stderr, "engnews: %v\n", err)
		os.Exit(1)
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "engnews: encode summary: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}
