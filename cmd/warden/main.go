// Command warden performs one coupon expiration run and prints the result
// envelope as JSON. It exits non-zero when the run fails, including when
// configuration or startup fails.
package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/JaimeStill/warden/internal/config"
	"github.com/JaimeStill/warden/internal/runner"
)

func main() {
	os.Exit(run())
}

func run() int {
	session := runner.NewSession("warden", config.Load)
	defer func() {
		if err := session.Shutdown(); err != nil {
			log.Println("shutdown failed:", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	env := session.Run(ctx)

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(env); err != nil {
		log.Println("encode result failed:", err)
		return 1
	}

	if !env.OK() {
		return 1
	}
	return 0
}
