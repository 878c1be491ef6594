package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/eringen/spacetraveling"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(); err != nil {
			log.Fatal(err)
		}
	case "version":
		fmt.Printf("spacetraveling %s\n", version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func runServe() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	cfg, err := spacetraveling.LoadConfig()
	if err != nil {
		return err
	}

	app := spacetraveling.New(cfg, spacetraveling.ViewFuncs{})
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- app.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.Echo.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func printUsage() {
	fmt.Println(`spacetraveling - A blog front-end for a headless CMS, built with Go, Echo, and templ

Usage:
  spacetraveling <command>

Commands:
  serve         Start the web server (configured from the environment and .env)
  version       Print the spacetraveling version
  help          Show this help message

Environment:
  PRISMIC_API_ENDPOINT  CMS API root (required)
  SESSION_SECRET        Cookie session secret (required)
  ADDR                  Listen address (default ":3000")
  PREBUILD_UIDS         Comma-separated posts built at startup
  REDIS_URL             Share listing sessions between instances`)
}
