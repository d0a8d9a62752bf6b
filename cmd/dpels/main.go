// Package main provides the dpels CLI entry point.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mcdatapack/dpe/internal/config"
	"github.com/mcdatapack/dpe/internal/lsp"
)

var version = "dev"

func main() {
	cfg := config.Default()
	if v := os.Getenv(config.EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel()}))

	s := lsp.NewServer(lsp.WithLogger(logger), lsp.WithVersion(version))
	if err := s.RunStdio(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "dpels:", err)
		os.Exit(1)
	}
}
