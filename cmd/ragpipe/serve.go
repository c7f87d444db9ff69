package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wealthlens/ragpipe/internal/metrics/prom"
)

var serveDomain string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the pipeline as a long-lived process, exposing /metrics, /healthz, /readyz",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveDomain, "domain", "wealth", "retrieval domain/collection the readiness probe warms up against")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	p, err := buildPipeline(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	ready := false
	prom.Serve(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), func() bool { return ready }, func(err error) {
		fmt.Fprintln(os.Stderr, err)
	})

	if err := p.Warmup(ctx, serveDomain); err != nil {
		fmt.Fprintf(os.Stderr, "warmup failed, serving with /readyz reporting not ready: %v\n", err)
	} else {
		ready = true
	}

	<-ctx.Done()
	return nil
}
