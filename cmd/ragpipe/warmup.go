package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var warmupDomain string

var warmupCmd = &cobra.Command{
	Use:   "warmup",
	Short: "Check the retriever's embedding-dimension invariant against a domain before accepting traffic",
	RunE:  runWarmup,
}

func init() {
	warmupCmd.Flags().StringVar(&warmupDomain, "domain", "wealth", "retrieval domain/collection to check")
}

func runWarmup(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	p, err := buildPipeline(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}
	if err := p.Warmup(ctx, warmupDomain); err != nil {
		return fmt.Errorf("warmup: %w", err)
	}
	fmt.Printf("warmup ok for domain %q\n", warmupDomain)
	return nil
}
