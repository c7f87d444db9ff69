package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/wealthlens/ragpipe/internal/domain"
)

var (
	queryDomain     string
	queryPromptName string
	queryThreadID   string
	queryJSONOutput bool
)

var queryCmd = &cobra.Command{
	Use:   "query [text]",
	Short: "Run a single query through the pipeline and print the cited answer",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryDomain, "domain", "wealth", "retrieval domain/collection")
	queryCmd.Flags().StringVar(&queryPromptName, "prompt", "", "explicit prompt template name (overrides intent default)")
	queryCmd.Flags().StringVar(&queryThreadID, "thread", "", "conversation thread id")
	queryCmd.Flags().BoolVar(&queryJSONOutput, "json", false, "print the full domain.Response as JSON")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Pipeline.RequestDeadlineMS+2000)*time.Millisecond)
	defer cancel()

	p, err := buildPipeline(ctx, cfg)
	if err != nil {
		return fmt.Errorf("build pipeline: %w", err)
	}

	resp, err := p.Handle(ctx, domain.Query{
		ID: uuid.NewString(), Text: args[0], Domain: queryDomain,
		PromptName: queryPromptName, ThreadID: queryThreadID,
	})
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}

	if queryJSONOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Println(resp.Answer)
	for i, c := range resp.Citations {
		fmt.Printf("[%d] %s\n", i+1, c.SourcePath)
	}
	return nil
}
