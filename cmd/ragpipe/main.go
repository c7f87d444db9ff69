// Command ragpipe is the pipeline's service/CLI entrypoint: "serve" runs it
// as a long-lived process exposing Prometheus metrics, "warmup" checks the
// retriever's embedding-dimension invariant against a configured domain,
// and "query" runs a single request synchronously and prints the answer.
// Grounded on antflydb-antfly-go/evalaf's cmd/evalaf (a cobra root command
// with one subcommand per top-level verb, viper binding flags/env/config
// file into a single typed config struct).
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
