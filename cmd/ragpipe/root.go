package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:     "ragpipe",
	Short:   "Agentic retrieval-and-grading pipeline for wealth-management Q&A",
	Version: "0.1.0",
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	viper.SetEnvPrefix("ragpipe")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(warmupCmd)
	rootCmd.AddCommand(queryCmd)
}
