// cmd/nlq/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"nlq-workers/internal/app"
	"nlq-workers/internal/common/config"
	"nlq-workers/internal/common/logger"
)

var (
	configPath string
	logLevel   string
	timeout    time.Duration
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "nlq",
	Short: "Translate plain-language inventory questions into SQL",
	Long: `nlq turns requests such as "@InventoryItem show items where quantity > 5"
into candidate queries over the inventory tables.

Available subcommands:
  translate - Translate one request and print the result
  repl      - Interactive session with sticky @Table selection
  history   - Show recent translations from the journal`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: configs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Per-request timeout")

	rootCmd.AddCommand(translateCmd)
	rootCmd.AddCommand(replCmd)
	rootCmd.AddCommand(historyCmd)
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}

func newLogger() logger.Logger {
	return logger.NewZapAdapter(logger.New(logLevel, "console"))
}

// connect builds the full backend stack with a single connection attempt per store.
func connect(ctx context.Context) (*app.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return app.Build(ctx, cfg, newLogger(), app.Options{MaxRetries: 1})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
