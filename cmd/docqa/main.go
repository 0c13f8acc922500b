// Command docqa answers questions about a PDF or text document.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"docqa/internal/app"
	"docqa/internal/config"
	"docqa/internal/logging"
)

func main() {
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:   "docqa",
		Short: "Ask questions about a document and track answer quality",
		Long: `docqa analyzes a PDF or text document and answers questions about it
with a retrieval-augmented language model.

Examples:
  docqa chat articulo.pdf                     # Interactive session
  docqa ask articulo.pdf "¿Cuál es la idea principal del artículo?"
  docqa metrics                               # Latency dashboard
  docqa loadtest articulo.pdf --iterations 20`,
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file path (default ./config.yaml or ~/.config/docqa/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose logging")

	rootCmd.AddCommand(chatCmd(), askCmd(), metricsCmd(), loadtestCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration and builds the registry. Interactive
// commands log to a file so log lines do not tear the terminal UI.
func setup(cmd *cobra.Command, interactive bool) (*app.Registry, func(), error) {
	configPath, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")

	var (
		cfg *config.AppConfig
		err error
	)
	if configPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(configPath)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if interactive && cfg.Logging.File == "" {
		cfg.Logging.File = "logs/docqa.log"
	}

	log, closeLog, err := logging.Setup(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	reg := app.NewRegistry(cfg, log)
	cleanup := func() {
		if err := reg.Close(); err != nil {
			log.WithError(err).Warn("failed to release resources")
		}
		_ = closeLog()
	}
	return reg, cleanup, nil
}
