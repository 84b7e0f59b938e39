package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/archetype-cli/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "archetype-cli",
	Short: "InsurTech business-model archetype classifier",
	Long: `Classifies companies from a CSV or XLSX export into InsurTech archetypes,
by keyword matching or through an LLM, and writes the augmented table back out.

Commands:
  classify   classify a file and write the augmented table
  estimate   estimate tokens and cost of an AI run
  serve      expose classification over HTTP

Settings are read from config.yaml in the working directory, then from
environment variables prefixed ARCHETYPE_ with dots replaced by underscores,
for example ARCHETYPE_ANTHROPIC_KEY, ARCHETYPE_OPENAI_KEY,
ARCHETYPE_CLASSIFIER_MODE and ARCHETYPE_SERVER_PORT. Environment variables win
over the file; command flags win over both. Without an API key, --ai runs
fall back to keyword classification.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
