package main

import (
	"fmt"
	"io"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/archetype-cli/internal/batch"
	"github.com/sells-group/archetype-cli/internal/classify"
	"github.com/sells-group/archetype-cli/internal/founding"
	"github.com/sells-group/archetype-cli/internal/insights"
	"github.com/sells-group/archetype-cli/internal/model"
	"github.com/sells-group/archetype-cli/internal/table"
)

// progressEvery is how often, in rows, progress is logged at info level.
const progressEvery = 10

var (
	classifyInput           string
	classifyOutput          string
	classifyNameCol         string
	classifyDescCol         string
	classifyAI              bool
	classifyProvider        string
	classifyModel           string
	classifyCheckpoint      string
	classifyCheckpointEvery int
	classifyResume          bool
	classifyLimit           int
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Classify every company in a CSV/TSV/XLSX file",
	Long: `Reads a company export, classifies each row into an InsurTech archetype and
writes the input columns plus the classification columns to --output.

Examples:
  # Keyword matching only (no API key needed)
  archetype-cli classify --input companies.xlsx

  # LLM classification with checkpoints every 5 rows
  archetype-cli classify --input companies.csv --ai --provider openai

  # Continue an interrupted run
  archetype-cli classify --input companies.csv --ai --resume`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		applyClassifyFlags(cmd)

		in, err := table.Read(classifyInput)
		if err != nil {
			return eris.Wrap(err, "classify: read input")
		}
		zap.L().Info("loaded input", zap.String("path", classifyInput), zap.Int("rows", in.Len()))

		env, err := initClassifier(cfg.Classifier.Mode == string(classify.ModeAI))
		if err != nil {
			return err
		}

		cpPath := classifyCheckpoint
		if cpPath == "" {
			cpPath = cfg.Batch.CheckpointPath
		}
		if cpPath == "" {
			cpPath = batch.CheckpointPathFor(classifyInput)
		}
		cp, err := batch.NewFileCheckpointer(cpPath)
		if err != nil {
			return err
		}

		runner := batch.NewRunner(
			env.Dispatcher,
			founding.NewCorrector(cfg.Correction.ThresholdYear, cfg.Correction.MinNumericShare),
			env.Calculator,
			batch.Options{
				NameColumn:      classifyNameCol,
				DescColumn:      classifyDescCol,
				Checkpoint:      cp,
				CheckpointEvery: cfg.Batch.CheckpointEvery,
				Resume:          classifyResume,
				Limit:           classifyLimit,
				Mode:            string(env.Dispatcher.Mode()),
				Progress:        logProgress,
			},
		)

		out, err := runner.Run(ctx, in)
		if err != nil {
			return eris.Wrap(err, "classify: run")
		}
		env.LogUsage()

		outPath := classifyOutput
		if outPath == "" {
			outPath = defaultOutputPath(classifyInput)
		}
		if err := table.Write(outPath, out.Table); err != nil {
			// Results stay valid in memory; the checkpoint still holds them.
			zap.L().Warn("classify: export failed", zap.String("path", outPath), zap.Error(err))
		} else {
			zap.L().Info("results written", zap.String("path", outPath), zap.Int("rows", out.Table.Len()))
		}

		printSummary(cmd.OutOrStdout(), out)
		return nil
	},
}

func init() {
	f := classifyCmd.Flags()
	f.StringVar(&classifyInput, "input", "", "path to the company file (.csv, .tsv, .xlsx) (required)")
	f.StringVar(&classifyOutput, "output", "", "output path (default: insurtech_classified.<ext> next to the input)")
	f.StringVar(&classifyNameCol, "name-col", "", "company name column (default: first column)")
	f.StringVar(&classifyDescCol, "desc-col", "", "description column (default: first column containing \"description\", else the second)")
	f.BoolVar(&classifyAI, "ai", false, "classify through the configured LLM provider")
	f.StringVar(&classifyProvider, "provider", "", "LLM provider: anthropic or openai (default from config)")
	f.StringVar(&classifyModel, "model", "", "model id (default from config)")
	f.StringVar(&classifyCheckpoint, "checkpoint", "", "checkpoint path (default: progress_backup.<ext> next to the input)")
	f.IntVar(&classifyCheckpointEvery, "checkpoint-every", 0, "rows between checkpoints (default from config)")
	f.BoolVar(&classifyResume, "resume", false, "continue from an existing checkpoint")
	f.IntVar(&classifyLimit, "limit", 0, "max companies to classify (0 = all)")
	_ = classifyCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(classifyCmd)
}

// applyClassifyFlags lets explicitly set flags override config.
func applyClassifyFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	if f.Changed("ai") {
		if classifyAI {
			cfg.Classifier.Mode = string(classify.ModeAI)
		} else {
			cfg.Classifier.Mode = string(classify.ModeKeyword)
		}
	}
	if classifyProvider != "" {
		cfg.Classifier.Provider = classifyProvider
	}
	if classifyModel != "" {
		cfg.Classifier.Model = classifyModel
	}
	if f.Changed("checkpoint-every") {
		cfg.Batch.CheckpointEvery = classifyCheckpointEvery
	}
}

func defaultOutputPath(input string) string {
	ext := strings.ToLower(filepath.Ext(input))
	if ext == "" {
		ext = ".csv"
	}
	return filepath.Join(filepath.Dir(input), "insurtech_classified"+ext)
}

func logProgress(s model.RunStats) {
	fields := []zap.Field{
		zap.Int("processed", s.Processed),
		zap.Int("total", s.Total),
		zap.Float64("percent", s.Percent()),
		zap.Float64("rows_per_sec", s.Throughput()),
		zap.Duration("eta", s.ETA()),
		zap.Float64("cost_usd", s.Cost),
	}
	if s.Processed%progressEvery == 0 || s.Processed == s.Total {
		zap.L().Info("classification progress", fields...)
		return
	}
	zap.L().Debug("classification progress", fields...)
}

func printSummary(w io.Writer, out *batch.Output) {
	s := insights.Summarize(out.Results)

	fmt.Fprintf(w, "\nClassified %d of %d companies in %s (%s mode)\n",
		out.Stats.Processed, out.Stats.Total, out.Stats.Elapsed.Round(time.Millisecond), out.Stats.Mode)
	if out.Stats.Stopped {
		fmt.Fprintln(w, "Run stopped early; rerun with --resume to continue.")
	}
	if out.Stats.Cost > 0 {
		fmt.Fprintf(w, "Estimated cost: $%.4f\n", out.Stats.Cost)
	}
	if out.Corrections.Applied() {
		fmt.Fprintf(w, "Founding-year corrections: %d (column %q)\n", out.Stats.Reclassified, out.Corrections.Column)
	}

	fmt.Fprintln(w, "\nArchetype distribution:")
	for _, c := range s.Archetypes {
		fmt.Fprintf(w, "  %-26s %5d  %5.1f%%\n", c.Label, c.Count, c.Share)
	}
	if s.Errors > 0 {
		fmt.Fprintf(w, "  %-26s %5d\n", "Errors", s.Errors)
	}

	fmt.Fprintln(w, "\nKey findings:")
	for _, line := range s.Findings() {
		fmt.Fprintf(w, "  - %s\n", line)
	}
}
