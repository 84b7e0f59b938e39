package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/archetype-cli/internal/cost"
	"github.com/sells-group/archetype-cli/internal/table"
)

var (
	estimateInput string
	estimateCount int
	estimateModel string
	estimateLimit int
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate tokens and cost of an LLM classification run",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("estimate"); err != nil {
			return err
		}

		count := estimateCount
		if estimateInput != "" {
			in, err := table.Read(estimateInput)
			if err != nil {
				return eris.Wrap(err, "estimate: read input")
			}
			count = in.Head(estimateLimit).Len()
		}
		if estimateInput == "" && count <= 0 {
			return eris.New("estimate: --input or a positive --count is required")
		}

		modelID := estimateModel
		if modelID == "" {
			modelID = cfg.RemoteModel()
		}

		tax, err := loadTaxonomy()
		if err != nil {
			return err
		}
		calc := cost.NewCalculator(pricingRates(), tax.FrameworkContext(), cfg.Batch.CostPerCall)
		printEstimate(cmd, calc.Estimate(count, modelID))
		return nil
	},
}

func init() {
	estimateCmd.Flags().StringVar(&estimateInput, "input", "", "company file to estimate")
	estimateCmd.Flags().IntVar(&estimateCount, "count", 0, "number of companies (when no --input)")
	estimateCmd.Flags().StringVar(&estimateModel, "model", "", "model id (default from config)")
	estimateCmd.Flags().IntVar(&estimateLimit, "limit", 0, "only count the first N rows of --input (0 = all)")
	rootCmd.AddCommand(estimateCmd)
}

func printEstimate(cmd *cobra.Command, est cost.Estimate) {
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Companies:      %d\n", est.Companies)
	fmt.Fprintf(w, "Model:          %s\n", est.Model)
	fmt.Fprintf(w, "Input tokens:   %d\n", est.InputTokens)
	fmt.Fprintf(w, "Output tokens:  %d\n", est.OutputTokens)
	if !est.Priced {
		fmt.Fprintln(w, "Estimated cost: unknown (no pricing for model)")
		return
	}
	fmt.Fprintf(w, "Estimated cost: $%.4f\n", est.TotalUSD)
}
