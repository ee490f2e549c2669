package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/upb/genai-gateway/config"
	"github.com/upb/genai-gateway/services/costing"
)

func newEstimateCmd() *cobra.Command {
	var (
		provider string
		prompt   string
		output   string
	)

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate tokens and cost for a prompt without calling a provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			catalog, err := config.LoadCatalog(cfg)
			if err != nil {
				return err
			}

			var pricing config.TokenPricing
			switch provider {
			case "azure":
				pricing = catalog.Azure.Pricing
			case "bedrock":
				pricing = catalog.Bedrock.Pricing
			default:
				return fmt.Errorf("unknown provider %q (use azure or bedrock)", provider)
			}

			est := costing.New(nil).Estimate(costing.Pricing{
				InputPer1K:  pricing.InputPer1K,
				OutputPer1K: pricing.OutputPer1K,
			}, prompt, output)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Provider:\t%s\n", provider)
			fmt.Fprintf(w, "Input tokens (est):\t%d\n", est.InputTokensEst)
			fmt.Fprintf(w, "Output tokens (est):\t%d\n", est.OutputTokensEst)
			fmt.Fprintf(w, "Total tokens (est):\t%d\n", est.TotalTokensEst)
			fmt.Fprintf(w, "Cost (est USD):\t%.6f\n", est.CostEstUSD)
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "azure", "provider pricing to use (azure or bedrock)")
	cmd.Flags().StringVar(&prompt, "prompt", "", "prompt text to estimate")
	cmd.Flags().StringVar(&output, "output", "", "expected output text (optional)")
	_ = cmd.MarkFlagRequired("prompt")

	return cmd
}
