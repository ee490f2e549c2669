package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/upb/genai-gateway/config"
	"github.com/upb/genai-gateway/models"
	"github.com/upb/genai-gateway/repositories"
)

func newUsageCmd() *cobra.Command {
	var (
		requestID string
		limit     int
		summary   bool
	)

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Show recorded usage from the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			store, err := repositories.NewStore(cfg, zap.NewNop())
			if err != nil {
				return fmt.Errorf("open usage store: %w", err)
			}
			defer func() { _ = store.Close() }()

			ctx := context.Background()

			if summary {
				summaries, err := store.Summarize(ctx)
				if err != nil {
					return err
				}
				if len(summaries) == 0 {
					fmt.Println("No usage data found.")
					return nil
				}
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "PROVIDER\tMODEL\tREQUESTS\tSUCCESSES\tTOKENS\tCOST (USD)")
				for _, s := range summaries {
					fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%d\t%.6f\n",
						s.Provider, s.Model, s.Requests, s.Successes, s.TotalTokensEst, s.CostEstUSD)
				}
				return w.Flush()
			}

			var records []*models.UsageRecord
			if requestID != "" {
				records, err = store.GetByRequestID(ctx, requestID)
			} else {
				records, err = store.List(ctx, limit)
			}
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("No usage records found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TIME\tREQUEST ID\tPROVIDER\tMODEL\tTASK\tTOKENS\tCOST (USD)\tLATENCY\tSTATUS")
			for _, r := range records {
				status := "ok"
				if !r.Success {
					status = "failed"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\t%.6f\t%dms\t%s\n",
					r.Timestamp.Format("2006-01-02T15:04:05"), r.RequestID, r.Provider, r.Model,
					r.Task, r.TotalTokensEst, r.CostEstUSD, r.LatencyMs, status)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&requestID, "request-id", "", "show records for one request")
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum records to show")
	cmd.Flags().BoolVar(&summary, "summary", false, "aggregate per provider and model")

	return cmd
}
