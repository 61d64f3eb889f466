package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/m1227sasaki/company-enrichment/internal/model"
	"github.com/m1227sasaki/company-enrichment/internal/recordio"
	"github.com/m1227sasaki/company-enrichment/internal/runner"
)

var (
	batchInput       string
	batchOutput      string
	batchLimit       int
	batchRetryFailed bool
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Resolve websites for companies from a spreadsheet or CSV",
	Long: `Reads company records (id, name, employees) from an .xlsx or .csv file,
resolves each through the worker pool, and writes the same records plus a
website column to the output CSV.

The first SIGINT stops the pool from starting new companies while letting
in-flight resolutions finish; a second SIGINT cancels them.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		companies, err := recordio.ReadCompanies(batchInput)
		if err != nil {
			return err
		}
		if batchLimit > 0 && batchLimit < len(companies) {
			companies = companies[:batchLimit]
		}
		zap.L().Info("batch input parsed",
			zap.String("path", batchInput),
			zap.Int("companies", len(companies)),
		)

		env, err := initEnv(ctx, "batch")
		if err != nil {
			return err
		}
		defer env.Close()

		// First signal: cooperative stop. Second signal: hard cancel.
		sigCh := make(chan os.Signal, 2)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)
		go func() {
			<-sigCh
			zap.L().Info("stop requested, finishing in-flight companies")
			env.Runner.Stop()
			<-sigCh
			zap.L().Warn("cancelling in-flight companies")
			cancel()
		}()

		summary, runErr := env.Runner.Run(ctx, companies)

		if batchRetryFailed && runErr == nil && summary.Failed > 0 {
			retrySummary, retryErr := env.Runner.Retry(ctx, summary)
			if retryErr != nil {
				runErr = retryErr
			}
			for key, res := range retrySummary.Results {
				summary.Results[key] = res
			}
		}

		if err := recordio.WriteResults(batchOutput, outputRecords(companies, summary)); err != nil {
			return err
		}
		zap.L().Info("batch output written", zap.String("path", batchOutput))

		if runErr != nil {
			return eris.Wrap(runErr, "batch")
		}
		return nil
	},
}

// outputRecords builds one output row per input company in input order.
// Companies the pool never reached (stop or cancel) get Not Available.
func outputRecords(companies []model.CompanyQuery, summary *runner.Summary) []model.OutputRecord {
	records := make([]model.OutputRecord, 0, len(companies))
	for _, c := range companies {
		website := model.NotAvailable

		key := c.ID
		if key == "" {
			key = c.Name
		}
		if res, ok := summary.Results[key]; ok && res.Err == nil && res.Resolution.URL != "" {
			website = res.Resolution.URL
		}

		records = append(records, model.OutputRecord{
			ID:        c.ID,
			Name:      c.Name,
			Employees: c.EmployeeCountHint,
			Website:   website,
		})
	}
	return records
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "path to .xlsx or .csv input file (required)")
	batchCmd.Flags().StringVar(&batchOutput, "output", "resolved.csv", "path to output CSV")
	batchCmd.Flags().IntVar(&batchLimit, "limit", 0, "max companies to process (0 = all)")
	batchCmd.Flags().BoolVar(&batchRetryFailed, "retry-failed", false, "re-run failed companies once after the first pass")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}
