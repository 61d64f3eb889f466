package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/m1227sasaki/company-enrichment/internal/model"
)

var (
	resolveName      string
	resolveID        string
	resolveEmployees string
	resolveNoCache   bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve the official website for a single company",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initEnv(ctx, "resolve")
		if err != nil {
			return err
		}
		defer env.Close()

		query := model.CompanyQuery{
			ID:                resolveID,
			Name:              resolveName,
			EmployeeCountHint: resolveEmployees,
		}

		var resolution model.Resolution
		if resolveNoCache {
			resolution, err = env.Resolver.Resolve(ctx, query)
			if err != nil {
				return eris.Wrap(err, "resolve")
			}
		} else {
			summary, runErr := env.Runner.Run(ctx, []model.CompanyQuery{query})
			if runErr != nil {
				return eris.Wrap(runErr, "resolve")
			}
			result, ok := summary.Results[query.ID]
			if !ok {
				for _, r := range summary.Results {
					result = r
				}
			}
			if result.Err != nil {
				return eris.Wrap(result.Err, "resolve")
			}
			resolution = result.Resolution
		}

		zap.L().Info("resolution complete",
			zap.String("company", query.Name),
			zap.String("url", resolution.URL),
			zap.String("method", string(resolution.Method)),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(resolution)
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveName, "name", "", "company name (required)")
	resolveCmd.Flags().StringVar(&resolveID, "id", "", "company identifier for the run record")
	resolveCmd.Flags().StringVar(&resolveEmployees, "employees", "", "employee count hint for search context")
	resolveCmd.Flags().BoolVar(&resolveNoCache, "no-cache", false, "bypass the resolution cache and run record")
	_ = resolveCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(resolveCmd)
}
