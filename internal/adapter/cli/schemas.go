package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fairyhunter13/resume-matcher/internal/domain"
	"github.com/fairyhunter13/resume-matcher/internal/pipeline"
)

func newSchemasCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schemas",
		Short: "List the completion schemas and their policies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := pipeline.DefaultRegistry()
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "SCHEMA\tSHAPE\tFALLBACK\tTEMPERATURE\tMAX_TOKENS")
			for _, id := range domain.AllSchemas {
				pol, err := reg.Policy(id)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\t%t\t%.1f\t%d\n", pol.ID, pol.Shape, pol.AllowFallback, pol.Temperature, pol.MaxTokens)
			}
			return tw.Flush()
		},
	}
}
