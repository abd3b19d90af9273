package cmd

import (
	"github.com/spf13/cobra"

	"github.com/mi-ops/ovirt-inventory/internal/exit"
	"github.com/mi-ops/ovirt-inventory/internal/output"
)

func newDatacentersCmd() *cobra.Command {
	var outputMode string

	cmd := &cobra.Command{
		Use:   "datacenters",
		Short: "List the configured datacenters",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := output.ParseMode(outputMode)
			if err != nil {
				return exit.New(1, err)
			}

			store, err := loadStore()
			if err != nil {
				return exit.New(1, err)
			}

			names := store.DatacenterNames()
			summaries := make([]output.DatacenterSummary, 0, len(names))
			for _, name := range names {
				dc, err := store.Datacenter(name)
				if err != nil {
					return exit.New(1, err)
				}
				summaries = append(summaries, output.SummarizeDatacenter(dc))
			}

			if err := output.RenderDatacenters(summaries, mode); err != nil {
				return exit.New(1, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outputMode, "output", "table", "output format: table|json|yaml")

	return cmd
}
