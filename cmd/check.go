package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mi-ops/ovirt-inventory/internal/config"
	"github.com/mi-ops/ovirt-inventory/internal/exit"
	"github.com/mi-ops/ovirt-inventory/internal/ipselect"
	"github.com/mi-ops/ovirt-inventory/internal/output"
)

func newCheckCmd() *cobra.Command {
	var outputMode string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration without contacting any engine",
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := output.ParseMode(outputMode)
			if err != nil {
				return exit.New(1, err)
			}

			store, err := loadStore()
			if err != nil {
				return exit.New(1, err)
			}

			problems := collectProblems(store)
			if err := output.RenderProblems(problems, mode); err != nil {
				return exit.New(1, err)
			}
			if len(problems) > 0 {
				return exit.New(1, fmt.Errorf("%d configuration problem(s)", len(problems)))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&outputMode, "output", "table", "output format: table|json|yaml")

	return cmd
}

// collectProblems resolves every section and compiles its IP selection
// policy, turning each failure into a finding.
func collectProblems(store *config.Store) []output.Problem {
	var problems []output.Problem
	for _, name := range store.DatacenterNames() {
		dc, err := store.Datacenter(name)
		if err != nil {
			problems = append(problems, problemFor(name, err))
			continue
		}
		if _, err := (ipselect.Policy{NICName: dc.NICName, IPRegex: dc.IPRegex}).Compile(); err != nil {
			problems = append(problems, output.Problem{
				Datacenter: name,
				Option:     config.OptIPRegex,
				Message:    err.Error(),
			})
		}
	}
	return problems
}

func problemFor(name string, err error) output.Problem {
	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		return output.Problem{Datacenter: name, Option: cfgErr.Option, Message: cfgErr.Error()}
	}
	return output.Problem{Datacenter: name, Message: err.Error()}
}
