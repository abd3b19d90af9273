package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mi-ops/ovirt-inventory/internal/config"
	"github.com/mi-ops/ovirt-inventory/internal/exit"
	"github.com/mi-ops/ovirt-inventory/internal/inventory"
	"github.com/mi-ops/ovirt-inventory/internal/output"
	"github.com/mi-ops/ovirt-inventory/internal/ovirt"
)

// configEnvVar names the environment variable consulted when --config is
// not given, matching the convention of Ansible's oVirt inventory scripts.
const configEnvVar = "OVIRT_INI_PATH"

const defaultConfigName = "ovirt.ini"

var (
	configPath string
	verbose    bool
)

func NewRootCmd() *cobra.Command {
	var (
		list   bool
		host   string
		pretty bool
	)

	cmd := &cobra.Command{
		Use:           "ovirt-inventory",
		Short:         "Ansible dynamic inventory for tagged oVirt virtual machines",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// --list is the protocol default; the flag exists so Ansible
			// can pass it explicitly.
			_ = list

			store, err := loadStore()
			if err != nil {
				return exit.New(1, err)
			}

			builder := inventory.NewBuilder(store, connectDatacenter)
			if verbose {
				builder.Verbose = os.Stderr
			}

			doc, err := builder.Build(context.Background())
			if err != nil {
				return exit.New(exitCodeFor(err), err)
			}

			var payload any = doc
			if host != "" {
				vars, ok := doc.LookupHost(host)
				if ok {
					payload = vars
				} else {
					payload = map[string]any{}
				}
			}

			if err := output.EmitInventory(payload, pretty); err != nil {
				return exit.New(1, err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&list, "list", true, "emit the full inventory")
	cmd.Flags().StringVar(&host, "host", "", "emit the variables of a single host")
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "path to the configuration file")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "write progress details to stderr")

	cmd.AddCommand(newDatacentersCmd())
	cmd.AddCommand(newCheckCmd())

	return cmd
}

// loadStore resolves the configuration path (flag, then OVIRT_INI_PATH,
// then ovirt.ini next to the executable) and parses it.
func loadStore() (*config.Store, error) {
	path := resolveConfigPath()
	if verbose {
		fmt.Fprintf(os.Stderr, "config file: %s\n", path)
	}
	return config.Load(path)
}

func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}
	if env := os.Getenv(configEnvVar); env != "" {
		return env
	}
	if executable, err := os.Executable(); err == nil {
		return filepath.Join(filepath.Dir(executable), defaultConfigName)
	}
	return defaultConfigName
}

// connectDatacenter opens the engine client for one configured section. It
// is the production ConnectFunc behind the builder; tests swap in fakes.
func connectDatacenter(ctx context.Context, dc config.Datacenter) (inventory.VMSource, error) {
	return ovirt.Connect(ctx, ovirt.Options{
		URL:      dc.URL,
		Username: dc.Username,
		Password: dc.Password,
		CAFile:   dc.CAFile,
		Insecure: dc.Insecure,
	})
}

func exitCodeFor(err error) int {
	var apiErr *ovirt.APIError
	if errors.As(err, &apiErr) {
		return 2
	}
	return 1
}
