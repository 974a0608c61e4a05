package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the configuration and data directories",
		Long: `Init writes a default config.yaml when none exists and initializes the
storage backend in the data directory. Running it again is harmless.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// setup has already written config.yaml and attached the store.
			configDir := a.resolvedConfigDir
			if a.jsonMode {
				return a.emit(map[string]string{"config_dir": configDir, "data_dir": a.store.DataDir()}, nil)
			}
			_, err := fmt.Fprintf(a.out, "Taskboard initialized\nconfig: %s\ndata:   %s\n", configDir, a.store.DataDir())
			return err
		},
	}
}
