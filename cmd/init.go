package cmd

import (
	"fmt"

	"github.com/josephlewis42/jsh/core/config"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// initCmd writes the default configuration
var initCmd = &cobra.Command{
	Use:   "init [DIR]",
	Short: "Write the default configuration to DIR or the --config directory.",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		dir := cfgPath
		if len(args) == 1 {
			dir = args[0]
		}

		created, err := config.Initialize(afero.NewOsFs(), dir)
		if err != nil {
			return err
		}
		if len(created) == 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "Configuration already exists in %s\n", dir)
		}
		for _, path := range created {
			fmt.Fprintf(cmd.ErrOrStderr(), "Created %s\n", path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
