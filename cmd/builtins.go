package cmd

import (
	"fmt"
	"os"

	"github.com/josephlewis42/jsh/commands"
	"github.com/josephlewis42/jsh/core/job"
	"github.com/spf13/cobra"
)

// builtinsCmd lists the shell builtins
var builtinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "Show the builtin commands of the shell.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, b := range commands.ListBuiltins() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", b.Name, b.Short)
		}
		return nil
	},
}

// runBuiltinCmd runs one builtin as a pipeline stage.
var runBuiltinCmd = &cobra.Command{
	Use:                BuiltinCommand + " NAME [ARG]...",
	Hidden:             true,
	DisableFlagParsing: true,
	Args:               cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		code := commands.RunStandalone(commands.NewStandalone(os.Environ()), args, job.Stdio{
			Stdin:  os.Stdin,
			Stdout: os.Stdout,
			Stderr: os.Stderr,
		})
		os.Exit(code)
	},
}

func init() {
	rootCmd.AddCommand(builtinsCmd)
	rootCmd.AddCommand(runBuiltinCmd)
}
