package cmd

import (
	"os"

	"github.com/josephlewis42/jsh/core"
	"github.com/josephlewis42/jsh/core/config"
	"github.com/josephlewis42/jsh/core/logger"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// BuiltinCommand is the hidden subcommand pipelines use to run a builtin in a
// process of its own.
const BuiltinCommand = "__builtin"

var (
	cfgPath     string
	commandLine string
)

func loadConfig() (*config.Configuration, error) {
	return config.Load(afero.NewOsFs(), cfgPath)
}

// trampoline is the argument prefix that re-executes this binary as a
// builtin stage.
func trampoline() []string {
	exe, err := os.Executable()
	if err != nil {
		return nil
	}
	return []string{exe, BuiltinCommand}
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "jsh",
	Short: "A job control shell",
	Long: `An interactive shell with pipelines, redirections and job control.

Without -c, jsh reads commands from the terminal.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		configuration, err := loadConfig()
		if err != nil {
			return err
		}

		log, closeLog, err := logger.New(configuration)
		if err != nil {
			return err
		}
		defer closeLog()

		runOne := cmd.Flags().Changed("command")
		sh := core.NewShell(core.Options{
			Config:      configuration,
			Environ:     os.Environ(),
			Trampoline:  trampoline(),
			Logger:      log,
			Interactive: !runOne && term.IsTerminal(int(os.Stdin.Fd())),
		})

		var code int
		if runOne {
			code = sh.RunLine(commandLine)
		} else if code, err = sh.Run(); err != nil {
			log.Error("shell failed", zap.Error(err))
			return err
		}

		closeLog()
		os.Exit(code)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultDir(), "config directory")
	rootCmd.Flags().StringVarP(&commandLine, "command", "c", "", "run a single command line and exit")
}
