package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/josephlewis42/jsh/core/env"
)

// OldPWD is the directory cd - returns to.
const OldPWD = "OLDPWD"

func cd(cmd *SimpleCommand, inv *Invocation) int {
	return cmd.Run(inv, func(args []string) int {
		vars := inv.Shell.Env()

		dir := vars.Getenv(env.Home)
		printDir := false
		if len(args) == 1 {
			dir = args[0]
		}
		if dir == "-" {
			dir = vars.Getenv(OldPWD)
			printDir = true
		}
		if dir == "" {
			errorf(inv, "cd: no directory given")
			return 1
		}

		if !filepath.IsAbs(dir) {
			dir = filepath.Join(vars.Getwd(), dir)
		}
		dir = filepath.Clean(dir)

		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			errorf(inv, "cd: Directory '%s' does not exist.", dir)
			return 1
		}
		if err := os.Chdir(dir); err != nil {
			errorf(inv, "cd: %v", err)
			return 1
		}

		vars.Setenv(OldPWD, vars.Getwd())
		vars.Setenv(env.PWD, dir)
		if printDir {
			fmt.Fprintln(inv.Stdout, dir)
		}
		return 0
	})
}

func pwd(cmd *SimpleCommand, inv *Invocation) int {
	return cmd.Run(inv, func([]string) int {
		fmt.Fprintln(inv.Stdout, inv.Shell.Env().Getwd())
		return 0
	})
}

func init() {
	mustAddBuiltin(&Builtin{
		Name:  "cd",
		Use:   "cd [DIR]",
		Short: "Change the shell working directory.",
		Arity: Arity{Min: 0, Max: 1},
		Main:  cd,
	})
	mustAddBuiltin(&Builtin{
		Name:  "pwd",
		Use:   "pwd",
		Short: "Print the name of the current working directory.",
		Arity: Arity{Min: 0, Max: 0},
		Main:  pwd,
	})
}
