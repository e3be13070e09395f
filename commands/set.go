package commands

import (
	"fmt"
	"strings"
)

// set lists the variables, unsets one or assigns one.
func set(cmd *SimpleCommand, inv *Invocation) int {
	return cmd.Run(inv, func(args []string) int {
		vars := inv.Shell.Env()

		switch len(args) {
		case 0:
			for _, kv := range vars.Environ() {
				fmt.Fprintln(inv.Stdout, strings.Replace(kv, "=", " ", 1))
			}
		case 1:
			vars.Unsetenv(args[0])
		default:
			vars.Setenv(args[0], args[1])
		}
		return 0
	})
}

func unset(cmd *SimpleCommand, inv *Invocation) int {
	return cmd.Run(inv, func(args []string) int {
		for _, name := range args {
			inv.Shell.Env().Unsetenv(name)
		}
		return 0
	})
}

func init() {
	mustAddBuiltin(&Builtin{
		Name:  "set",
		Use:   "set [NAME [VALUE]]",
		Short: "List, unset or assign shell variables.",
		Arity: Arity{Min: 0, Max: 2},
		Main:  set,
	})
	mustAddBuiltin(&Builtin{
		Name:  "unset",
		Use:   "unset NAME...",
		Short: "Unset shell variables.",
		Arity: Arity{Min: 1, Max: -1},
		Main:  unset,
	})
}
