package commands

import "fmt"

func help(cmd *SimpleCommand, inv *Invocation) int {
	return cmd.Run(inv, func(args []string) int {
		if len(args) == 1 {
			b, ok := AllBuiltins[args[0]]
			if !ok {
				errorf(inv, "help: no help topics match '%s'", args[0])
				return 1
			}
			return b.Run(&Invocation{
				Shell:  inv.Shell,
				Args:   []string{b.Name, "--help"},
				Stdin:  inv.Stdin,
				Stdout: inv.Stdout,
				Stderr: inv.Stderr,
			})
		}

		w := inv.Stdout
		fmt.Fprintln(w, "These shell commands are defined internally.  Type `help' to see this list.")
		fmt.Fprintln(w, "Type `help name' to find out more about the function `name'.")
		fmt.Fprintln(w)
		for _, b := range ListBuiltins() {
			fmt.Fprintf(w, "  %-8s %s\n", b.Name, b.Short)
		}
		return 0
	})
}

func history(cmd *SimpleCommand, inv *Invocation) int {
	clear := cmd.Flags().Bool('c', "clear the history by deleting all entries")

	return cmd.Run(inv, func([]string) int {
		if *clear {
			inv.Shell.ClearHistory()
			return 0
		}

		for i, line := range inv.Shell.History() {
			fmt.Fprintf(inv.Stdout, "% 5d  %s\n", i+1, line)
		}
		return 0
	})
}

func init() {
	mustAddBuiltin(&Builtin{
		Name:  "help",
		Use:   "help [NAME]",
		Short: "Display information about builtin commands.",
		Arity: Arity{Min: 0, Max: 1},
		Main:  help,
	})
	mustAddBuiltin(&Builtin{
		Name:  "history",
		Use:   "history [-c]",
		Short: "Display or clear the history list.",
		Arity: Arity{Min: 0, Max: 0},
		Main:  history,
	})
}
