package commands

import "fmt"

func typeCmd(cmd *SimpleCommand, inv *Invocation) int {
	return cmd.Run(inv, func(args []string) int {
		name := args[0]

		path, builtin, err := inv.Shell.Resolve(name)
		switch {
		case err != nil:
			errorf(inv, "type: %s: not found", name)
			return 1
		case builtin:
			fmt.Fprintf(inv.Stdout, "%s is a shell builtin\n", name)
		default:
			fmt.Fprintln(inv.Stdout, path)
		}
		return 0
	})
}

func init() {
	mustAddBuiltin(&Builtin{
		Name:  "type",
		Use:   "type NAME",
		Short: "Display what the shell runs for a command name.",
		Arity: Arity{Min: 1, Max: 1},
		Main:  typeCmd,
	})
}
