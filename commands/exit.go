package commands

import "strconv"

func exit(cmd *SimpleCommand, inv *Invocation) int {
	return cmd.Run(inv, func(args []string) int {
		code := 0
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				errorf(inv, "exit: %s: numeric argument required", args[0])
				return 2
			}
			code = n & 0xff
		}

		inv.Shell.Exit(code)
		return code
	})
}

func init() {
	mustAddBuiltin(&Builtin{
		Name:  "exit",
		Use:   "exit [N]",
		Short: "Exit the shell with status N.",
		Arity: Arity{Min: 0, Max: 1},
		Main:  exit,
	})
}
