package commands

import (
	"fmt"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
)

// parseSignal accepts a signal number or a name with or without the SIG
// prefix.
func parseSignal(spec string) (syscall.Signal, error) {
	if n, err := strconv.Atoi(spec); err == nil && n > 0 {
		return syscall.Signal(n), nil
	}

	name := strings.ToUpper(spec)
	if !strings.HasPrefix(name, "SIG") {
		name = "SIG" + name
	}
	if sig := unix.SignalNum(name); sig != 0 {
		return sig, nil
	}
	return 0, fmt.Errorf("%s: invalid signal specification", spec)
}

func kill(cmd *SimpleCommand, inv *Invocation) int {
	opts := cmd.Flags()
	sigSpec := opts.StringLong("signal", 's', "TERM", "signal to send, by name or number")
	list := opts.Bool('l', "list signal names")

	return cmd.Run(inv, func(args []string) int {
		if *list {
			for sig := syscall.Signal(1); sig < 32; sig++ {
				if name := unix.SignalName(sig); name != "" {
					fmt.Fprintf(inv.Stdout, "%2d) %s\n", int(sig), name)
				}
			}
			return 0
		}

		if len(args) == 0 {
			errorf(inv, "kill: Invalid number of arguments.")
			return 1
		}

		sig, err := parseSignal(*sigSpec)
		if err != nil {
			errorf(inv, "kill: %v", err)
			return 1
		}

		jc := jobControl(inv)
		if jc == nil {
			return 1
		}

		code := 0
		for _, target := range args {
			if err := jc.Signal(target, sig); err != nil {
				reportJobError(inv, err)
				code = 1
			}
		}
		return code
	})
}

func init() {
	mustAddBuiltin(&Builtin{
		Name:  "kill",
		Use:   "kill [-s SIGNAL] JOB|PID ... or kill -l",
		Short: "Send a signal to a job.",
		Arity: Any,
		Main:  kill,
	})
}
