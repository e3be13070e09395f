package commands

import (
	"errors"
	"strconv"

	"github.com/josephlewis42/jsh/core/env"
	"github.com/josephlewis42/jsh/core/job"
)

// jobControl returns the shell's job control or reports that there is none.
func jobControl(inv *Invocation) JobControl {
	jc := inv.Shell.JobControl()
	if jc == nil {
		errorf(inv, "%s: no job control", inv.Args[0])
	}
	return jc
}

func jobs(cmd *SimpleCommand, inv *Invocation) int {
	pidsOnly := cmd.Flags().Bool('p', "list only process group ids")

	return cmd.Run(inv, func([]string) int {
		jc := jobControl(inv)
		if jc == nil {
			return 1
		}
		jc.Jobs(inv.Stdout, *pidsOnly)
		return 0
	})
}

func jobRef(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func reportJobError(inv *Invocation, err error) int {
	if errors.Is(err, job.ErrNoSuchJob) {
		errorf(inv, "%s: no such job", inv.Args[0])
	} else {
		errorf(inv, "%s: %v", inv.Args[0], err)
	}
	return 1
}

func fg(cmd *SimpleCommand, inv *Invocation) int {
	return cmd.Run(inv, func(args []string) int {
		jc := jobControl(inv)
		if jc == nil {
			return 1
		}
		if err := jc.Foreground(jobRef(args)); err != nil {
			return reportJobError(inv, err)
		}

		// The job's own status, which finishing it propagated.
		code, _ := strconv.Atoi(inv.Shell.Env().Getenv(env.Status))
		return code
	})
}

func bg(cmd *SimpleCommand, inv *Invocation) int {
	return cmd.Run(inv, func(args []string) int {
		jc := jobControl(inv)
		if jc == nil {
			return 1
		}
		if err := jc.Background(jobRef(args)); err != nil {
			return reportJobError(inv, err)
		}
		return 0
	})
}

func init() {
	mustAddBuiltin(&Builtin{
		Name:  "jobs",
		Use:   "jobs [-p]",
		Short: "Display the status of jobs.",
		Arity: Arity{Min: 0, Max: 0},
		Main:  jobs,
	})
	mustAddBuiltin(&Builtin{
		Name:  "fg",
		Use:   "fg [JOB]",
		Short: "Move a job to the foreground.",
		Arity: Arity{Min: 0, Max: 1},
		Main:  fg,
	})
	mustAddBuiltin(&Builtin{
		Name:  "bg",
		Use:   "bg [JOB]",
		Short: "Resume a stopped job in the background.",
		Arity: Arity{Min: 0, Max: 1},
		Main:  bg,
	})
}
