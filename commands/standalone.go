package commands

import (
	"github.com/josephlewis42/jsh/core/env"
	"github.com/josephlewis42/jsh/core/job"
)

// Standalone is the shell a builtin sees when it runs as a pipeline stage in
// a process of its own: the inherited environment, no job control and no
// history. Exit is a no-op because the stage ends when the builtin returns.
type Standalone struct {
	vars    *env.MapEnv
	spawner *job.Spawner
}

var _ Shell = (*Standalone)(nil)

// NewStandalone creates a Standalone shell from KEY=VALUE pairs.
func NewStandalone(environ []string) *Standalone {
	vars := env.FromList(environ)
	return &Standalone{
		vars:    vars,
		spawner: &job.Spawner{Builtins: Set{}, Env: vars},
	}
}

// Env implements Shell.
func (s *Standalone) Env() Env { return s.vars }

// JobControl implements Shell.
func (s *Standalone) JobControl() JobControl { return nil }

// Exit implements Shell.
func (s *Standalone) Exit(int) {}

// Resolve implements Shell.
func (s *Standalone) Resolve(name string) (string, bool, error) {
	return s.spawner.Resolve(name)
}

// History implements Shell.
func (s *Standalone) History() []string { return nil }

// ClearHistory implements Shell.
func (s *Standalone) ClearHistory() {}

// RunStandalone runs one builtin with the given streams. Like any other
// pipeline stage it reports 0 on success and 1 on failure.
func RunStandalone(s *Standalone, args []string, stdio job.Stdio) int {
	if len(args) == 0 {
		return 1
	}
	builtins := Set{Shell: s}
	if builtins.RunBuiltin(args[0], args, stdio) != 0 {
		return 1
	}
	return 0
}
