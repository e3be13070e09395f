package job

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownCommand is returned when a pipeline stage names a program that
	// is neither a builtin nor found on the search path.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrNoSuchJob is returned when fg/bg target a job that isn't in the table.
	ErrNoSuchJob = errors.New("no such job")

	// ErrJobTerminated is returned when resuming a job that already finished.
	ErrJobTerminated = errors.New("job has terminated")
)

// SpawnError wraps a failure to fork or exec a pipeline stage.
type SpawnError struct {
	Program string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("%s: %v", e.Program, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}
