package job

import "strings"

// Stream identifies one of the standard streams of a command.
type Stream int

const (
	Stdin Stream = iota
	Stdout
	Stderr
)

// String returns the conventional name of the stream.
func (s Stream) String() string {
	switch s {
	case Stdin:
		return "stdin"
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return "unknown"
	}
}

// Mode is the open mode of a redirection target.
type Mode int

const (
	Read Mode = iota
	WriteTruncate
	WriteAppend
)

// Redirection attaches a stream to a file.
type Redirection struct {
	Path string
	Mode Mode

	// Shared targets are opened once and written through by both stdout and
	// stderr, as &> does.
	Shared bool
}

// CommandSpec is one stage of a pipeline as produced by the parser.
type CommandSpec struct {
	// Program is the command name as typed.
	Program string
	// Argv holds the arguments, not including the program name.
	Argv []string
	// Redirections are applied per stream in slice order, after pipe wiring.
	Redirections map[Stream][]Redirection
}

// Args returns the full argument vector, program name first.
func (c CommandSpec) Args() []string {
	return append([]string{c.Program}, c.Argv...)
}

// Redirect appends a redirection for the stream.
func (c *CommandSpec) Redirect(stream Stream, r Redirection) {
	if c.Redirections == nil {
		c.Redirections = make(map[Stream][]Redirection)
	}
	c.Redirections[stream] = append(c.Redirections[stream], r)
}

// PipelineSpec is a parsed command line.
type PipelineSpec struct {
	Stages     []CommandSpec
	Background bool

	// CommandLine is the text shown by jobs.
	CommandLine string
}

// NewPipeline builds a foreground pipeline from argument vectors, one per
// stage. It's mostly useful for tests and the -c path of simple callers.
func NewPipeline(stages ...[]string) PipelineSpec {
	var out PipelineSpec
	var parts []string
	for _, argv := range stages {
		if len(argv) == 0 {
			continue
		}
		out.Stages = append(out.Stages, CommandSpec{Program: argv[0], Argv: argv[1:]})
		parts = append(parts, strings.Join(argv, " "))
	}
	out.CommandLine = strings.Join(parts, " | ")
	return out
}

// soleBuiltin reports whether the pipeline is a single builtin invocation that
// should run inside the shell process.
func (p PipelineSpec) soleBuiltin(builtins BuiltinSet) bool {
	return len(p.Stages) == 1 && builtins != nil && builtins.IsBuiltin(p.Stages[0].Program)
}
