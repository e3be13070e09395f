package commands

import (
	"fmt"
	"io"
	"sort"
	"syscall"

	"github.com/fatih/color"
	"github.com/josephlewis42/jsh/core/job"
	getopt "github.com/pborman/getopt/v2"
)

// Env is the part of the shell environment builtins read and change.
type Env interface {
	Getenv(key string) string
	LookupEnv(key string) (string, bool)
	Setenv(key, value string)
	Unsetenv(key string)
	Environ() []string
	Getwd() string
}

// JobControl is implemented by *job.Control.
type JobControl interface {
	Jobs(w io.Writer, pidsOnly bool)
	Foreground(ref string) error
	Background(ref string) error
	Signal(ref string, sig syscall.Signal) error
}

// Shell is what a builtin can see of the shell running it.
type Shell interface {
	Env() Env

	// JobControl is nil when the builtin runs outside the interactive shell,
	// e.g. as a pipeline stage.
	JobControl() JobControl

	// Exit asks the shell to quit once the current line finishes.
	Exit(code int)

	// Resolve looks up a command the same way the shell runs it.
	Resolve(name string) (path string, builtin bool, err error)

	// History returns the lines read so far, oldest first.
	History() []string
	ClearHistory()
}

// Invocation is one run of a builtin.
type Invocation struct {
	Shell  Shell
	Args   []string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Arity bounds the number of positional arguments a builtin accepts after
// its options. Max < 0 means unbounded.
type Arity struct {
	Min int
	Max int
}

// Accepts reports whether n positional arguments are allowed.
func (a Arity) Accepts(n int) bool {
	return n >= a.Min && (a.Max < 0 || n <= a.Max)
}

// Any accepts any number of arguments.
var Any = Arity{Min: 0, Max: -1}

// BuiltinFunc is the body of a builtin. It declares its options on cmd and
// hands its work to cmd.Run.
type BuiltinFunc func(cmd *SimpleCommand, inv *Invocation) int

// Builtin is a command run by the shell itself.
type Builtin struct {
	Name  string
	Use   string
	Short string
	Arity Arity
	Main  BuiltinFunc
}

// Run invokes the builtin with a fresh option set.
func (b *Builtin) Run(inv *Invocation) int {
	cmd := &SimpleCommand{
		Use:   b.Use,
		Short: b.Short,
		Arity: b.Arity,
	}
	return b.Main(cmd, inv)
}

// AllBuiltins holds every registered builtin by name.
var AllBuiltins = make(map[string]*Builtin)

func mustAddBuiltin(b *Builtin) {
	if _, ok := AllBuiltins[b.Name]; ok {
		panic(fmt.Sprintf("builtin %q registered twice", b.Name))
	}
	AllBuiltins[b.Name] = b
}

// ListBuiltins returns every builtin sorted by name.
func ListBuiltins() []*Builtin {
	out := make([]*Builtin, 0, len(AllBuiltins))
	for _, b := range AllBuiltins {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// IsBuiltin reports whether name is a builtin.
func IsBuiltin(name string) bool {
	_, ok := AllBuiltins[name]
	return ok
}

// Set dispatches builtins for the job core on behalf of a shell.
type Set struct {
	Shell Shell
}

var _ job.BuiltinSet = Set{}

// IsBuiltin implements job.BuiltinSet.
func (s Set) IsBuiltin(name string) bool {
	return IsBuiltin(name)
}

// RunBuiltin implements job.BuiltinSet.
func (s Set) RunBuiltin(name string, args []string, stdio job.Stdio) int {
	b, ok := AllBuiltins[name]
	if !ok {
		fmt.Fprintf(stdio.Stderr, "%s: not a builtin\n", name)
		return 127
	}
	return b.Run(&Invocation{
		Shell:  s.Shell,
		Args:   args,
		Stdin:  stdio.Stdin,
		Stdout: stdio.Stdout,
		Stderr: stdio.Stderr,
	})
}

// SimpleCommand parses the options and checks the arity of a builtin.
type SimpleCommand struct {
	// Use holds a one line usage string.
	Use string
	// Short holds a one line description of the command.
	Short string
	// Arity bounds the positional arguments.
	Arity Arity
	// ShowHelp sets whether help is displayed or not.
	// If this is non-nil when Run() is called, then the default help flag isn't
	// added.
	ShowHelp *bool

	flags *getopt.Set
}

// Flags gets the command's flag set.
func (s *SimpleCommand) Flags() *getopt.Set {
	if s.flags == nil {
		s.flags = getopt.New()
	}

	return s.flags
}

// PrintHelp writes help for the command to the given writer.
func (s *SimpleCommand) PrintHelp(w io.Writer) {
	fmt.Fprint(w, "usage: ")
	fmt.Fprintln(w, s.Use)
	fmt.Fprintln(w, s.Short)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	s.Flags().PrintOptions(w)
}

// Run parses the invocation's options and, if they and the number of
// remaining arguments are valid, calls the callback with the positional
// arguments.
func (s *SimpleCommand) Run(inv *Invocation, callback func(args []string) int) int {
	opts := s.Flags()

	// Add help flag if not overridden.
	if s.ShowHelp == nil {
		s.ShowHelp = opts.BoolLong("help", 'h', "show this help and exit")
	}

	name := "builtin"
	if len(inv.Args) > 0 {
		name = inv.Args[0]
	}

	if err := opts.Getopt(inv.Args, nil); err != nil {
		errorf(inv, "%s: %s", name, err)
		fmt.Fprintf(inv.Stderr, "usage: %s\n", s.Use)
		return 1
	}

	if *s.ShowHelp {
		s.PrintHelp(inv.Stdout)
		return 0
	}

	args := opts.Args()
	if !s.Arity.Accepts(len(args)) {
		errorf(inv, "%s: Invalid number of arguments.", name)
		return 1
	}

	return callback(args)
}

var (
	ColorBoldBlue  = color.New(color.FgBlue, color.Bold)
	ColorBoldGreen = color.New(color.FgGreen, color.Bold)
	ColorBoldRed   = color.New(color.FgRed, color.Bold)
)

// errorf writes a red error line to the invocation's stderr.
func errorf(inv *Invocation, format string, a ...interface{}) {
	ColorBoldRed.Fprintf(inv.Stderr, format, a...)
	fmt.Fprintln(inv.Stderr)
}
