package core

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/fatih/color"
	"github.com/josephlewis42/jsh/commands"
	"github.com/josephlewis42/jsh/core/config"
	"github.com/josephlewis42/jsh/core/env"
	"github.com/josephlewis42/jsh/core/job"
	"github.com/josephlewis42/jsh/core/shell"
	"go.uber.org/zap"
	"golang.org/x/term"
)

// StatusInterrupted is the last status after ^C at the prompt.
const StatusInterrupted = 130

// Options configures a Shell.
type Options struct {
	Config *config.Configuration

	// Environ is the initial environment as KEY=VALUE pairs.
	Environ []string

	// Standard streams; nil means the process's own.
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File

	// Trampoline re-executes the binary to run a builtin as a pipeline stage.
	Trampoline []string

	Logger *zap.Logger

	// Interactive enables job control: the shell takes the terminal and
	// catches the job control signals.
	Interactive bool
}

// Shell reads command lines and runs them as jobs.
type Shell struct {
	cfg  *config.Configuration
	vars *env.MapEnv
	log  *zap.Logger

	stdin  *os.File
	stdout *os.File
	stderr *os.File

	control     *job.Control
	interactive bool

	readline *readline.Instance
	history  []string

	exited   bool
	exitCode int
}

var _ commands.Shell = (*Shell)(nil)

// NewShell creates a shell. Nothing touches the terminal until Run.
func NewShell(opts Options) *Shell {
	s := &Shell{
		cfg:         opts.Config,
		vars:        env.FromList(opts.Environ),
		log:         opts.Logger,
		stdin:       opts.Stdin,
		stdout:      opts.Stdout,
		stderr:      opts.Stderr,
		interactive: opts.Interactive,
	}

	if s.cfg == nil {
		s.cfg = config.Default()
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.stdin == nil {
		s.stdin = os.Stdin
	}
	if s.stdout == nil {
		s.stdout = os.Stdout
	}
	if s.stderr == nil {
		s.stderr = os.Stderr
	}

	s.initEnv()
	// Builtins share the package level colors.
	color.NoColor = !s.cfg.ShouldColor(term.IsTerminal(int(s.stdout.Fd())))

	jobOpts := job.Options{
		Stdin:      s.stdin,
		Stdout:     s.stdout,
		Stderr:     s.stderr,
		Env:        s.vars,
		Builtins:   commands.Set{Shell: s},
		Trampoline: opts.Trampoline,
		Logger:     s.log,
	}
	if !s.interactive {
		jobOpts.Terminal = job.NewTerminal(nil, s.log)
	}
	s.control = job.NewControl(jobOpts)

	return s
}

// initEnv fills in the variables a login would.
func (s *Shell) initEnv() {
	if _, ok := s.vars.LookupEnv(env.Path); !ok && s.cfg.Path != "" {
		s.vars.Setenv(env.Path, s.cfg.Path)
	}
	if _, ok := s.vars.LookupEnv(env.Home); !ok {
		if home, err := os.UserHomeDir(); err == nil {
			s.vars.Setenv(env.Home, home)
		}
	}
	if wd, err := os.Getwd(); err == nil {
		s.vars.Setenv(env.PWD, wd)
	}
}

// Env implements commands.Shell.
func (s *Shell) Env() commands.Env {
	return s.vars
}

// JobControl implements commands.Shell.
func (s *Shell) JobControl() commands.JobControl {
	return s.control
}

// Exit implements commands.Shell.
func (s *Shell) Exit(code int) {
	s.exited = true
	s.exitCode = code
}

// Exited reports whether exit was called and with which status.
func (s *Shell) Exited() (code int, ok bool) {
	return s.exitCode, s.exited
}

// Resolve implements commands.Shell.
func (s *Shell) Resolve(name string) (string, bool, error) {
	return s.control.Spawner().Resolve(name)
}

// History implements commands.Shell.
func (s *Shell) History() []string {
	return append([]string(nil), s.history...)
}

// ClearHistory implements commands.Shell.
func (s *Shell) ClearHistory() {
	s.history = nil
	if s.readline != nil {
		s.readline.ResetHistory()
	}
}

// Control returns the job-control context.
func (s *Shell) Control() *job.Control {
	return s.control
}

// Prompt renders the primary prompt: the working directory followed by $PS1,
// or the configured prompt if PS1 isn't set.
func (s *Shell) Prompt() string {
	ps1, ok := s.vars.LookupEnv(env.PS1)
	if !ok {
		ps1 = s.cfg.Prompt
	}
	return commands.ColorBoldBlue.Sprint(s.displayDir()) + " " + commands.ColorBoldGreen.Sprint(ps1)
}

// ContinuationPrompt renders the prompt shown after a line ending in \.
func (s *Shell) ContinuationPrompt() string {
	ps2, ok := s.vars.LookupEnv(env.PS2)
	if !ok {
		ps2 = s.cfg.ContinuationPrompt
	}
	return commands.ColorBoldGreen.Sprint(ps2)
}

func (s *Shell) displayDir() string {
	pwd := s.vars.Getwd()
	home := s.vars.Getenv(env.Home)
	switch {
	case home == "" || home == "/":
		return pwd
	case pwd == home:
		return "~"
	case strings.HasPrefix(pwd, home+"/"):
		return "~" + strings.TrimPrefix(pwd, home)
	default:
		return pwd
	}
}

// errorf writes a red error line to stderr.
func (s *Shell) errorf(format string, a ...interface{}) {
	commands.ColorBoldRed.Fprintf(s.stderr, "jsh: "+format, a...)
	fmt.Fprintln(s.stderr)
}

// RunLine reports finished background jobs, then parses and runs one line.
// It returns the line's exit status.
func (s *Shell) RunLine(line string) int {
	s.control.Drain(true)

	p, err := shell.Parse(line, s.vars)
	if err != nil {
		var syntaxErr *shell.SyntaxError
		if errors.As(err, &syntaxErr) {
			s.errorf("%v", syntaxErr)
			fmt.Fprintln(s.stderr, syntaxErr.Caret())
		} else {
			s.errorf("%v", err)
		}
		s.vars.SetLastStatus(2)
		return 2
	}

	s.log.Debug("run", zap.String("line", p.CommandLine), zap.Int("stages", len(p.Stages)), zap.Bool("background", p.Background))
	if err := s.control.Run(p); err != nil {
		s.errorf("%v", err)
		s.log.Info("job failed", zap.String("line", p.CommandLine), zap.Error(err))
	}
	return s.vars.LastStatus()
}

// Run is the interactive prompt loop. It returns the status to exit with once
// exit is called or input ends.
func (s *Shell) Run() (int, error) {
	if err := s.control.Init(s.interactive); err != nil {
		return 1, err
	}
	defer s.control.Close()

	// Raw mode follows the shell's stdin rather than the process's fd 0.
	stdinFd := int(s.stdin.Fd())
	var rawState *term.State

	rl, err := readline.NewEx(&readline.Config{
		Prompt:                 s.Prompt(),
		HistoryFile:            s.cfg.HistoryPath(),
		DisableAutoSaveHistory: true,
		Stdin:                  readline.NewCancelableStdin(s.stdin),
		Stdout:                 s.stdout,
		Stderr:                 s.stderr,
		FuncIsTerminal: func() bool {
			return term.IsTerminal(stdinFd) && term.IsTerminal(int(s.stdout.Fd()))
		},
		FuncMakeRaw: func() error {
			if !term.IsTerminal(stdinFd) {
				return nil
			}
			state, err := term.MakeRaw(stdinFd)
			if err != nil {
				return err
			}
			rawState = state
			return nil
		},
		FuncExitRaw: func() error {
			if rawState == nil {
				return nil
			}
			err := term.Restore(stdinFd, rawState)
			rawState = nil
			return err
		},
		// The shell never stops itself on ^Z.
		FuncFilterInputRune: func(r rune) (rune, bool) {
			return r, r != readline.CharCtrlZ
		},
	})
	if err != nil {
		return 1, err
	}
	s.readline = rl
	defer func() {
		s.readline = nil
		rl.Close()
	}()

	s.log.Info("shell started", zap.Int("pid", os.Getpid()), zap.Bool("interactive", s.interactive))

	var pending []string
	for !s.exited {
		if len(pending) == 0 {
			rl.SetPrompt(s.Prompt())
		} else {
			rl.SetPrompt(s.ContinuationPrompt())
		}

		line, err := rl.Readline()
		switch {
		case err == readline.ErrInterrupt:
			pending = nil
			s.vars.SetLastStatus(StatusInterrupted)
			continue
		case err == io.EOF:
			s.Exit(s.vars.LastStatus())
			continue
		case err != nil:
			return 1, err
		}

		if continues(line) {
			pending = append(pending, line[:len(line)-1])
			continue
		}
		line = strings.Join(append(pending, line), "")
		pending = nil

		if strings.TrimSpace(line) == "" {
			s.control.Drain(true)
			continue
		}

		s.addHistory(line)
		s.RunLine(line)
	}

	if s.interactive {
		s.control.Hangup()
	}
	s.log.Info("shell exited", zap.Int("status", s.exitCode))
	return s.exitCode, nil
}

func (s *Shell) addHistory(line string) {
	s.history = append(s.history, line)
	if s.readline == nil {
		return
	}
	if err := s.readline.SaveHistory(line); err != nil {
		s.log.Warn("save history", zap.Error(err))
	}
}

// continues reports whether line ends in an unescaped backslash.
func continues(line string) bool {
	n := 0
	for i := len(line) - 1; i >= 0 && line[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}
