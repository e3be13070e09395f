package job

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"go.uber.org/zap"
)

// Stdio holds the streams of a builtin running inside the shell.
type Stdio struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// BuiltinSet is the builtin dispatcher.
type BuiltinSet interface {
	IsBuiltin(name string) bool
	// RunBuiltin runs the builtin in the calling process. args includes the
	// builtin name.
	RunBuiltin(name string, args []string, stdio Stdio) int
}

// Environment is the part of the shell environment the job core reads and
// writes.
type Environment interface {
	Environ() []string
	Path() []string
	SetLastStatus(code int)
}

// Spawner starts one process per pipeline stage.
type Spawner struct {
	Builtins BuiltinSet
	Env      Environment

	// Trampoline is the argument vector prefix that re-executes the shell
	// binary to run a builtin as a pipeline stage, e.g.
	// ["/usr/local/bin/jsh", "__builtin"].
	Trampoline []string

	Log *zap.Logger
}

// stageFiles are the streams a stage inherits before its own redirections.
type stageFiles [3]*os.File

// Resolve finds what to run for a program name. Builtins win, then a file
// that exists verbatim, then the search path. Names with a slash are never
// searched for.
func (s *Spawner) Resolve(program string) (path string, builtin bool, err error) {
	if s.Builtins != nil && s.Builtins.IsBuiltin(program) {
		return "", true, nil
	}

	if program != "" && isRegular(program) {
		return program, false, nil
	}
	if strings.Contains(program, "/") {
		return "", false, fmt.Errorf("%w '%s'", ErrUnknownCommand, program)
	}

	if program != "" {
		for _, dir := range s.Env.Path() {
			if dir == "" {
				// Unix shell semantics: path element "" means "."
				dir = "."
			}
			candidate := filepath.Join(dir, program)
			if isRegular(candidate) {
				return candidate, false, nil
			}
		}
	}

	return "", false, fmt.Errorf("%w '%s'", ErrUnknownCommand, program)
}

func isRegular(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Spawn starts cmd in process group pgid, or in a new group led by the child
// when pgid is 0. If ctty is a descriptor the child takes the terminal before
// it execs. The caller keeps ownership of the files in std.
func (s *Spawner) Spawn(cmd CommandSpec, std stageFiles, pgid, ctty int) (int, error) {
	path, builtin, err := s.Resolve(cmd.Program)
	if err != nil {
		return 0, err
	}

	argv := cmd.Args()
	if builtin {
		if len(s.Trampoline) == 0 {
			return 0, &SpawnError{Program: cmd.Program, Err: errors.New("builtin can't run in a pipeline")}
		}
		path = s.Trampoline[0]
		argv = append(append([]string(nil), s.Trampoline...), argv...)
	}

	files, opened, err := openRedirections(cmd, std)
	if err != nil {
		return 0, err
	}
	defer closeAll(opened)

	sys := &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    pgid,
	}
	if ctty >= 0 {
		sys.Foreground = true
		sys.Ctty = ctty
	}

	pid, err := syscall.ForkExec(path, argv, &syscall.ProcAttr{
		Env:   s.Env.Environ(),
		Files: []uintptr{files[Stdin].Fd(), files[Stdout].Fd(), files[Stderr].Fd()},
		Sys:   sys,
	})
	runtime.KeepAlive(files)
	if err != nil {
		return 0, &SpawnError{Program: cmd.Program, Err: err}
	}

	s.Log.Debug("spawned",
		zap.Int("pid", pid),
		zap.Int("pgid", pgid),
		zap.String("path", path),
		zap.Strings("argv", argv),
		zap.Bool("builtin", builtin))
	return pid, nil
}

// openRedirections applies the command's redirections on top of std. Every
// target is opened in order so earlier files are still created or truncated;
// the last one per stream wins. A Shared target listed for both stdout and
// stderr is opened once; otherwise every redirection gets its own open file.
func openRedirections(cmd CommandSpec, std stageFiles) (files stageFiles, opened []*os.File, err error) {
	files = std
	shared := make(map[Redirection]*os.File)

	for _, stream := range []Stream{Stdin, Stdout, Stderr} {
		for _, r := range cmd.Redirections[stream] {
			if f, ok := shared[r]; ok && r.Shared && stream == Stderr {
				files[stream] = f
				continue
			}

			f, err := openRedirection(r)
			if err != nil {
				closeAll(opened)
				return std, nil, err
			}
			opened = append(opened, f)
			files[stream] = f
			if r.Shared && stream == Stdout {
				shared[r] = f
			}
		}
	}

	return files, opened, nil
}

func openRedirection(r Redirection) (*os.File, error) {
	switch r.Mode {
	case Read:
		return os.Open(r.Path)
	case WriteAppend:
		return os.OpenFile(r.Path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0666)
	default:
		return os.OpenFile(r.Path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	}
}

func closeAll(files []*os.File) {
	for _, f := range files {
		f.Close()
	}
}
