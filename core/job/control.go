package job

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"
)

// Options configures a Control.
type Options struct {
	// Standard streams of the shell; nil means the process's own.
	Stdin  *os.File
	Stdout *os.File
	Stderr *os.File

	Env      Environment
	Builtins BuiltinSet

	// Trampoline re-executes the shell to run builtins in pipelines, see
	// Spawner.Trampoline.
	Trampoline []string

	// Terminal defaults to NewTerminal(Stdin).
	Terminal *Terminal

	Logger *zap.Logger
}

// Control is the job-control context of one shell: the job table, the pid
// index, the reaper, the terminal and the spawner.
type Control struct {
	stdin  *os.File
	stdout *os.File
	stderr *os.File

	env      Environment
	builtins BuiltinSet

	table    *Table
	index    *PidIndex
	reaper   *Reaper
	terminal *Terminal
	spawner  *Spawner

	pipe func() (r, w *os.File, err error)
	sigs chan os.Signal
	log  *zap.Logger
}

// NewControl creates the job-control context.
func NewControl(opts Options) *Control {
	c := &Control{
		stdin:    opts.Stdin,
		stdout:   opts.Stdout,
		stderr:   opts.Stderr,
		env:      opts.Env,
		builtins: opts.Builtins,
		table:    NewTable(),
		index:    NewPidIndex(),
		reaper:   NewReaper(),
		terminal: opts.Terminal,
		pipe:     os.Pipe,
		log:      opts.Logger,
	}

	if c.stdin == nil {
		c.stdin = os.Stdin
	}
	if c.stdout == nil {
		c.stdout = os.Stdout
	}
	if c.stderr == nil {
		c.stderr = os.Stderr
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	if c.terminal == nil {
		c.terminal = NewTerminal(c.stdin, c.log)
	}

	c.spawner = &Spawner{
		Builtins:   opts.Builtins,
		Env:        opts.Env,
		Trampoline: opts.Trampoline,
		Log:        c.log,
	}
	return c
}

// Init starts counting SIGCHLD so Drain can collect jobs as they change
// state. An interactive shell also catches the job-control signals, so it
// can't be stopped by them, and takes the terminal.
func (c *Control) Init(interactive bool) error {
	c.reaper.Start()
	if !interactive {
		return nil
	}

	c.sigs = make(chan os.Signal, 8)
	signal.Notify(c.sigs, syscall.SIGINT, syscall.SIGQUIT, syscall.SIGTSTP, syscall.SIGTTIN, syscall.SIGTTOU)
	go func() {
		for sig := range c.sigs {
			c.log.Debug("ignored signal", zap.Stringer("signal", sig))
		}
	}()

	return c.terminal.Init()
}

// Close stops signal handling.
func (c *Control) Close() error {
	c.reaper.Stop()
	if c.sigs != nil {
		signal.Stop(c.sigs)
		close(c.sigs)
		c.sigs = nil
	}
	return nil
}

// Hangup sends SIGHUP to every live job, followed by SIGCONT so stopped jobs
// see it.
func (c *Control) Hangup() {
	for _, j := range c.table.Jobs() {
		if j.state.Finished() || j.pgid == 0 {
			continue
		}
		for _, sig := range []syscall.Signal{syscall.SIGHUP, syscall.SIGCONT} {
			if err := syscall.Kill(-j.pgid, sig); err != nil {
				c.log.Debug("hangup", zap.Int("pgid", j.pgid), zap.Stringer("signal", sig), zap.Error(err))
			}
		}
	}
}

// Table returns the job table.
func (c *Control) Table() *Table {
	return c.table
}

// Index returns the pid index.
func (c *Control) Index() *PidIndex {
	return c.index
}

// Reaper returns the SIGCHLD counter.
func (c *Control) Reaper() *Reaper {
	return c.reaper
}

// Terminal returns the terminal controller.
func (c *Control) Terminal() *Terminal {
	return c.terminal
}

// Spawner returns the process spawner.
func (c *Control) Spawner() *Spawner {
	return c.spawner
}

// Find resolves a job reference: "" is the current job, "%+" and "%-" the
// current and previous jobs, "%N" the job shown as [N] and a bare "N" the N-th
// job in the table.
func (c *Control) Find(ref string) (*Job, error) {
	var j *Job
	switch ref {
	case "", "%", "%+", "%%":
		j = c.table.Current()
	case "%-":
		j = c.table.Previous()
	default:
		n, err := strconv.Atoi(strings.TrimPrefix(ref, "%"))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ref, ErrNoSuchJob)
		}
		if strings.HasPrefix(ref, "%") {
			j = c.table.Lookup(n)
		} else {
			j = c.table.Nth(n)
		}
	}

	if j == nil || j.state.Finished() {
		return nil, ErrNoSuchJob
	}
	return j, nil
}

// Foreground resumes the referenced job in the foreground and waits for it.
func (c *Control) Foreground(ref string) error {
	c.Drain(false)

	j, err := c.Find(ref)
	if err != nil {
		return err
	}

	fmt.Fprintln(c.stdout, j.commandLine)
	err = j.Continue()
	c.Drain(false)
	return err
}

// Background resumes the referenced stopped job without giving it the
// terminal.
func (c *Control) Background(ref string) error {
	c.Drain(false)

	j, err := c.Find(ref)
	if err != nil {
		return err
	}

	if err := j.resume(); err != nil {
		return err
	}
	c.table.SetCurrent(j)
	fmt.Fprintf(c.stdout, "[%d]%c %s &\n", j.index, c.table.Marker(j), j.commandLine)
	return nil
}

// Signal sends sig to a job's process group when ref starts with %, or to a
// single process when ref is a pid.
func (c *Control) Signal(ref string, sig syscall.Signal) error {
	target := 0
	if strings.HasPrefix(ref, "%") {
		c.Drain(false)
		j, err := c.Find(ref)
		if err != nil {
			return err
		}
		target = -j.pgid
	} else {
		pid, err := strconv.Atoi(ref)
		if err != nil || pid <= 0 {
			return fmt.Errorf("%s: arguments must be process or job IDs", ref)
		}
		target = pid
	}

	if err := syscall.Kill(target, sig); err != nil {
		return fmt.Errorf("(%s) - %w", ref, err)
	}
	return nil
}

// Jobs writes a line per job to w and then forgets the finished ones. With
// pidsOnly only process group ids are written.
func (c *Control) Jobs(w io.Writer, pidsOnly bool) {
	c.Drain(false)

	for _, entry := range c.table.List() {
		if pidsOnly {
			fmt.Fprintln(w, entry.Job.pgid)
			continue
		}
		entry.Job.writeReport(w, entry.Marker)
	}

	for _, j := range c.table.Jobs() {
		if j.state.Finished() {
			c.table.Remove(j)
		}
	}
}

func (c *Control) report(w io.Writer, j *Job) {
	j.writeReport(w, c.table.Marker(j))
}
