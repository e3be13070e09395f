package job

import (
	"os"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Device is the controlling terminal as seen by the Terminal controller.
type Device interface {
	// Fd returns the descriptor handed to children that take the terminal
	// at spawn time, or -1.
	Fd() int
	Attr() (*unix.Termios, error)
	SetAttr(*unix.Termios) error
	ForegroundGroup() (int, error)
	SetForegroundGroup(pgid int) error
}

// Terminal owns the controlling terminal's foreground process group and the
// shell's saved terminal modes. Without a terminal every operation is a no-op.
type Terminal struct {
	dev       Device
	shellPgid int
	shellAttr *unix.Termios
	log       *zap.Logger
}

// NewTerminal creates a controller for f if it is a terminal.
func NewTerminal(f *os.File, log *zap.Logger) *Terminal {
	var dev Device
	if f != nil && term.IsTerminal(int(f.Fd())) {
		dev = &ttyDevice{fd: int(f.Fd())}
	}
	return newTerminal(dev, syscall.Getpgrp(), log)
}

func newTerminal(dev Device, shellPgid int, log *zap.Logger) *Terminal {
	if log == nil {
		log = zap.NewNop()
	}
	return &Terminal{dev: dev, shellPgid: shellPgid, log: log}
}

// Enabled reports whether a terminal is attached.
func (t *Terminal) Enabled() bool {
	return t.dev != nil
}

// ShellPgid returns the process group the terminal is returned to.
func (t *Terminal) ShellPgid() int {
	return t.shellPgid
}

// Ctty returns the terminal descriptor for children that should take the
// terminal as they start, or -1.
func (t *Terminal) Ctty() int {
	if t.dev == nil {
		return -1
	}
	return t.dev.Fd()
}

// Init puts the shell in its own process group, takes the terminal and
// records the shell's terminal modes.
func (t *Terminal) Init() error {
	if t.dev == nil {
		return nil
	}

	if err := syscall.Setpgid(0, 0); err != nil {
		// Session leaders can't change group; that's fine.
		t.log.Debug("setpgid shell", zap.Error(err))
	}
	t.shellPgid = syscall.Getpgrp()

	if err := t.dev.SetForegroundGroup(t.shellPgid); err != nil {
		return err
	}
	t.captureShell()
	return nil
}

func (t *Terminal) captureShell() {
	if t.shellAttr != nil {
		return
	}
	attr, err := t.dev.Attr()
	if err != nil {
		t.log.Warn("read terminal modes", zap.Error(err))
		return
	}
	t.shellAttr = attr
}

// Foreground gives the terminal to the job, applying the modes saved when it
// last lost the terminal, or the shell's modes if it never had it.
func (t *Terminal) Foreground(j *Job) {
	if t.dev == nil || j.pgid == 0 {
		return
	}
	t.captureShell()

	attr := j.attrs
	if attr == nil {
		attr = t.shellAttr
	}
	if attr != nil {
		if err := t.dev.SetAttr(attr); err != nil {
			t.log.Warn("apply job terminal modes", zap.Int("pgid", j.pgid), zap.Error(err))
		}
	}
	if err := t.dev.SetForegroundGroup(j.pgid); err != nil {
		t.log.Warn("give terminal to job", zap.Int("pgid", j.pgid), zap.Error(err))
	}
}

// Reclaim saves the job's terminal modes and gives the terminal back to the
// shell with the shell's modes.
func (t *Terminal) Reclaim(j *Job) {
	if t.dev == nil {
		return
	}

	if attr, err := t.dev.Attr(); err == nil {
		j.attrs = attr
	} else {
		t.log.Warn("save job terminal modes", zap.Int("pgid", j.pgid), zap.Error(err))
	}

	if err := t.dev.SetForegroundGroup(t.shellPgid); err != nil {
		t.log.Warn("reclaim terminal", zap.Int("pgid", t.shellPgid), zap.Error(err))
	}
	if t.shellAttr != nil {
		if err := t.dev.SetAttr(t.shellAttr); err != nil {
			t.log.Warn("restore shell terminal modes", zap.Error(err))
		}
	}
}
