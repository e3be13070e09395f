package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sys/unix"
)

type fakeDevice struct {
	attr     unix.Termios
	fg       int
	fgGroups []int
}

var _ Device = (*fakeDevice)(nil)

func (d *fakeDevice) Fd() int { return -1 }

func (d *fakeDevice) Attr() (*unix.Termios, error) {
	attr := d.attr
	return &attr, nil
}

func (d *fakeDevice) SetAttr(attr *unix.Termios) error {
	d.attr = *attr
	return nil
}

func (d *fakeDevice) ForegroundGroup() (int, error) {
	return d.fg, nil
}

func (d *fakeDevice) SetForegroundGroup(pgid int) error {
	d.fg = pgid
	d.fgGroups = append(d.fgGroups, pgid)
	return nil
}

var (
	shellModes = unix.Termios{Lflag: unix.ICANON | unix.ECHO}
	jobModes   = unix.Termios{Lflag: unix.ECHO}
)

func TestTerminal_handoff(t *testing.T) {
	dev := &fakeDevice{attr: shellModes, fg: 7}
	term := newTerminal(dev, 7, nil)
	j := newTestJob(42)

	assert.True(t, term.Enabled())
	assert.Equal(t, 7, term.ShellPgid())

	term.Foreground(j)
	assert.Equal(t, 42, dev.fg)
	assert.Equal(t, shellModes, dev.attr, "a new job starts with the shell's modes")

	// The job switches the terminal to its own modes.
	dev.attr = jobModes

	term.Reclaim(j)
	assert.Equal(t, 7, dev.fg)
	assert.Equal(t, shellModes, dev.attr)
	if assert.NotNil(t, j.attrs) {
		assert.Equal(t, jobModes, *j.attrs)
	}

	term.Foreground(j)
	assert.Equal(t, 42, dev.fg)
	assert.Equal(t, jobModes, dev.attr, "a resumed job gets its saved modes back")

	assert.Equal(t, []int{42, 7, 42}, dev.fgGroups)
}

func TestTerminal_unspawnedJob(t *testing.T) {
	dev := &fakeDevice{attr: shellModes}
	term := newTerminal(dev, 7, nil)

	term.Foreground(newTestJob())
	assert.Empty(t, dev.fgGroups)
}

func TestTerminal_disabled(t *testing.T) {
	term := NewTerminal(nil, nil)
	j := newTestJob(42)

	assert.False(t, term.Enabled())
	assert.Equal(t, -1, term.Ctty())
	assert.NoError(t, term.Init())

	term.Foreground(j)
	term.Reclaim(j)
	assert.Nil(t, j.attrs)
}
