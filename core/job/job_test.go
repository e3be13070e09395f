package job

import (
	"bytes"
	"path/filepath"
	"syscall"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

// Wait statuses as encoded by Linux.
func exited(code int) syscall.WaitStatus {
	return syscall.WaitStatus(code << 8)
}

func signaled(sig syscall.Signal) syscall.WaitStatus {
	return syscall.WaitStatus(sig)
}

func stopped(sig syscall.Signal) syscall.WaitStatus {
	return syscall.WaitStatus(int(sig)<<8 | 0x7f)
}

const continued = syscall.WaitStatus(0xffff)

func TestState(t *testing.T) {
	cases := []struct {
		state    State
		name     string
		finished bool
	}{
		{Running, "Running", false},
		{Stopped, "Stopped", false},
		{Done, "Done", true},
		{Terminated, "Terminated", true},
		{State(42), "State(42)", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.name, tc.state.String())
		assert.Equal(t, tc.finished, tc.state.Finished(), tc.name)
	}
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, 0, statusCode(exited(0)))
	assert.Equal(t, 3, statusCode(exited(3)))
	assert.Equal(t, 128+int(syscall.SIGTERM), statusCode(signaled(syscall.SIGTERM)))
	assert.Equal(t, 1, statusCode(stopped(syscall.SIGTSTP)))
}

func TestJob_record(t *testing.T) {
	j := newTestJob(10, 11, 12)

	_, ok := j.ExitStatus()
	assert.False(t, ok)

	j.record(10, exited(1))
	assert.False(t, j.allReaped())
	assert.False(t, j.allStopped())

	j.record(11, stopped(syscall.SIGTSTP))
	assert.False(t, j.allStopped(), "12 is still running")

	j.record(12, stopped(syscall.SIGTSTP))
	assert.True(t, j.allStopped())

	j.record(11, continued)
	assert.False(t, j.allStopped())

	// Unknown pids are ignored.
	j.record(99, exited(0))

	j.record(11, exited(0))
	j.record(12, signaled(syscall.SIGKILL))
	assert.True(t, j.allReaped())
	assert.False(t, j.allStopped(), "nothing is left to stop")

	code, ok := j.ExitStatus()
	assert.True(t, ok)
	assert.Equal(t, 128+int(syscall.SIGKILL), code)
}

func TestJob_markContinued(t *testing.T) {
	j := newTestJob(10)
	j.record(10, stopped(syscall.SIGSTOP))
	j.state = Stopped

	j.markContinued()
	assert.Equal(t, Running, j.State())
	assert.False(t, j.allStopped())
}

func TestJob_abandonUnreaped(t *testing.T) {
	j := newTestJob(10, 11)
	j.record(11, exited(4))

	j.abandonUnreaped()
	assert.True(t, j.allReaped())

	code, ok := j.ExitStatus()
	assert.True(t, ok)
	assert.Equal(t, 4, code)

	// A lost last stage counts as a failure.
	j = newTestJob(10, 11)
	j.record(10, exited(0))

	j.abandonUnreaped()
	code, ok = j.ExitStatus()
	assert.True(t, ok)
	assert.Equal(t, 1, code)
}

func TestJob_stopCode(t *testing.T) {
	j := newTestJob(10, 11)
	j.record(10, stopped(syscall.SIGTTIN))
	j.record(11, stopped(syscall.SIGSTOP))
	assert.Equal(t, 128+int(syscall.SIGSTOP), j.stopCode())

	j.record(11, exited(0))
	assert.Equal(t, 128+int(syscall.SIGTTIN), j.stopCode())
}

func TestJob_writeReport(t *testing.T) {
	g := goldie.New(
		t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
		goldie.WithTestNameForDir(true),
	)

	var buf bytes.Buffer
	for i, state := range []State{Running, Stopped, Done, Terminated} {
		j := newTestJob(1000 + i)
		j.index = i + 1
		j.state = state
		j.commandLine = "sleep 50 | cat"
		j.writeReport(&buf, []rune{'+', '-', ' ', ' '}[i])
	}

	g.Assert(t, "report", buf.Bytes())
}
