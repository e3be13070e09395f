package commands

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/josephlewis42/jsh/core/job"
	"github.com/stretchr/testify/assert"
)

func TestJobs(t *testing.T) {
	cases := goldenTestSuite{
		"list": {[]string{"jobs"}},
		"pids": {[]string{"jobs", "-p"}},
	}

	cases.Run(t, newFakeShell)
}

func TestJobControlBuiltins(t *testing.T) {
	cases := map[string]struct {
		args     []string
		expected []string
	}{
		"fg-current": {[]string{"fg"}, []string{"fg "}},
		"fg-index":   {[]string{"fg", "2"}, []string{"fg 2"}},
		"bg-ref":     {[]string{"bg", "%-"}, []string{"bg %-"}},
		"kill":       {[]string{"kill", "%1", "42"}, []string{"kill %1 15", "kill 42 15"}},
		"kill-name":  {[]string{"kill", "-s", "KILL", "%1"}, []string{"kill %1 9"}},
		"kill-num":   {[]string{"kill", "-s", "2", "%1"}, []string{"kill %1 2"}},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			sh := newFakeShell()
			out, code := sh.run(tc.args...)

			assert.Equal(t, 0, code)
			assert.Empty(t, out)
			assert.Equal(t, tc.expected, sh.jobs.calls)
		})
	}
}

func TestFg_status(t *testing.T) {
	sh := newFakeShell()
	sh.vars.SetLastStatus(7)

	_, code := sh.run("fg")
	assert.Equal(t, 7, code)
}

func TestJobControlBuiltins_errors(t *testing.T) {
	cases := map[string]struct {
		err      error
		args     []string
		expected string
	}{
		"fg-no-such-job": {job.ErrNoSuchJob, []string{"fg", "9"}, "fg: no such job\n"},
		"bg-wrapped":     {fmt.Errorf("%%x: %w", job.ErrNoSuchJob), []string{"bg", "%x"}, "bg: no such job\n"},
		"bg-other":       {errors.New("boom"), []string{"bg"}, "bg: boom\n"},
		"kill":           {syscall.ESRCH, []string{"kill", "1"}, "kill: no such process\n"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			sh := newFakeShell()
			sh.jobs.err = tc.err
			out, code := sh.run(tc.args...)

			assert.Equal(t, 1, code)
			assert.Equal(t, tc.expected, out)
		})
	}
}

func TestJobControlBuiltins_noJobControl(t *testing.T) {
	for _, name := range []string{"jobs", "fg", "bg"} {
		t.Run(name, func(t *testing.T) {
			sh := newFakeShell()
			sh.jobs = nil
			out, code := sh.run(name)

			assert.Equal(t, 1, code)
			assert.Equal(t, name+": no job control\n", out)
		})
	}
}

func TestKill_invalid(t *testing.T) {
	cases := map[string]struct {
		args     []string
		expected string
	}{
		"no-target":  {[]string{"kill"}, "kill: Invalid number of arguments.\n"},
		"bad-signal": {[]string{"kill", "-s", "NOPE", "%1"}, "kill: NOPE: invalid signal specification\n"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			out, code := newFakeShell().run(tc.args...)

			assert.Equal(t, 1, code)
			assert.Equal(t, tc.expected, out)
		})
	}
}

func TestParseSignal(t *testing.T) {
	cases := map[string]syscall.Signal{
		"9":       syscall.SIGKILL,
		"TERM":    syscall.SIGTERM,
		"sigcont": syscall.SIGCONT,
		"SIGSTOP": syscall.SIGSTOP,
	}

	for spec, expected := range cases {
		actual, err := parseSignal(spec)
		assert.NoError(t, err, spec)
		assert.Equal(t, expected, actual, spec)
	}

	_, err := parseSignal("-1")
	assert.Error(t, err)
}
