package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/josephlewis42/jsh/core/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runStandalone(t *testing.T, environ []string, args ...string) (string, int) {
	t.Helper()

	out := &bytes.Buffer{}
	code := RunStandalone(NewStandalone(environ), args, job.Stdio{
		Stdin:  strings.NewReader(""),
		Stdout: out,
		Stderr: out,
	})
	return out.String(), code
}

func TestStandalone_type(t *testing.T) {
	dir := t.TempDir()
	tool := filepath.Join(dir, "tool")
	require.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\n"), 0755))

	environ := []string{"PATH=" + dir}

	out, code := runStandalone(t, environ, "type", "tool")
	assert.Equal(t, 0, code)
	assert.Equal(t, tool+"\n", out)

	out, code = runStandalone(t, environ, "type", "echo")
	assert.Equal(t, 0, code)
	assert.Equal(t, "echo is a shell builtin\n", out)
}

func TestStandalone_noJobControl(t *testing.T) {
	out, code := runStandalone(t, nil, "jobs")

	assert.Equal(t, 1, code)
	assert.Equal(t, "jobs: no job control\n", out)
}

func TestStandalone_noArgs(t *testing.T) {
	_, code := runStandalone(t, nil)

	assert.Equal(t, 1, code)
}

func TestStandalone_failureStatus(t *testing.T) {
	// exit can't end the stage early, its status is folded to a failure.
	_, code := runStandalone(t, nil, "exit", "5")
	assert.Equal(t, 1, code)

	out, code := runStandalone(t, nil, "nope")
	assert.Equal(t, 1, code)
	assert.Equal(t, "nope: not a builtin\n", out)
}

func TestStandalone_set(t *testing.T) {
	out, code := runStandalone(t, []string{"B=2", "A=1"}, "set")

	assert.Equal(t, 0, code)
	assert.Equal(t, "A 1\nB 2\n", out)
}
