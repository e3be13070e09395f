package job

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/josephlewis42/jsh/core/env"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpawner_Resolve(t *testing.T) {
	dir := t.TempDir()
	tool := filepath.Join(dir, "tool")
	require.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\n"), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0755))

	vars := env.New()
	vars.Setenv(env.Path, "/no/such/dir"+string(filepath.ListSeparator)+dir)
	s := &Spawner{Builtins: testBuiltins{}, Env: vars}

	cases := map[string]struct {
		program  string
		path     string
		builtin  bool
		notFound bool
	}{
		"builtin":        {program: "greet", builtin: true},
		"on-path":        {program: "tool", path: tool},
		"absolute":       {program: tool, path: tool},
		"missing":        {program: "no-such-tool", notFound: true},
		"missing-slash":  {program: filepath.Join(dir, "nope"), notFound: true},
		"directory":      {program: "subdir", notFound: true},
		"directory-path": {program: filepath.Join(dir, "subdir"), notFound: true},
		"empty":          {program: "", notFound: true},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			path, builtin, err := s.Resolve(tc.program)
			if tc.notFound {
				assert.True(t, errors.Is(err, ErrUnknownCommand), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.path, path)
			assert.Equal(t, tc.builtin, builtin)
		})
	}
}

// chdir moves the test into dir for its duration.
func chdir(t *testing.T, dir string) {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(wd) })
}

func TestSpawner_Resolve_workingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mytool"), []byte("#!/bin/sh\n"), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "mydir"), 0755))
	chdir(t, dir)

	vars := env.New()
	vars.Setenv(env.Path, "/no/such/dir")
	s := &Spawner{Env: vars}

	// A file that exists verbatim is used even though it isn't on the path.
	path, builtin, err := s.Resolve("mytool")
	require.NoError(t, err)
	assert.False(t, builtin)
	assert.Equal(t, "mytool", path)

	_, _, err = s.Resolve("mydir")
	assert.True(t, errors.Is(err, ErrUnknownCommand), "got %v", err)
}
