// Package env holds the shell's variables.
package env

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
)

const (
	Home   = "HOME"
	PWD    = "PWD"
	Path   = "PATH"
	PS1    = "PS1"
	PS2    = "PS2"
	Status = "?"
	Pid    = "$"
)

// MapEnv is an in-memory environment. The last exit status is kept apart from
// the exported variables and is visible as $?.
type MapEnv struct {
	rw         sync.RWMutex
	env        map[string]string
	lastStatus int
}

// New creates an empty environment.
func New() *MapEnv {
	return &MapEnv{}
}

// FromList creates an environment from KEY=VALUE pairs such as os.Environ().
func FromList(environ []string) *MapEnv {
	out := New()

	for _, e := range environ {
		split := strings.SplitN(e, "=", 2)
		key, value := split[0], ""
		if len(split) > 1 {
			value = split[1]
		}
		if key == "" {
			continue
		}
		out.Setenv(key, value)
	}

	return out
}

// Setenv sets an exported variable.
func (m *MapEnv) Setenv(key, value string) {
	m.rw.Lock()
	defer m.rw.Unlock()

	if m.env == nil {
		m.env = make(map[string]string)
	}
	m.env[key] = value
}

// Unsetenv removes a variable.
func (m *MapEnv) Unsetenv(key string) {
	m.rw.Lock()
	defer m.rw.Unlock()
	if m.env != nil {
		delete(m.env, key)
	}
}

// LookupEnv returns a variable and whether it is set. The special names $?
// and $$ are always set.
func (m *MapEnv) LookupEnv(key string) (string, bool) {
	switch key {
	case Status:
		return strconv.Itoa(m.LastStatus()), true
	case Pid:
		return strconv.Itoa(os.Getpid()), true
	}

	m.rw.RLock()
	defer m.rw.RUnlock()

	val, ok := m.env[key]
	return val, ok
}

// Getenv returns a variable or "".
func (m *MapEnv) Getenv(key string) string {
	val, _ := m.LookupEnv(key)
	return val
}

// ExpandEnv replaces $var and ${var} in s.
func (m *MapEnv) ExpandEnv(s string) string {
	return os.Expand(s, m.Getenv)
}

// Environ returns the exported variables as sorted KEY=VALUE pairs.
func (m *MapEnv) Environ() []string {
	m.rw.RLock()
	defer m.rw.RUnlock()

	env := make([]string, 0, len(m.env))
	for k, v := range m.env {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(env)
	return env
}

// Path returns the command search path.
func (m *MapEnv) Path() []string {
	path := m.Getenv(Path)
	if path == "" {
		return nil
	}
	return filepath.SplitList(path)
}

// Getwd returns $PWD, falling back to the process working directory.
func (m *MapEnv) Getwd() string {
	if pwd := m.Getenv(PWD); pwd != "" {
		return pwd
	}
	wd, _ := os.Getwd()
	return wd
}

// LastStatus returns the exit status of the last job or builtin.
func (m *MapEnv) LastStatus() int {
	m.rw.RLock()
	defer m.rw.RUnlock()
	return m.lastStatus
}

// SetLastStatus records the exit status of the last job or builtin.
func (m *MapEnv) SetLastStatus(code int) {
	m.rw.Lock()
	defer m.rw.Unlock()
	m.lastStatus = code
}
