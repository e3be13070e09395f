package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExit(t *testing.T) {
	cases := map[string]struct {
		args     []string
		exited   bool
		expected int
	}{
		"default":    {[]string{"exit"}, true, 0},
		"code":       {[]string{"exit", "3"}, true, 3},
		"wraps":      {[]string{"exit", "257"}, true, 1},
		"not-number": {[]string{"exit", "x"}, false, 2},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			sh := newFakeShell()
			_, code := sh.run(tc.args...)

			assert.Equal(t, tc.expected, code)
			assert.Equal(t, tc.exited, sh.exited)
			if tc.exited {
				assert.Equal(t, tc.expected, sh.exitCode)
			}
		})
	}
}
