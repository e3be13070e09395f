//go:build linux

package job

import (
	"runtime"
	"unsafe"

	"golang.org/x/sys/unix"
)

// ttyDevice drives a real terminal through ioctls.
type ttyDevice struct {
	fd int
}

func (d *ttyDevice) Fd() int {
	return d.fd
}

func (d *ttyDevice) Attr() (*unix.Termios, error) {
	return unix.IoctlGetTermios(d.fd, unix.TCGETS)
}

func (d *ttyDevice) SetAttr(attr *unix.Termios) error {
	return withTTOUBlocked(func() error {
		return unix.IoctlSetTermios(d.fd, unix.TCSETS, attr)
	})
}

func (d *ttyDevice) ForegroundGroup() (int, error) {
	return unix.IoctlGetInt(d.fd, unix.TIOCGPGRP)
}

func (d *ttyDevice) SetForegroundGroup(pgid int) error {
	return withTTOUBlocked(func() error {
		return unix.IoctlSetPointerInt(d.fd, unix.TIOCSPGRP, pgid)
	})
}

// withTTOUBlocked runs fn with SIGTTOU blocked on the calling thread. The
// kernel lets a background process change the terminal only when SIGTTOU is
// blocked or ignored, and the shell merely catches it.
func withTTOUBlocked(fn func() error) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	var set, old unix.Sigset_t
	sigaddset(&set, unix.SIGTTOU)
	if err := unix.PthreadSigmask(unix.SIG_BLOCK, &set, &old); err != nil {
		return err
	}
	defer unix.PthreadSigmask(unix.SIG_SETMASK, &old, nil)

	return fn()
}

func sigaddset(set *unix.Sigset_t, sig unix.Signal) {
	n := uint(sig) - 1
	bits := uint(unsafe.Sizeof(set.Val[0])) * 8
	set.Val[n/bits] |= 1 << (n % bits)
}
