package job

import (
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"go.uber.org/zap"
)

// Reaper counts child status change notifications. The counter is the only
// state touched off the main control thread; Control.Drain does the reaping.
type Reaper struct {
	pending atomic.Int64

	sigs chan os.Signal
	done chan struct{}
	once sync.Once
}

// NewReaper creates a reaper that isn't subscribed to SIGCHLD yet.
func NewReaper() *Reaper {
	return &Reaper{
		sigs: make(chan os.Signal, 16),
		done: make(chan struct{}),
	}
}

// Start subscribes to SIGCHLD.
func (r *Reaper) Start() {
	signal.Notify(r.sigs, syscall.SIGCHLD)
	go func() {
		for {
			select {
			case <-r.sigs:
				r.Notify()
			case <-r.done:
				return
			}
		}
	}()
}

// Stop unsubscribes from SIGCHLD.
func (r *Reaper) Stop() {
	r.once.Do(func() {
		signal.Stop(r.sigs)
		close(r.done)
	})
}

// Notify records that some child changed state.
func (r *Reaper) Notify() {
	r.pending.Add(1)
}

// Pending returns the number of notifications not yet drained.
func (r *Reaper) Pending() int64 {
	return r.pending.Load()
}

// take clears the counter and reports whether it was positive.
func (r *Reaper) take() bool {
	return r.pending.Swap(0) > 0
}

// Drain reaps every child that changed state since the last drain and
// attributes the statuses to their jobs. In reporting mode finished jobs are
// printed and removed from the table; otherwise they stay until jobs lists
// them.
func (c *Control) Drain(report bool) {
	for c.reaper.take() {
		for {
			var ws syscall.WaitStatus
			pid, err := syscall.Wait4(-1, &ws, syscall.WNOHANG|syscall.WUNTRACED|syscall.WCONTINUED, nil)
			if err == syscall.EINTR {
				continue
			}
			if err != nil || pid <= 0 {
				break
			}
			c.attribute(pid, ws, report)
		}
	}
}

func (c *Control) attribute(pid int, ws syscall.WaitStatus, report bool) {
	j := c.index.Lookup(pid)
	if j == nil {
		c.log.Debug("reaped unknown child", zap.Int("pid", pid), zap.Uint32("status", uint32(ws)))
		return
	}

	j.record(pid, ws)
	switch {
	case j.allReaped():
		j.cleanup(report)
		if report {
			c.table.Remove(j)
		}
	case j.allStopped():
		if j.state != Stopped {
			j.state = Stopped
			if report {
				c.report(c.stdout, j)
			}
		}
	default:
		j.state = Running
	}
}
