package job

import (
	"fmt"
	"io"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// ReportFormat is the layout of a jobs line: index, marker, pgid, state and
// command line.
const ReportFormat = "[%d]%c %d %-10s %s\n"

// State is the life cycle state of a job.
type State int

const (
	// Running is the initial state.
	Running State = iota
	// Stopped means every process that hasn't exited is stopped.
	Stopped
	// Done means the last stage exited normally.
	Done
	// Terminated means the last stage was killed by a signal.
	Terminated
)

// String returns the name shown by jobs.
func (s State) String() string {
	switch s {
	case Running:
		return "Running"
	case Stopped:
		return "Stopped"
	case Done:
		return "Done"
	case Terminated:
		return "Terminated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Finished reports whether the state is terminal.
func (s State) Finished() bool {
	return s == Done || s == Terminated
}

// ID identifies a job for its whole lifetime. IDs are never reused.
type ID uint64

type procStatus struct {
	status  syscall.WaitStatus
	reaped  bool
	stopped bool
}

// Job is one submitted pipeline.
type Job struct {
	id    ID
	index int

	pgid  int
	pids  []int
	procs map[int]*procStatus

	state       State
	commandLine string
	background  bool
	finalized   bool

	// attrs holds the terminal mode the job had when it last lost the
	// terminal.
	attrs *unix.Termios

	ctl *Control
}

func newJob(ctl *Control, p PipelineSpec) *Job {
	return &Job{
		procs:       make(map[int]*procStatus),
		state:       Running,
		commandLine: p.CommandLine,
		background:  p.Background,
		ctl:         ctl,
	}
}

// ID returns the stable identifier of the job.
func (j *Job) ID() ID { return j.id }

// Index returns the 1-based index shown by jobs and accepted by fg.
func (j *Job) Index() int { return j.index }

// Pgid returns the process group of the job, 0 before the first stage ran.
func (j *Job) Pgid() int { return j.pgid }

// Pids returns the process ids in pipeline order.
func (j *Job) Pids() []int {
	return append([]int(nil), j.pids...)
}

// State returns the current state.
func (j *Job) State() State { return j.state }

// CommandLine returns the text the job was started with.
func (j *Job) CommandLine() string { return j.commandLine }

// Background reports whether the job was started with a trailing &.
func (j *Job) Background() bool { return j.background }

// ExitStatus returns the status of the last pipeline stage, the value
// propagated to $?. ok is false until the last stage has been reaped.
func (j *Job) ExitStatus() (code int, ok bool) {
	if len(j.pids) == 0 {
		return 0, false
	}
	last := j.procs[j.pids[len(j.pids)-1]]
	if last == nil || !last.reaped {
		return 0, false
	}
	return statusCode(last.status), true
}

func statusCode(ws syscall.WaitStatus) int {
	switch {
	case ws.Exited():
		return ws.ExitStatus()
	case ws.Signaled():
		return 128 + int(ws.Signal())
	default:
		return 1
	}
}

// record accounts a wait status for one of the job's processes.
func (j *Job) record(pid int, ws syscall.WaitStatus) {
	proc, ok := j.procs[pid]
	if !ok {
		return
	}
	switch {
	case ws.Exited() || ws.Signaled():
		proc.status = ws
		proc.reaped = true
		proc.stopped = false
	case ws.Stopped():
		proc.status = ws
		proc.stopped = true
	case ws.Continued():
		proc.stopped = false
	}
}

func (j *Job) allReaped() bool {
	for _, pid := range j.pids {
		if !j.procs[pid].reaped {
			return false
		}
	}
	return true
}

// allStopped reports whether there is at least one live process and every
// live process is stopped.
func (j *Job) allStopped() bool {
	live := 0
	for _, pid := range j.pids {
		proc := j.procs[pid]
		if proc.reaped {
			continue
		}
		if !proc.stopped {
			return false
		}
		live++
	}
	return live > 0
}

// markContinued forgets stop reports ahead of a SIGCONT.
func (j *Job) markContinued() {
	for _, proc := range j.procs {
		proc.stopped = false
	}
	j.state = Running
}

// lostStatus is recorded for processes whose real status can't be known.
const lostStatus = syscall.WaitStatus(1 << 8)

// abandonUnreaped marks every unaccounted process as exited with status 1.
// It is used when the kernel reports the group has no children left.
func (j *Job) abandonUnreaped() {
	for _, pid := range j.pids {
		if proc := j.procs[pid]; !proc.reaped {
			proc.status = lostStatus
			proc.reaped = true
			proc.stopped = false
		}
	}
}

// stopCode is the status of a stopped job: 128 plus the signal that stopped
// its last stopped stage.
func (j *Job) stopCode() int {
	for i := len(j.pids) - 1; i >= 0; i-- {
		if proc := j.procs[j.pids[i]]; proc.stopped && proc.status.Stopped() {
			return 128 + int(proc.status.StopSignal())
		}
	}
	return 128 + int(syscall.SIGTSTP)
}

// Wait blocks until every process of the job has either stopped or been
// reaped, then gives the terminal back to the shell. A finished job is
// finalized and removed from the table. A stopped one stays registered and
// sets the last status to 128 plus the stop signal.
func (j *Job) Wait() error {
	if j.pgid == 0 {
		return nil
	}

	for !j.allReaped() && !j.allStopped() {
		var ws syscall.WaitStatus
		pid, err := syscall.Wait4(-j.pgid, &ws, syscall.WUNTRACED, nil)
		switch {
		case err == syscall.EINTR:
			continue
		case err == syscall.ECHILD:
			j.ctl.log.Warn("process group has no children left",
				zap.Int("pgid", j.pgid),
				zap.Ints("pids", j.pids))
			j.abandonUnreaped()
		case err != nil:
			j.ctl.terminal.Reclaim(j)
			return fmt.Errorf("wait for job %d: %w", j.index, err)
		default:
			j.ctl.log.Debug("wait",
				zap.Int("pid", pid),
				zap.Int("pgid", j.pgid),
				zap.Uint32("status", uint32(ws)))
			j.record(pid, ws)
		}
	}

	j.ctl.terminal.Reclaim(j)

	if j.allReaped() {
		j.cleanup(false)
		j.ctl.table.Remove(j)
		return nil
	}

	j.state = Stopped
	j.ctl.env.SetLastStatus(j.stopCode())
	fmt.Fprintln(j.ctl.stdout)
	j.ctl.report(j.ctl.stdout, j)
	return nil
}

// cleanup finalizes a job whose processes have all been reaped: it classifies
// the job from its last stage, propagates the status, drops the pids from the
// index and moves the current/previous markers off the job.
func (j *Job) cleanup(report bool) {
	if j.finalized {
		return
	}
	j.finalized = true

	last := j.procs[j.pids[len(j.pids)-1]]
	if last.status.Signaled() {
		j.state = Terminated
	} else {
		j.state = Done
	}

	code, _ := j.ExitStatus()
	j.ctl.env.SetLastStatus(code)

	if report {
		j.ctl.report(j.ctl.stdout, j)
	}

	j.ctl.index.Drop(j)
	j.ctl.table.reselect(j)

	j.ctl.log.Debug("job finished",
		zap.Int("pgid", j.pgid),
		zap.Stringer("state", j.state),
		zap.Int("status", code))
}

// Continue resumes the job in the foreground and waits for it.
func (j *Job) Continue() error {
	if j.finalized {
		return ErrJobTerminated
	}

	j.ctl.table.SetCurrent(j)
	j.ctl.terminal.Foreground(j)
	j.markContinued()
	if err := syscall.Kill(-j.pgid, syscall.SIGCONT); err != nil {
		j.ctl.log.Warn("continue job", zap.Int("pgid", j.pgid), zap.Error(err))
	}
	return j.Wait()
}

// resume continues a stopped job without giving it the terminal.
func (j *Job) resume() error {
	if j.finalized {
		return ErrJobTerminated
	}

	j.markContinued()
	if err := syscall.Kill(-j.pgid, syscall.SIGCONT); err != nil {
		return fmt.Errorf("continue job %d: %w", j.index, err)
	}
	return nil
}

func (j *Job) writeReport(w io.Writer, marker rune) {
	fmt.Fprintf(w, ReportFormat, j.index, marker, j.pgid, j.state, j.commandLine)
}
