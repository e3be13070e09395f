package job

import (
	"fmt"
	"os"
	"syscall"

	"go.uber.org/zap"
)

// Run executes a pipeline. A lone builtin runs inside the shell; anything
// else becomes a job. Foreground jobs are waited for, background jobs are
// announced and left running.
func (c *Control) Run(p PipelineSpec) error {
	if len(p.Stages) == 0 {
		c.env.SetLastStatus(0)
		return nil
	}

	if p.soleBuiltin(c.builtins) {
		return c.runBuiltin(p.Stages[0])
	}

	j := newJob(c, p)
	if err := c.launch(j, p.Stages); err != nil {
		return err
	}
	c.table.SetCurrent(j)

	if j.background {
		fmt.Fprintf(c.stderr, "[%d] %d\n", j.index, j.pgid)
		c.env.SetLastStatus(0)
		return nil
	}

	c.terminal.Foreground(j)
	return j.Wait()
}

// runBuiltin runs a builtin in the shell process with its redirections.
func (c *Control) runBuiltin(cmd CommandSpec) error {
	files, opened, err := openRedirections(cmd, stageFiles{c.stdin, c.stdout, c.stderr})
	if err != nil {
		c.env.SetLastStatus(1)
		return err
	}
	defer closeAll(opened)

	code := c.builtins.RunBuiltin(cmd.Program, cmd.Args(), Stdio{
		Stdin:  files[Stdin],
		Stdout: files[Stdout],
		Stderr: files[Stderr],
	})
	c.env.SetLastStatus(code)
	return nil
}

// launch spawns every stage, wiring N-1 pipes between them. The controller
// closes its copies of the pipe ends as soon as each stage has them. If a
// stage can't start, the stages already running are killed and reaped.
func (c *Control) launch(j *Job, stages []CommandSpec) error {
	stdin := c.stdin
	for i, stage := range stages {
		stdout := c.stdout
		var next *os.File
		if i < len(stages)-1 {
			r, w, err := c.pipe()
			if err != nil {
				if stdin != c.stdin {
					stdin.Close()
				}
				c.abort(j)
				return fmt.Errorf("pipe: %w", err)
			}
			stdout, next = w, r
		}

		ctty := -1
		if i == 0 && !j.background {
			ctty = c.terminal.Ctty()
		}

		pid, err := c.spawner.Spawn(stage, stageFiles{stdin, stdout, c.stderr}, j.pgid, ctty)

		if stdin != c.stdin {
			stdin.Close()
		}
		if stdout != c.stdout {
			stdout.Close()
		}

		if err != nil {
			if next != nil {
				next.Close()
			}
			c.abort(j)
			return err
		}

		c.adopt(j, pid)
		stdin = next
	}
	return nil
}

// adopt records a freshly spawned pid. The first pid becomes the job's
// process group and puts the job in the table.
func (c *Control) adopt(j *Job, pid int) {
	if j.pgid == 0 {
		j.pgid = pid
		c.table.Add(j)
	}
	j.pids = append(j.pids, pid)
	j.procs[pid] = &procStatus{}
	c.index.Add(pid, j)

	// The child already joined the group before exec, so this usually fails
	// with EACCES. Grouping is best effort either way.
	if err := syscall.Setpgid(pid, j.pgid); err != nil {
		c.log.Debug("setpgid", zap.Int("pid", pid), zap.Int("pgid", j.pgid), zap.Error(err))
	}
}

// abort kills and reaps the stages of a partially started job and forgets
// it.
func (c *Control) abort(j *Job) {
	for _, pid := range j.pids {
		if err := syscall.Kill(pid, syscall.SIGKILL); err != nil {
			c.log.Warn("kill partial pipeline", zap.Int("pid", pid), zap.Error(err))
		}
		var ws syscall.WaitStatus
		for {
			if _, err := syscall.Wait4(pid, &ws, 0, nil); err != syscall.EINTR {
				break
			}
		}
	}

	if len(j.pids) > 0 && !j.background {
		c.terminal.Reclaim(j)
	}

	c.index.Drop(j)
	j.finalized = true
	j.state = Terminated
	c.table.Remove(j)
	c.env.SetLastStatus(1)
}
