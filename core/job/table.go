package job

// Entry is a job together with its jobs marker.
type Entry struct {
	Job    *Job
	Marker rune
}

// Table is the ordered collection of jobs plus the current and previous
// pointers used by fg and jobs.
type Table struct {
	jobs []*Job

	lastID   ID
	current  ID
	previous ID
}

// NewTable creates an empty job table.
func NewTable() *Table {
	return &Table{}
}

// Len returns the number of jobs in the table.
func (t *Table) Len() int {
	return len(t.jobs)
}

// Jobs returns the jobs in table order.
func (t *Table) Jobs() []*Job {
	return append([]*Job(nil), t.jobs...)
}

// Add inserts the job without changing current or previous. The job gets a
// fresh ID and the next display index.
func (t *Table) Add(j *Job) {
	if t.contains(j) {
		return
	}

	if j.id == 0 {
		t.lastID++
		j.id = t.lastID
	}

	highest := 0
	for _, other := range t.jobs {
		if other.index > highest {
			highest = other.index
		}
	}
	j.index = highest + 1
	t.jobs = append(t.jobs, j)
}

// Register adds the job and makes it current.
func (t *Table) Register(j *Job) {
	t.Add(j)
	t.SetCurrent(j)
}

// SetCurrent makes j the current job; the old current job becomes previous.
func (t *Table) SetCurrent(j *Job) {
	if !t.contains(j) || t.current == j.id {
		return
	}
	t.previous = t.current
	t.current = j.id
}

// Current returns the job fg targets without an argument.
func (t *Table) Current() *Job {
	return t.byID(t.current)
}

// Previous returns the job marked with -.
func (t *Table) Previous() *Job {
	return t.byID(t.previous)
}

// Lookup returns the job with the given display index.
func (t *Table) Lookup(index int) *Job {
	for _, j := range t.jobs {
		if j.index == index {
			return j
		}
	}
	return nil
}

// Nth returns the n-th job in table order, counting from 1. It differs from
// Lookup once an earlier job has been removed.
func (t *Table) Nth(n int) *Job {
	if n < 1 || n > len(t.jobs) {
		return nil
	}
	return t.jobs[n-1]
}

// Marker returns '+' for the current job, '-' for the previous one and ' '
// otherwise.
func (t *Table) Marker(j *Job) rune {
	switch {
	case j.id != 0 && j.id == t.current:
		return '+'
	case j.id != 0 && j.id == t.previous:
		return '-'
	default:
		return ' '
	}
}

// List returns every job with its marker, in table order.
func (t *Table) List() []Entry {
	out := make([]Entry, 0, len(t.jobs))
	for _, j := range t.jobs {
		out = append(out, Entry{Job: j, Marker: t.Marker(j)})
	}
	return out
}

// Remove deletes the job from the table and moves the markers off it.
func (t *Table) Remove(j *Job) {
	for i, other := range t.jobs {
		if other == j {
			t.jobs = append(t.jobs[:i], t.jobs[i+1:]...)
			break
		}
	}
	t.reselect(j)
}

// reselect picks new current and previous jobs when gone holds one of the
// markers. Candidates are tried in order: previous, current, then the table
// entries; gone, finished jobs and already chosen jobs are skipped.
func (t *Table) reselect(gone *Job) {
	if gone.id == 0 || (gone.id != t.current && gone.id != t.previous) {
		return
	}

	var picked []ID
	consider := func(j *Job) {
		if j == nil || j == gone || j.state.Finished() || len(picked) == 2 {
			return
		}
		for _, id := range picked {
			if id == j.id {
				return
			}
		}
		picked = append(picked, j.id)
	}

	consider(t.byID(t.previous))
	consider(t.byID(t.current))
	for _, j := range t.jobs {
		consider(j)
	}

	t.current, t.previous = 0, 0
	if len(picked) > 0 {
		t.current = picked[0]
	}
	if len(picked) > 1 {
		t.previous = picked[1]
	}
}

func (t *Table) contains(j *Job) bool {
	for _, other := range t.jobs {
		if other == j {
			return true
		}
	}
	return false
}

func (t *Table) byID(id ID) *Job {
	if id == 0 {
		return nil
	}
	for _, j := range t.jobs {
		if j.id == id {
			return j
		}
	}
	return nil
}

// PidIndex maps process ids to the job that owns them so reaped statuses can
// be attributed without scanning the table.
type PidIndex struct {
	jobs map[int]*Job
}

// NewPidIndex creates an empty index.
func NewPidIndex() *PidIndex {
	return &PidIndex{jobs: make(map[int]*Job)}
}

// Add records that pid belongs to j.
func (x *PidIndex) Add(pid int, j *Job) {
	x.jobs[pid] = j
}

// Lookup returns the owner of pid or nil.
func (x *PidIndex) Lookup(pid int) *Job {
	return x.jobs[pid]
}

// Drop removes every pid of j.
func (x *PidIndex) Drop(j *Job) {
	for _, pid := range j.pids {
		if x.jobs[pid] == j {
			delete(x.jobs, pid)
		}
	}
}

// Len returns the number of indexed pids.
func (x *PidIndex) Len() int {
	return len(x.jobs)
}
