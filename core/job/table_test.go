package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestJob(pids ...int) *Job {
	j := &Job{procs: make(map[int]*procStatus), state: Running}
	for _, pid := range pids {
		if j.pgid == 0 {
			j.pgid = pid
		}
		j.pids = append(j.pids, pid)
		j.procs[pid] = &procStatus{}
	}
	return j
}

func assertMarkers(t *testing.T, table *Table) {
	t.Helper()

	current, previous := table.Current(), table.Previous()
	if current != nil || previous != nil {
		assert.NotEqual(t, current, previous, "current and previous must differ")
	}
	for _, j := range []*Job{current, previous} {
		if j != nil {
			assert.True(t, table.contains(j), "marked job must be in the table")
		}
	}
}

func TestTable_Add(t *testing.T) {
	table := NewTable()
	a, b, c := newTestJob(10), newTestJob(20), newTestJob(30)

	table.Add(a)
	table.Add(b)
	assert.Equal(t, 1, a.Index())
	assert.Equal(t, 2, b.Index())
	assert.NotEqual(t, a.ID(), b.ID())

	// Adding doesn't move the markers.
	assert.Nil(t, table.Current())

	// Adding twice is a no-op.
	table.Add(a)
	assert.Equal(t, 2, table.Len())

	// Display indexes continue from the highest live one, IDs never repeat.
	table.Remove(b)
	table.Add(c)
	assert.Equal(t, 2, c.Index())
	assert.NotEqual(t, b.ID(), c.ID())
	assert.Equal(t, []*Job{a, c}, table.Jobs())
}

func TestTable_SetCurrent(t *testing.T) {
	table := NewTable()
	a, b, c := newTestJob(10), newTestJob(20), newTestJob(30)
	table.Register(a)
	table.Register(b)

	assert.Equal(t, b, table.Current())
	assert.Equal(t, a, table.Previous())
	assertMarkers(t, table)

	// Re-selecting the current job keeps previous.
	table.SetCurrent(b)
	assert.Equal(t, a, table.Previous())

	// Jobs outside the table can't be selected.
	table.SetCurrent(c)
	assert.Equal(t, b, table.Current())

	table.SetCurrent(a)
	assert.Equal(t, a, table.Current())
	assert.Equal(t, b, table.Previous())
	assertMarkers(t, table)
}

func TestTable_Marker(t *testing.T) {
	table := NewTable()
	a, b, c := newTestJob(10), newTestJob(20), newTestJob(30)
	table.Register(a)
	table.Register(b)
	table.Add(c)

	var markers []rune
	for _, entry := range table.List() {
		markers = append(markers, entry.Marker)
	}
	assert.Equal(t, []rune{'-', '+', ' '}, markers)

	// Jobs that were never added are unmarked.
	assert.Equal(t, ' ', table.Marker(newTestJob(40)))
}

func TestTable_Remove(t *testing.T) {
	cases := map[string]struct {
		remove           int
		finished         []int
		expectedCurrent  int
		expectedPrevious int
	}{
		"current promotes previous": {
			remove:           3,
			expectedCurrent:  2,
			expectedPrevious: 1,
		},
		"previous is replaced from the table": {
			remove:           2,
			expectedCurrent:  3,
			expectedPrevious: 1,
		},
		"unmarked job keeps markers": {
			remove:           1,
			expectedCurrent:  3,
			expectedPrevious: 2,
		},
		"finished jobs are skipped": {
			remove:           3,
			finished:         []int{1},
			expectedCurrent:  2,
			expectedPrevious: 0,
		},
		"nothing left": {
			remove:           3,
			finished:         []int{1, 2},
			expectedCurrent:  0,
			expectedPrevious: 0,
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			table := NewTable()
			jobs := map[int]*Job{}
			for i := 1; i <= 3; i++ {
				jobs[i] = newTestJob(i * 10)
				table.Register(jobs[i])
			}
			for _, i := range tc.finished {
				jobs[i].state = Done
			}

			table.Remove(jobs[tc.remove])

			assert.Equal(t, 2, table.Len())
			assert.Equal(t, jobs[tc.expectedCurrent], table.Current())
			assert.Equal(t, jobs[tc.expectedPrevious], table.Previous())
			assertMarkers(t, table)
		})
	}
}

func TestTable_Lookup(t *testing.T) {
	table := NewTable()
	a, b := newTestJob(10), newTestJob(20)
	table.Add(a)
	table.Add(b)

	assert.Equal(t, a, table.Lookup(1))
	assert.Equal(t, b, table.Lookup(2))
	assert.Nil(t, table.Lookup(3))
	assert.Nil(t, table.Lookup(0))
}

func TestTable_Nth(t *testing.T) {
	table := NewTable()
	a, b := newTestJob(10), newTestJob(20)
	table.Add(a)
	table.Add(b)

	assert.Equal(t, a, table.Nth(1))
	assert.Equal(t, b, table.Nth(2))

	// Display indices stay put, table positions close up.
	table.Remove(a)
	assert.Equal(t, b, table.Nth(1))
	assert.Nil(t, table.Nth(2))
	assert.Nil(t, table.Lookup(1))
	assert.Equal(t, b, table.Lookup(2))

	assert.Nil(t, table.Nth(0))
	assert.Nil(t, table.Nth(-1))
}

func TestPidIndex(t *testing.T) {
	index := NewPidIndex()
	a, b := newTestJob(10, 11), newTestJob(20)

	for _, j := range []*Job{a, b} {
		for _, pid := range j.pids {
			index.Add(pid, j)
		}
	}
	assert.Equal(t, 3, index.Len())
	assert.Equal(t, a, index.Lookup(11))
	assert.Nil(t, index.Lookup(99))

	index.Drop(a)
	assert.Equal(t, 1, index.Len())
	assert.Nil(t, index.Lookup(10))
	assert.Equal(t, b, index.Lookup(20))

	// Only entries owned by the job are dropped.
	index.Add(30, b)
	index.Drop(newTestJob(30))
	assert.Equal(t, b, index.Lookup(30))
}
