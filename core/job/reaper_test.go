package job

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReaper_counter(t *testing.T) {
	r := NewReaper()
	assert.False(t, r.take())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Notify()
		}()
	}
	wg.Wait()

	assert.EqualValues(t, 50, r.Pending())
	assert.True(t, r.take())
	assert.EqualValues(t, 0, r.Pending())
	assert.False(t, r.take())
}

func TestReaper_Stop(t *testing.T) {
	r := NewReaper()
	r.Start()

	// Stopping twice is fine.
	r.Stop()
	r.Stop()
}
