package fallback

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlagStartsUntripped(t *testing.T) {
	var f Flag
	assert.False(t, f.Tripped())
}

func TestFlagIsSticky(t *testing.T) {
	var f Flag
	f.Trip()
	assert.True(t, f.Tripped())

	// Повторный Trip ничего не меняет
	f.Trip()
	assert.True(t, f.Tripped())
}

func TestFlagConcurrentTrip(t *testing.T) {
	var f Flag
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.Trip()
		}()
	}
	wg.Wait()

	assert.True(t, f.Tripped())
}
