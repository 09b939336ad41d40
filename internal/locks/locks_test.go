package locks

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryReturnsSameMutexForSameKey(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	assert.Same(t, r.Get(User("g1", "u1")), r.Get(User("g1", "u1")))
	assert.NotSame(t, r.Get(User("g1", "u1")), r.Get(User("g1", "u2")))
	assert.NotSame(t, r.Get(User("g1", "u1")), r.Get(User("g2", "u1")))
}

func TestKeyKindsNeverCollide(t *testing.T) {
	t.Parallel()
	r := NewRegistry()

	// A guild ID equal to a sanction key must still map to distinct locks.
	assert.NotSame(t, r.Get(Guild("123")), r.Get(Sanction("123")))
}

func TestLockSerializesCriticalSections(t *testing.T) {
	t.Parallel()
	r := NewRegistry()
	key := User("guild", "user")

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := r.Lock(key)
			counter++
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}
