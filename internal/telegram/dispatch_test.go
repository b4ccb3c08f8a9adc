package telegram

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDispatcherKeepsPerUserOrder(t *testing.T) {
	d := NewDispatcher(context.Background(), 4)

	var mu sync.Mutex
	got := map[int64][]int{}
	for i := 0; i < 50; i++ {
		for _, user := range []int64{1, 2, 3} {
			d.Do(user, func(context.Context) {
				mu.Lock()
				got[user] = append(got[user], i)
				mu.Unlock()
			})
		}
	}
	d.Wait()

	for _, user := range []int64{1, 2, 3} {
		assert.Len(t, got[user], 50)
		for i, v := range got[user] {
			assert.Equal(t, i, v)
		}
	}
}

func TestDispatcherSerializesOneUser(t *testing.T) {
	d := NewDispatcher(context.Background(), 8)

	var inFlight, maxSeen atomic.Int32
	for i := 0; i < 20; i++ {
		d.Do(7, func(context.Context) {
			n := inFlight.Add(1)
			if n > maxSeen.Load() {
				maxSeen.Store(n)
			}
			time.Sleep(time.Millisecond)
			inFlight.Add(-1)
		})
	}
	d.Wait()
	assert.Equal(t, int32(1), maxSeen.Load())
}

func TestDispatcherUsersRunConcurrently(t *testing.T) {
	d := NewDispatcher(context.Background(), 2)

	release := make(chan struct{})
	started := make(chan int64, 2)
	for _, user := range []int64{1, 2} {
		d.Do(user, func(context.Context) {
			started <- user
			<-release
		})
	}

	for i := 0; i < 2; i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("users did not run concurrently")
		}
	}
	close(release)
	d.Wait()
}
