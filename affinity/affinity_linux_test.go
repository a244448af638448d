//go:build linux

package affinity_test

import (
	"runtime"
	"testing"

	"github.com/momentics/jobnotify/affinity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

func TestSetAffinityPinsThread(t *testing.T) {
	var allowed unix.CPUSet
	require.NoError(t, unix.SchedGetaffinity(0, &allowed))
	cpu := -1
	for i := 0; i < 1024; i++ {
		if allowed.IsSet(i) {
			cpu = i
			break
		}
	}
	require.GreaterOrEqual(t, cpu, 0)

	done := make(chan struct{})
	go func() {
		defer close(done)
		// The thread stays locked and is discarded when the goroutine exits.
		runtime.LockOSThread()
		if !assert.NoError(t, affinity.SetAffinity(cpu)) {
			return
		}
		var got unix.CPUSet
		if assert.NoError(t, unix.SchedGetaffinity(0, &got)) {
			assert.Equal(t, 1, got.Count())
			assert.True(t, got.IsSet(cpu))
		}
	}()
	<-done
}
