//go:build !linux && !windows

// File: notify/thread_other.go
// Author: momentics <momentics@gmail.com>

package notify

// currentThreadID is unknown here; Close from a listener then waits out the join timeout.
func currentThreadID() int64 { return 0 }
