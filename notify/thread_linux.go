//go:build linux

// File: notify/thread_linux.go
// Author: momentics <momentics@gmail.com>

package notify

import "golang.org/x/sys/unix"

func currentThreadID() int64 { return int64(unix.Gettid()) }
