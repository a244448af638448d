//go:build windows
// +build windows

// File: notify/thread_windows.go
// Author: momentics <momentics@gmail.com>

package notify

import "golang.org/x/sys/windows"

func currentThreadID() int64 { return int64(windows.GetCurrentThreadId()) }
