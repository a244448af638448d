//go:build !unix && !windows

// File: arena/heap_stub.go
// Author: momentics <momentics@gmail.com>
//
// Stub implementation for unsupported platforms.

package arena

import "github.com/momentics/jobnotify/api"

func newHeap(int) (heap, error) {
	return nil, api.ErrNotSupported
}
