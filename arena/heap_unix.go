//go:build unix

// File: arena/heap_unix.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Anonymous mmap region per arena with bump allocation. Pages are zero-filled by
// the kernel and never reused inside one arena, so allocations are always zeroed.

package arena

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/momentics/jobnotify/api"
	"golang.org/x/sys/unix"
)

type mmapHeap struct {
	region []byte
	off    int
}

func newHeap(max int) (heap, error) {
	region, err := unix.Mmap(-1, 0, max, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("mmap %d bytes: %w", max, err)
	}
	return &mmapHeap{region: region}, nil
}

func (m *mmapHeap) alloc(n int) (uintptr, error) {
	if m.region == nil {
		return 0, api.ErrClosed
	}
	if m.off+n > len(m.region) {
		return 0, api.ErrArenaExhausted
	}
	addr := uintptr(unsafe.Pointer(&m.region[m.off]))
	m.off += n
	return addr, nil
}

func (m *mmapHeap) stringSize(s string) int {
	return (len(s) + 1 + allocAlign - 1) &^ (allocAlign - 1)
}

func (m *mmapHeap) nativeString(s string) (uintptr, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return 0, fmt.Errorf("string contains NUL: %w", api.ErrInvalidArgument)
	}
	start := m.off
	addr, err := m.alloc(m.stringSize(s))
	if err != nil {
		return 0, err
	}
	copy(m.region[start:], s)
	return addr, nil
}

// Strings live inside the region and go away with it.
func (m *mmapHeap) freeString(uintptr) {}

func (m *mmapHeap) destroy() error {
	if m.region == nil {
		return nil
	}
	err := unix.Munmap(m.region)
	m.region = nil
	return err
}
