//go:build windows
// +build windows

// File: arena/heap_windows.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Private Win32 heap per arena. Strings are LocalAlloc'd UTF-16 blocks.

package arena

import (
	"fmt"
	"unicode/utf16"
	"unsafe"

	"github.com/momentics/jobnotify/api"
	"golang.org/x/sys/windows"
)

var (
	kern32          = windows.NewLazySystemDLL("kernel32.dll")
	procHeapCreate  = kern32.NewProc("HeapCreate")
	procHeapAlloc   = kern32.NewProc("HeapAlloc")
	procHeapDestroy = kern32.NewProc("HeapDestroy")
)

const heapZeroMemory = 0x00000008

type windowsHeap struct {
	h uintptr
}

func newHeap(_ int) (heap, error) {
	// Growable heap; the arena enforces its own limit.
	h, _, err := procHeapCreate.Call(0, 0, 0)
	if h == 0 {
		return nil, fmt.Errorf("HeapCreate: %w", err)
	}
	return &windowsHeap{h: h}, nil
}

func (w *windowsHeap) alloc(n int) (uintptr, error) {
	addr, _, err := procHeapAlloc.Call(w.h, heapZeroMemory, uintptr(n))
	if addr == 0 {
		return 0, fmt.Errorf("HeapAlloc %d bytes: %v: %w", n, err, api.ErrArenaExhausted)
	}
	return addr, nil
}

// stringSize is the UTF-16 encoding of s plus the terminator.
func (w *windowsHeap) stringSize(s string) int {
	units := 1
	for _, r := range s {
		units += utf16.RuneLen(r)
	}
	return units * 2
}

func (w *windowsHeap) nativeString(s string) (uintptr, error) {
	u, err := windows.UTF16FromString(s)
	if err != nil {
		return 0, fmt.Errorf("%v: %w", err, api.ErrInvalidArgument)
	}
	h, err := windows.LocalAlloc(windows.LPTR, uint32(len(u)*2))
	if err != nil {
		return 0, fmt.Errorf("LocalAlloc: %w", err)
	}
	addr := uintptr(h)
	copy(unsafe.Slice((*uint16)(nativePointer(addr)), len(u)), u)
	return addr, nil
}

func (w *windowsHeap) freeString(addr uintptr) {
	_, _ = windows.LocalFree(windows.Handle(addr))
}

func (w *windowsHeap) destroy() error {
	if w.h == 0 {
		return nil
	}
	r, _, err := procHeapDestroy.Call(w.h)
	w.h = 0
	if r == 0 {
		return fmt.Errorf("HeapDestroy: %w", err)
	}
	return nil
}
