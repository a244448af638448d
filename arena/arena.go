// File: arena/arena.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package arena

import (
	"fmt"
	"unsafe"

	"github.com/momentics/jobnotify/api"
)

// DefaultMaxBytes bounds the heap of a single arena.
const DefaultMaxBytes = 1 << 20

// allocAlign keeps every allocation suitably aligned for UTF-16 and pointer-sized data.
const allocAlign = 16

// heap is the platform native backing of one arena. Addresses are native
// memory outside the Go heap and are carried as uintptr until handed out.
type heap interface {
	alloc(n int) (uintptr, error)
	// stringSize reports the bytes nativeString charges for s.
	stringSize(s string) int
	nativeString(s string) (uintptr, error)
	freeString(addr uintptr)
	destroy() error
}

// nativePointer turns a native heap address into a pointer. The memory is not
// managed by the Go runtime and does not move, so the address stays valid
// until the arena frees it.
func nativePointer(addr uintptr) unsafe.Pointer {
	return unsafe.Add(nil, addr)
}

// Option configures a Stack.
type Option func(*Stack)

// WithMaxBytes bounds the heap size of every arena begun on the stack.
func WithMaxBytes(n int) Option {
	return func(s *Stack) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

// Stack is the execution-context-local arena stack. Not safe for concurrent use.
type Stack struct {
	top      *Arena
	depth    int
	maxBytes int
}

// NewStack creates an empty arena stack.
func NewStack(opts ...Option) *Stack {
	s := &Stack{maxBytes: DefaultMaxBytes}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Begin creates a fresh arena and makes it current, preserving the previous one.
func (s *Stack) Begin() (*Arena, error) {
	h, err := newHeap(s.maxBytes)
	if err != nil {
		return nil, fmt.Errorf("arena: create heap: %w", err)
	}
	a := &Arena{
		stack: s,
		prev:  s.top,
		heap:  h,
		limit: s.maxBytes,
	}
	s.top = a
	s.depth++
	return a, nil
}

// Current returns the active arena. Calling it on an empty stack is a programming error.
func (s *Stack) Current() *Arena {
	if s.top == nil {
		panic("arena: no current arena")
	}
	return s.top
}

// Depth reports the number of live arenas on the stack.
func (s *Stack) Depth() int { return s.depth }

// Arena is a scratch allocation scope backed by a private native heap.
type Arena struct {
	stack   *Stack
	prev    *Arena
	heap    heap
	strings []uintptr
	used    int
	limit   int
	ended   bool
}

// Allocate returns n bytes of zeroed native storage valid until End.
func (a *Arena) Allocate(n int) ([]byte, error) {
	if a.ended {
		return nil, api.ErrClosed
	}
	if n < 0 {
		return nil, fmt.Errorf("arena: allocate %d bytes: %w", n, api.ErrInvalidArgument)
	}
	if n == 0 {
		return []byte{}, nil
	}
	rounded := (n + allocAlign - 1) &^ (allocAlign - 1)
	if a.used+rounded > a.limit {
		return nil, fmt.Errorf("arena: allocate %d bytes (%d/%d used): %w", n, a.used, a.limit, api.ErrArenaExhausted)
	}
	addr, err := a.heap.alloc(rounded)
	if err != nil {
		return nil, fmt.Errorf("arena: allocate %d bytes: %w", n, err)
	}
	a.used += rounded
	return unsafe.Slice((*byte)(nativePointer(addr)), n), nil
}

// ConvertToNativeString copies text into tracked native storage in the platform's
// string encoding (UTF-16 on Windows, NUL-terminated bytes elsewhere).
// The pointer stays valid until End. Converted strings count against the limit.
func (a *Arena) ConvertToNativeString(text string) (unsafe.Pointer, error) {
	if a.ended {
		return nil, api.ErrClosed
	}
	size := a.heap.stringSize(text)
	if a.used+size > a.limit {
		return nil, fmt.Errorf("arena: convert %d byte string (%d/%d used): %w", len(text), a.used, a.limit, api.ErrArenaExhausted)
	}
	addr, err := a.heap.nativeString(text)
	if err != nil {
		return nil, fmt.Errorf("arena: convert string: %w", err)
	}
	a.used += size
	a.strings = append(a.strings, addr)
	return nativePointer(addr), nil
}

// Strings reports how many converted strings the arena tracks.
func (a *Arena) Strings() int { return len(a.strings) }

// Used reports the bytes charged by Allocate and ConvertToNativeString.
func (a *Arena) Used() int { return a.used }

// End releases tracked strings, destroys the heap and restores the previous arena.
// Ending an arena that is not current is a programming error; a second End is a no-op.
func (a *Arena) End() error {
	if a.ended {
		return nil
	}
	if a.stack.top != a {
		panic("arena: End called on an arena that is not current")
	}
	for _, p := range a.strings {
		a.heap.freeString(p)
	}
	a.strings = nil
	err := a.heap.destroy()
	a.ended = true
	a.stack.top = a.prev
	a.stack.depth--
	a.prev = nil
	return err
}

// Scoped runs fn inside a fresh arena on s, ending it afterwards.
func Scoped(s *Stack, fn func(*Arena) error) (err error) {
	a, err := s.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if endErr := a.End(); err == nil {
			err = endErr
		}
	}()
	return fn(a)
}
