// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package arena provides scoped native memory arenas for interop-heavy code.
//
// An Arena owns a private native heap plus every native string converted through it;
// End releases both. Arenas are organised on an explicit per-goroutine Stack: Begin pushes
// a fresh arena, End pops it and restores the previous one, Current returns the top.
// A Stack must never be shared between goroutines.
package arena
