// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package procinfo resolves live processes by id and queries their image and exit code.
// Every call is fallible: a process may exit between a job notification and the query.
package procinfo

import "github.com/momentics/jobnotify/arena"

// Inspector resolves process ids.
type Inspector interface {
	// Open resolves pid to a live process. It returns an error wrapping
	// api.ErrNoProcess when the process no longer exists or cannot be opened.
	Open(pid uint32) (Process, error)
}

// Process is a resolved process reference. Callers must Close it.
type Process interface {
	Pid() uint32
	// ExitCode returns the recorded exit code of a terminated process.
	ExitCode() (uint32, error)
	// ImagePath returns the path (or base name) of the main loaded module.
	ImagePath() (string, error)
	Close() error
}

// Default returns the platform inspector with default arena bounds.
func Default() Inspector {
	return New(arena.DefaultMaxBytes)
}
