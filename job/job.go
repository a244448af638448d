// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package job wraps the native job object a Pump observes.
package job

type options struct {
	killOnClose  bool
	processLimit uint32
	arenaMax     int
}

// Option configures job creation.
type Option func(*options)

// WithKillOnClose terminates every process in the job when its last handle closes.
func WithKillOnClose() Option {
	return func(o *options) { o.killOnClose = true }
}

// WithActiveProcessLimit caps the number of live processes in the job.
// Exceeding it raises the active-process-limit notification.
func WithActiveProcessLimit(n uint32) Option {
	return func(o *options) { o.processLimit = n }
}

// WithArenaMaxBytes bounds the scratch arena used to convert the job name.
func WithArenaMaxBytes(n int) Option {
	return func(o *options) { o.arenaMax = n }
}
