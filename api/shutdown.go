// File: api/shutdown.go
// Package api defines the component lifecycle contract.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package api

// Lifecycle is implemented by components owning a background goroutine.
type Lifecycle interface {
	// Close stops the component and releases its resources. It is idempotent.
	Close() error
	// Done is closed once the background goroutine has returned.
	Done() <-chan struct{}
	// Err reports why the goroutine stopped on its own, nil otherwise.
	Err() error
}
