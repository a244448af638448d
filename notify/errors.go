// File: notify/errors.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package notify

import (
	"fmt"

	"github.com/momentics/jobnotify/api"
)

// ListenerError describes one failed listener invocation.
type ListenerError struct {
	Code  api.EventCode
	Value uint32
	Index int // position of the listener in registration order
	Panic any // recovered panic value, nil when the listener returned an error
	Err   error
}

func (e *ListenerError) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("listener %d for %s (value %d) panicked: %v", e.Index, e.Code, e.Value, e.Panic)
	}
	return fmt.Sprintf("listener %d for %s (value %d) failed: %v", e.Index, e.Code, e.Value, e.Err)
}

// Unwrap exposes the listener's error and an api.ErrCodeListener marker, so
// both errors.Is(le, cause) and api.IsCode(le, api.ErrCodeListener) hold.
func (e *ListenerError) Unwrap() []error {
	return []error{e.Err, api.NewError(api.ErrCodeListener, "listener failed")}
}

// ErrorHandler receives listener failures. It runs on the dispatching goroutine.
type ErrorHandler func(*ListenerError)

// FatalHandler receives the error that stopped the pump loop.
type FatalHandler func(error)
