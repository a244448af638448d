// File: completion/queue.go
// Author: momentics <momentics@gmail.com>
//
// Platform-neutral completion queue contract.

package completion

import (
	"fmt"

	"github.com/momentics/jobnotify/api"
)

// ExitKey is the reserved completion key of the synthetic shutdown packet.
// Jobs are always associated with key 0, so no real completion carries it.
const ExitKey = ^uintptr(0)

// Poster submits packets to a queue.
type Poster interface {
	Post(p api.Packet) error
}

// Queue is a FIFO of job notifications.
type Queue interface {
	Poster
	// Associate routes the job's notifications to the queue.
	Associate(job api.Job) error
	// Wait blocks until the next packet is available.
	Wait() (api.Packet, error)
	// Close releases the queue; a blocked Wait returns an error.
	Close() error
}

// Kind is implemented by queues that report their backend.
type Kind interface {
	Backend() Backend
}

// Source is implemented by jobs that deliver notifications in-process.
type Source interface {
	Attach(p Poster) error
}

// Backend selects a Queue implementation.
type Backend string

const (
	BackendAuto   Backend = "auto"
	BackendNative Backend = "native"
	BackendMemory Backend = "memory"
)

// New creates a queue for the given backend. Auto picks the native backend where
// one exists and the in-memory backend elsewhere.
func New(b Backend) (Queue, error) {
	switch b {
	case "", BackendAuto:
		return newPlatform()
	case BackendNative:
		return NewNative()
	case BackendMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("completion: backend %q: %w", b, api.ErrInvalidArgument)
	}
}
